package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
)

type DirStats struct {
	Scanned    uint32
	Matched    uint32
	Hidden     uint32
	Failed     uint32
	Duplicates uint32
}

// ListDocuments walks root and returns its PDF files as batch documents, sorted
// by path so row order does not depend on the filesystem. Entries that cannot
// be read are logged and counted, not fatal. Files with identical content are
// kept (each input gets its row) and reported through DuplicateOf.
func ListDocuments(root string, skipHidden bool, logger *slog.Logger) ([]entity.Document, DirStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("input directory is required")
	}

	var paths []string
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Failed++
			logger.Warn("ingest.walk.failed", "path", path, "error", walkErr)
			return nil // continue walking
		}
		if path != root && skipHidden && IsHidden(path) {
			stats.Hidden++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(paths)
	docs := make([]entity.Document, len(paths))
	seen := make(map[string]string, len(paths))
	for i, p := range paths {
		doc := entity.NewDocument(i, p)
		sum, err := hashFile(p)
		if err != nil {
			// the acquirer reports unreadable documents
			logger.Warn("ingest.hash.failed", "path", p, "error", err)
		} else {
			doc.SHA256 = sum
			if first, ok := seen[sum]; ok {
				doc.DuplicateOf = first
				stats.Duplicates++
				logger.Warn("ingest.duplicate", "path", p, "duplicate_of", first)
			} else {
				seen[sum] = p
			}
		}
		docs[i] = doc
	}
	logger.Info("ingest.list.ok",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"hidden", stats.Hidden,
		"failed", stats.Failed,
		"duplicates", stats.Duplicates,
	)
	return docs, stats, nil
}
