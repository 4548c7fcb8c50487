package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
}

func TestListDocuments(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{
		"b.pdf",
		"a.PDF",
		"notes.txt",
		"2024/julho/c.pdf",
		".hidden.pdf",
		".cache/d.pdf",
	} {
		touch(t, filepath.Join(root, p))
	}

	docs, stats, err := ListDocuments(root, true, nil)
	require.NoError(t, err)

	var got []string
	for i, d := range docs {
		assert.Equal(t, i, d.Index)
		assert.Equal(t, filepath.Base(d.Path), d.Name)
		rel, err := filepath.Rel(root, d.Path)
		require.NoError(t, err)
		got = append(got, filepath.ToSlash(rel))
	}
	assert.Equal(t, []string{"2024/julho/c.pdf", "a.PDF", "b.pdf"}, got)
	assert.Equal(t, uint32(4), stats.Scanned)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(2), stats.Hidden)
}

func TestListDocuments_Duplicates(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.pdf"))
	touch(t, filepath.Join(root, "copia/a.pdf"))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.pdf"), []byte("%PDF-1.7 other"), 0o644))

	docs, stats, err := ListDocuments(root, true, nil)
	require.NoError(t, err)
	require.Len(t, docs, 3, "duplicates still get their own row")

	assert.Equal(t, uint32(1), stats.Duplicates)
	assert.Empty(t, docs[0].DuplicateOf)
	assert.Empty(t, docs[1].DuplicateOf)
	assert.Equal(t, docs[0].Path, docs[2].DuplicateOf)
	assert.Equal(t, docs[0].SHA256, docs[2].SHA256)
	assert.Len(t, docs[0].SHA256, 64)
}

func TestListDocuments_IncludeHidden(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, ".hidden.pdf"))
	touch(t, filepath.Join(root, "x.pdf"))

	docs, _, err := ListDocuments(root, false, nil)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestListDocuments_Errors(t *testing.T) {
	_, _, err := ListDocuments("  ", true, nil)
	assert.Error(t, err)

	_, _, err = ListDocuments(filepath.Join(t.TempDir(), "missing"), true, nil)
	assert.Error(t, err)
}

func TestAllowedExt(t *testing.T) {
	assert.True(t, AllowedExt(".pdf"))
	assert.True(t, AllowedExt("PDF"))
	assert.False(t, AllowedExt(".png"))
	assert.False(t, AllowedExt(""))
}
