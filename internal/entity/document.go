package entity

import (
	"path/filepath"

	"github.com/google/uuid"
)

// Document is one input PDF in a batch.
type Document struct {
	ID          uuid.UUID `json:"id"`
	Index       int       `json:"index"` // position in the batch; rows are written in this order
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	SHA256      string    `json:"sha256,omitempty"`
	DuplicateOf string    `json:"duplicate_of,omitempty"` // path of an earlier document with the same content
}

// NewDocument builds a Document for path at batch position index.
func NewDocument(index int, path string) Document {
	return Document{
		ID:    uuid.New(),
		Index: index,
		Path:  path,
		Name:  filepath.Base(path),
	}
}
