package export

import (
	"context"

	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
)

// Row is one output line: the record and the file it came from.
type Row struct {
	Record entity.FieldRecord
	Source string
}

// Sink receives rows in the order they should appear and persists them on Close.
type Sink interface {
	Write(ctx context.Context, row Row) error
	Close() error
}

var _ Sink = (*XLSXSink)(nil)
