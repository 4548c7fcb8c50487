package async

import (
	"context"

	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
	processor "github.com/joseph-ayodele/nfse-extractor/internal/pipeline"
)

// DocumentProcessor turns one document into a result. It must not fail; errors
// are reported inside the result. *processor.Processor implements it.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, doc entity.Document) processor.Result
}

// job is one document and its position in the batch.
type job struct {
	pos int
	doc entity.Document
}

type done struct {
	pos int
	res processor.Result
}
