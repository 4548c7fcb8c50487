package extract

import "github.com/joseph-ayodele/nfse-extractor/constants"

// Rule pulls one field out of normalized text. ok is false when the field is absent.
type Rule interface {
	Field() constants.Field
	Extract(text string) (value string, ok bool)
}

// Dialect is a named document layout with its own rule set.
type Dialect interface {
	Name() string
	// Detect reports whether text looks like this layout.
	Detect(text string) bool
	Rules() []Rule
}
