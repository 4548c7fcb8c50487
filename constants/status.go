package constants

// DocumentStatus is the outcome of processing one document in a batch.
type DocumentStatus string

const (
	DocumentStatusOK         DocumentStatus = "OK"          // text acquired and at least one field matched
	DocumentStatusPartial    DocumentStatus = "PARTIAL"     // some pages failed, or nothing matched
	DocumentStatusReadFailed DocumentStatus = "READ_FAILED" // document could not be opened
	DocumentStatusTimedOut   DocumentStatus = "TIMED_OUT"   // per-document guard fired
	DocumentStatusSkipped    DocumentStatus = "SKIPPED"     // batch cancelled before it started
)

// WritesRow reports whether a document in this state produces an output row.
func (s DocumentStatus) WritesRow() bool {
	return s != DocumentStatusSkipped
}
