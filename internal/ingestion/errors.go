package ingestion

import "fmt"

// UnsupportedFormatError is returned for documents whose text cannot be extracted
type UnsupportedFormatError struct {
	Name   string
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: unsupported document format %q, upload plain text, markdown, JSON or HTML", e.Name, e.Format)
}

// ExtractionError wraps a failure to read the text of one document
type ExtractionError struct {
	Name  string
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %s: %v", e.Name, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
