package extractor

import "fmt"

type Kind string

const (
	KindNoContentFound Kind = "no_content_found"
)

// ExtractionError is returned when no usable content subtree exists in the
// rendered document. An empty page must surface as an error, never as an
// empty successful conversion.
type ExtractionError struct {
	Kind Kind
	Msg  string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract: %s: %s", e.Kind, e.Msg)
}

func noContentErr(format string, args ...any) *ExtractionError {
	return &ExtractionError{Kind: KindNoContentFound, Msg: fmt.Sprintf(format, args...)}
}
