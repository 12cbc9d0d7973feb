package analyzer

import "fmt"

// ParseError reports that analyze(path, content) could not parse content.
// It is logged at debug and does not itself produce a diagnostic; the
// caller's prior entries for the file were already cleared, so stale
// data does not linger.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("analyzer: %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
