package pyast

import "fmt"

// ParseError wraps a failure from the underlying tree-sitter parser (not
// a Python syntax error — tree-sitter recovers from those and produces a
// best-effort tree with ERROR nodes instead of failing outright).
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pyast: parse failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
