package manifest

import "fmt"

// ParseError describes a manifest line that was skipped while parsing.
type ParseError struct {
	// Line is the 1-based line number.
	Line int
	// Text is the raw line content.
	Text string
	// Reason explains why the line was rejected.
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// FileUnavailableError reports a file that vanished or could not be read
// between enumeration and hashing.
type FileUnavailableError struct {
	Path string
	Err  error
}

func (e *FileUnavailableError) Error() string {
	return fmt.Sprintf("file unavailable %s: %v", e.Path, e.Err)
}

func (e *FileUnavailableError) Unwrap() error {
	return e.Err
}

// AlgorithmMismatchError is returned when two manifests, or a manifest and a
// requested build, use different hash algorithms. Callers must opt in
// explicitly before proceeding.
type AlgorithmMismatchError struct {
	Existing  string
	Requested string
}

func (e *AlgorithmMismatchError) Error() string {
	return fmt.Sprintf("hash algorithm mismatch: manifest uses %q, requested %q", e.Existing, e.Requested)
}
