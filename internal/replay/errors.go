package replay

// FormatError reports that a recording failed one of the WBB1 format
// invariants (bad magic, bad version, CRC mismatch, non-monotonic
// index) and replay refuses to run over it.
type FormatError struct {
	Op  string
	Err error
}

func (e *FormatError) Error() string { return "replay: " + e.Op + ": " + e.Err.Error() }
func (e *FormatError) Unwrap() error { return e.Err }

func newFormatError(op string, err error) *FormatError {
	return &FormatError{Op: op, Err: err}
}
