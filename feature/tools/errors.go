package tools

import "fmt"

// Error reports a failed tool operation.
type Error struct {
	// Op is the adapter operation, e.g. "merge_time".
	Op string
	// Reason describes what could not be done.
	Reason string
	// Err is the underlying failure, usually carrying the tool output.
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, reason string, err error) *Error {
	return &Error{Op: op, Reason: reason, Err: err}
}

// Operation names used in errors and metrics.
const (
	OpConvertFormat   = "convert_format"
	OpRegrid          = "regrid"
	OpMergeTime       = "merge_time"
	OpSubtract        = "subtract"
	OpEditMetadata    = "edit_metadata"
	OpSplitByVariable = "split_by_variable"
	OpSplitByTimeStep = "split_by_time_step"
	OpToNativeLayout  = "to_native_layout"
	OpTimestamp       = "timestamp"
	OpMakeMissing     = "make_missing"
)
