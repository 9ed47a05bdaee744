package dispatch

import "fmt"

// Precondition checks run by the coordinator before any work is sent.
const (
	CheckSourceDir   = "source_directory"
	CheckInputDir    = "input_directory"
	CheckGridIn      = "grid_description_in"
	CheckGridOut     = "grid_description_out"
	CheckDestination = "destination_directory"
)

// FatalPreconditionError aborts the job before distribution.
type FatalPreconditionError struct {
	Check string
	Path  string
	Err   error
}

func (e *FatalPreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("precondition %s failed for %s: %v", e.Check, e.Path, e.Err)
	}
	return fmt.Sprintf("precondition %s failed for %s", e.Check, e.Path)
}

func (e *FatalPreconditionError) Unwrap() error {
	return e.Err
}
