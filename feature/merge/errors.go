package merge

import (
	"errors"
	"fmt"
	"time"

	"eps-prepro/feature/tools"
)

// UnitProcessingError records a failed (unit, variable, run, member) merge.
// It never aborts the job; workers collect it into their report.
type UnitProcessingError struct {
	Unit     string
	Variable string
	Run      time.Time
	Member   int
	// Op is the failing step, a tools operation or one of the Op* constants.
	Op  string
	Err error
}

func (e *UnitProcessingError) Error() string {
	return fmt.Sprintf("unit %s: variable %s: run %s m%02d: %s: %v",
		e.Unit, e.Variable, e.Run.Format(RunLayout), e.Member, e.Op, e.Err)
}

func (e *UnitProcessingError) Unwrap() error {
	return e.Err
}

// Steps of the engine that are not tool operations.
const (
	OpDiscover = "discover"
	OpCopy     = "copy"
	OpCleanup  = "cleanup"
	OpPublish  = "publish"
	// OpBuildInput covers deaccumulation and placeholder creation.
	OpBuildInput = "build_input"
)

func (e *Engine) fail(req Request, op string, err error) *UnitProcessingError {
	var toolErr *tools.Error
	if errors.As(err, &toolErr) {
		op = toolErr.Op
	}
	return &UnitProcessingError{
		Unit:     req.Unit,
		Variable: req.Variable.Name,
		Run:      req.Run.RunStart,
		Member:   req.Run.Member,
		Op:       op,
		Err:      err,
	}
}
