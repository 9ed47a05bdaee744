package tools

import (
	"context"
	"time"
)

// Adapter is the contract for the external numeric and format tools.
// Every method fails with a *Error.
type Adapter interface {
	// ConvertFormat converts a GRIB file to compressed NetCDF4 (level 1..9).
	ConvertFormat(ctx context.Context, in, out string, level int) error
	// Regrid remaps in from the inGrid description onto the outGrid description.
	Regrid(ctx context.Context, in, inGrid, out, outGrid string, method RemapMethod) error
	// MergeTime concatenates files along the time axis into out.
	MergeTime(ctx context.Context, files []string, out string) error
	// Subtract writes a - b into out.
	Subtract(ctx context.Context, a, b, out string) error
	// EditMetadata applies edits to in and writes the result to out.
	EditMetadata(ctx context.Context, in, out string, edits ...Edit) error
	// SplitByVariable splits a GRIB file into one file per variable inside dir.
	// filter is the rules file written for the splitting tool.
	SplitByVariable(ctx context.Context, file, filter, dir string) ([]string, error)
	// SplitByTimeStep splits file into one file per time step inside dir.
	SplitByTimeStep(ctx context.Context, file, dir string) ([]string, error)
	// ToNativeLayout inverts the latitude axis and reorders dimensions to time,rlon,rlat.
	ToNativeLayout(ctx context.Context, in, out string) error
	// Timestamp returns the valid time of the first time step in file.
	Timestamp(ctx context.Context, file string) (time.Time, error)
	// MakeMissing copies in to out with every value of variable set to value.
	// The result is the template for absent forecast hours.
	MakeMissing(ctx context.Context, in, out, variable string, value float64) error
}
