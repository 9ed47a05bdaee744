// Package tools wraps the external programs that do the numeric and format work.
//
// The job never decodes GRIB or reads NetCDF itself. Adapter names the
// operations it needs and CDO implements them by running cdo, ncap2, ncpdq
// and grib_filter. All failures are returned as *Error carrying the
// operation, a reason and the tool output.
//
// # Remap Methods
//
// bilinear, bicubic, nearest_neighbor, distance_weighted, conservative,
// conservative2 and largest_area_fraction map to the CDO remap operators
// remapbil, remapbic, remapnn, remapdis, remapcon, remapcon2 and remaplaf.
//
// # Testing
//
// tools/mocks holds a testify mock of Adapter. tools/toolstest holds Fake, a
// functional adapter that works on small JSON datasets, so merge and
// preprocessing logic can be tested end to end without the real tools.
//
// # Usage
//
//	adapter := tools.NewCDO(tools.Executables{CDO: "cdo"}, tools.ExecRunner{Logger: logger})
//	err := adapter.MergeTime(ctx, []string{"00.nc", "01.nc"}, "step_1.nc")
package tools
