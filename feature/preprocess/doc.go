// Package preprocess splits the raw GRIB archive files of a unit by variable
// and by time step, and writes one NetCDF file per forecast hour named
// time:<YYYYMMDD-HH>.<hh>.m<MM>.nc under the variable directory of the unit.
package preprocess
