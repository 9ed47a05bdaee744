// Package merge reconstructs one hourly time series per model run and
// ensemble member from the per-hour files written by preprocessing.
//
// For each (run, member, variable) the Engine copies the available hours to a
// scratch directory, classifies them, builds the merge input and writes the
// remapped and/or native outputs:
//
//   - exactly 0..24 available: complete-24
//   - exactly 0..21 available: complete-21
//   - anything else: incomplete, filled up to hour 24 when the last available
//     hour is within 21..24, else up to 21
//
// Accumulated variables are deaccumulated hour by hour from the top down.
// Missing hours are filled with the variable's missing template relabelled to
// the hour. When a variable is deaccumulated only the contiguous hours from 0
// are usable; every later hour becomes a placeholder.
//
// Scratch and source per-hour files of a run are always removed after Build.
//
// # File Names
//
//	per hour: time:<YYYYMMDD-HH>.<hh>.m<MM>.nc
//	merged:   processed:<YYYYMMDD-HH>.m<MM>.nc
package merge
