// Package utils provides small conversion helpers shared by the configuration
// and naming code: comma list splitting for the parameter file, index-aligned
// list access, and tolerant int/bool parsing of parameter values.
package utils
