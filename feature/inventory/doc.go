// Package inventory finds the processing units of a job and balances them
// over the worker pool.
//
// # Scan
//
// Scan lists the units below the source directory. With directory
// granularity every subdirectory is a unit and its size is the recursive
// size of its files; with file granularity every regular file is a unit.
// Hidden entries are ignored.
//
// # Distribute
//
// Distribute assigns units to worker ranks 1..W with a greedy size
// balancing pass. Units are visited from largest to smallest and each goes to
// the least loaded rank. The difference between the most and the least
// loaded rank never exceeds the size of the largest unit. Ranks without
// units are idle and receive the idle marker from the coordinator.
//
// # Usage
//
//	inv, err := inventory.Scan(params.SourceDir, params.Granularity)
//	assignment, err := inventory.Distribute(inv, workers)
//	err = assignment.Validate(inv)
package inventory
