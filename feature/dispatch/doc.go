// Package dispatch runs a preprocessing job as one coordinator and a fixed
// pool of workers.
//
// The coordinator (rank 0) moves through INIT, SCAN, DISTRIBUTE and
// AWAIT_REPORTS to DONE, or to FAILED when a precondition does not hold.
// Each worker rank 1..W receives exactly one message: the ";" joined unit
// IDs of its assignment or the idle marker. It answers with exactly one
// report. Messages travel over per-rank channels; nothing else is shared.
//
// Unit failures never stop a worker. They are collected in the report and
// logged by the coordinator as warnings.
package dispatch
