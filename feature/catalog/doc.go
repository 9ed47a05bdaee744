// Package catalog publishes merged outputs and keeps track of them.
//
// A Publisher uploads each output to the bucket, records a ProcessedFile row
// in the catalog and sends one Kafka event per output. Every target is
// optional.
//
// Verify compares the destination tree, the catalog and the bucket through
// core/reconcile; Repairer applies the resulting purge and repair actions.
package catalog
