// Package notify announces finished merged outputs to downstream ingestion.
//
// Each published output becomes one JSON message on a Kafka topic, keyed by
// variable name. When notifications are disabled New returns Noop.
//
// # Usage
//
//	n := notify.New(cfg.Kafka)
//	defer n.Close()
//	err := n.Notify(ctx, notify.Event{Variable: "PR1h", Path: path})
package notify
