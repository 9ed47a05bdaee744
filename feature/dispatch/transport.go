package dispatch

import (
	"context"
	"fmt"
	"strings"

	"eps-prepro/feature/inventory"
)

// IdleMarker is sent instead of an assignment to workers without units.
const IdleMarker = inventory.IdleMarker

// unitSeparator joins the unit IDs of an assignment message.
const unitSeparator = inventory.UnitSeparator

// JoinUnits encodes an assignment. An empty assignment is the idle marker.
func JoinUnits(units []string) string {
	if len(units) == 0 {
		return IdleMarker
	}
	return strings.Join(units, unitSeparator)
}

// SplitUnits decodes an assignment message. The idle marker decodes to nil.
func SplitUnits(body string) []string {
	if body == IdleMarker || body == "" {
		return nil
	}
	return strings.Split(body, unitSeparator)
}

// Message is a point-to-point message between the coordinator (rank 0) and
// a worker.
type Message struct {
	From int
	Body string
	// Report is set on worker reports. Ownership passes to the receiver.
	Report *Report
}

// Transport connects the coordinator with workers 1..W over channels: one
// inbox per worker and one coordinator inbox.
type Transport struct {
	inboxes     []chan Message
	coordinator chan Message
}

// NewTransport creates the channels for workers ranks 1..workers.
func NewTransport(workers int) *Transport {
	t := &Transport{
		inboxes:     make([]chan Message, workers+1),
		coordinator: make(chan Message, workers),
	}
	for rank := 1; rank <= workers; rank++ {
		t.inboxes[rank] = make(chan Message, 1)
	}
	return t
}

// Workers returns the number of worker ranks.
func (t *Transport) Workers() int {
	return len(t.inboxes) - 1
}

// Send delivers a coordinator message to a worker.
func (t *Transport) Send(ctx context.Context, rank int, body string) error {
	if rank < 1 || rank > t.Workers() {
		return fmt.Errorf("no worker with rank %d", rank)
	}
	select {
	case t.inboxes[rank] <- Message{From: 0, Body: body}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv blocks until the worker receives its message.
func (t *Transport) Recv(ctx context.Context, rank int) (Message, error) {
	if rank < 1 || rank > t.Workers() {
		return Message{}, fmt.Errorf("no worker with rank %d", rank)
	}
	select {
	case msg := <-t.inboxes[rank]:
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Reply sends a worker message to the coordinator.
func (t *Transport) Reply(ctx context.Context, msg Message) error {
	select {
	case t.coordinator <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Collect blocks until the coordinator receives a message from any worker.
func (t *Transport) Collect(ctx context.Context) (Message, error) {
	select {
	case msg := <-t.coordinator:
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}
