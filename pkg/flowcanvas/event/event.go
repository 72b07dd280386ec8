// Package event publishes editor changes to interested listeners such as
// canvas renderers, autosave hooks and agents connected through MCP.
//
// Events are plain values. Payloads are copies of the affected nodes or edges,
// so a subscriber can hold on to them without observing later edits.
package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the editor.
const (
	NodeAdded      = "node.added"
	NodeRemoved    = "node.removed"
	NodesChanged   = "nodes.changed"
	EdgeAdded      = "edge.added"
	EdgeRemoved    = "edge.removed"
	EdgesChanged   = "edges.changed"
	GraphHydrated  = "graph.hydrated"
	FlowSaved      = "flow.saved"
	FlowSaveFailed = "flow.save_failed"
)

// Event is a single change notification.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	FlowID    string    `json:"flow_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// New creates an event with a fresh id and the current time.
func New(eventType, flowID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		FlowID:    flowID,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// PayloadBytes returns the JSON encoding of the payload.
func (e Event) PayloadBytes() ([]byte, error) {
	return json.Marshal(e.Payload)
}

// Handler receives events. Returning an error reports it to BusConfig.OnError.
type Handler interface {
	Handle(evt Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(evt Event) error

// Handle implements Handler.
func (f HandlerFunc) Handle(evt Event) error {
	return f(evt)
}
