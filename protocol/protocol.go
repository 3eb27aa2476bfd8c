// Package protocol defines the room-scoped event vocabulary exchanged
// between editor clients and the synchronization server. Every frame is a
// JSON envelope carrying an event name and an event-specific payload.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Client -> server events.
const (
	EventProjectJoin  = "project:join"
	EventProjectLeave = "project:leave"
	EventCameraCreate = "camera:create"
	EventCameraUpdate = "camera:update"
	EventCameraDelete = "camera:delete"
	EventCameraLive   = "camera:setLive"
	EventModelAdd     = "model:add"
	EventModelUpdate  = "model:update"
	EventModelDelete  = "model:delete"
)

// Server -> client events.
const (
	EventProjectData   = "project:data"
	EventCameraCreated = "camera:created"
	EventCameraUpdated = "camera:updated"
	EventCameraDeleted = "camera:deleted"
	EventCameraIsLive  = "camera:live"
	EventModelAdded    = "model:added"
	EventModelUpdated  = "model:updated"
	EventModelDeleted  = "model:deleted"
	EventUserJoined    = "user:joined"
	EventUserLeft      = "user:left"
	EventUsersOnline   = "users:online"
)

var (
	ErrEmptyEvent = errors.New("protocol: envelope has no event name")
)

// Envelope is the outer frame for every message on the wire.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode wraps a payload into an envelope and serialises it.
func Encode(event string, payload any) ([]byte, error) {
	if event == "" {
		return nil, ErrEmptyEvent
	}
	env := Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("protocol: encode %s payload: %w", event, err)
		}
		env.Data = data
	}
	return json.Marshal(env)
}

// Decode parses an envelope from raw frame bytes.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("protocol: decode envelope: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, ErrEmptyEvent
	}
	return env, nil
}

// Payload unmarshals the envelope payload into v.
func (e Envelope) Payload(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("protocol: event %s has no payload", e.Event)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("protocol: decode %s payload: %w", e.Event, err)
	}
	return nil
}
