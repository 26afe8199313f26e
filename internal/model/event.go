package model

import (
	"encoding/json"
	"fmt"
)

// Relay event names.
const (
	EventMessage  = "message"
	EventResponse = "response"
)

// Envelope is a single relay frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// MessageEvent is sent by the client with the user's text.
type MessageEvent struct {
	Text         string `json:"text"`
	SystemPrompt string `json:"systemPrompt"`
}

// ResponseEvent is sent by the server with the reply text.
type ResponseEvent struct {
	Text string `json:"text"`
}

// NewEnvelope wraps a payload under an event name.
func NewEnvelope(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
