// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import "encoding/json"

// MessageType indicates the websocket message format.
type MessageType int

const (
	// JSONMessage is a JSON-encoded message.
	JSONMessage MessageType = iota
	// BinaryMessage is raw binary data (e.g., audio chunks).
	BinaryMessage
)

// Message represents a message to be broadcast to clients.
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage creates a JSON message from pre-encoded bytes.
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage creates a binary message.
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}

// event is the envelope for reader stream frames. Subscribers switch
// on the event field.
type event struct {
	Event  string `json:"event"`
	Status string `json:"status,omitempty"`
	Turns  any    `json:"turns,omitempty"`
}

// NewTranscriptEvent wraps conversation turns for broadcast.
func NewTranscriptEvent(turns any) (Message, error) {
	data, err := json.Marshal(event{Event: "transcript", Turns: turns})
	if err != nil {
		return Message{}, err
	}
	return NewJSONMessage(data), nil
}

// NewStatusEvent wraps a session status change for broadcast.
func NewStatusEvent(status string) (Message, error) {
	data, err := json.Marshal(event{Event: "status", Status: status})
	if err != nil {
		return Message{}, err
	}
	return NewJSONMessage(data), nil
}
