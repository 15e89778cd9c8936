// Package protocol defines the WebSocket message protocol between clients and the server.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message types from client to server
const (
	TypeJoinSessionGroup  = "JoinSessionGroup"
	TypeLeaveSessionGroup = "LeaveSessionGroup"
)

// Message types from server to the requesting client only
const (
	TypeJoinedSessionGroup = "JoinedSessionGroup"
	TypeLeftSessionGroup   = "LeftSessionGroup"
	TypeSessionError       = "SessionError"
)

// BaseMessage contains common fields for all messages.
type BaseMessage struct {
	Type        string `json:"type"`
	ID          string `json:"id,omitempty"`
	Ts          int64  `json:"ts"`
	SessionCode string `json:"sessionCode,omitempty"`
}

// Event is a session event fanned out to every member of a session group.
type Event struct {
	BaseMessage
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SessionGroupMessage is sent by a client to join or leave a session group,
// and echoed back as the acknowledgement.
type SessionGroupMessage struct {
	BaseMessage
}

// SessionErrorMessage is sent to a single client when a command fails.
type SessionErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrorCodeInvalidMessage     = "invalid_message"
	ErrorCodeSessionUnavailable = "session_unavailable"
	ErrorCodeInternalError      = "internal_error"
)

// NewBase stamps a message of the given type with a fresh id and the current time.
func NewBase(msgType, sessionCode string) BaseMessage {
	return BaseMessage{
		Type:        msgType,
		ID:          uuid.NewString(),
		Ts:          time.Now().UnixMilli(),
		SessionCode: sessionCode,
	}
}

// EncodeEvent marshals payload into an event envelope.
func EncodeEvent(sessionCode, eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return json.Marshal(Event{
		BaseMessage: NewBase(eventType, sessionCode),
		Payload:     raw,
	})
}
