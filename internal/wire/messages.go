// Package wire defines the WebSocket protocol for compile sessions.
package wire

import (
	"encoding/json"

	"github.com/matthewbaird/vegalite/internal/compile"
	"github.com/matthewbaird/vegalite/internal/vega"
)

// Client message types.
const (
	TypeCompile   = "compile"
	TypeValidate  = "validate"
	TypeConfigure = "configure"
	TypePing      = "ping"
)

// Server message types.
const (
	TypeSession = "session"
	TypeResult  = "result"
	TypeValid   = "valid"
	TypeError   = "error"
	TypePong    = "pong"
)

// ClientMessage is the envelope for all client-to-server WebSocket messages.
type ClientMessage struct {
	Type string          `json:"type"`
	ID   string          `json:"id"` // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// SpecData is the payload of "compile" and "validate" messages.
type SpecData struct {
	Spec json.RawMessage `json:"spec"`
}

// ConfigureData is the payload of "configure" messages. Config is overlaid
// on the session's configuration for every later compile.
type ConfigureData struct {
	Config json.RawMessage `json:"config"`
}

// ServerMessage is the envelope for all server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// SessionData carries session information.
type SessionData struct {
	SessionID string `json:"session_id"`
}

// ResultData carries a compiled specification.
type ResultData struct {
	Spec     *vega.Spec        `json:"spec"`
	Warnings []compile.Warning `json:"warnings,omitempty"`
	Elapsed  string            `json:"elapsed"`
}

// ValidData answers a "validate" message that passed.
type ValidData struct {
	Kind string `json:"kind"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Path       string `json:"path,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}
