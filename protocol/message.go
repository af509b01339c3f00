package protocol

import (
	"encoding/json"

	"tileworld/view"
)

// GameUpdate carries one viewport for the receiving player.
type GameUpdate struct {
	Tick     uint64        `json:"tick" msgpack:"tick"`
	Viewport view.Viewport `json:"viewport" msgpack:"viewport"`
}

// ActionResult acknowledges a login. Error mirrors Message on failure so
// browser clients that only check for "error" still notice.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Failure builds an unsuccessful ActionResult.
func Failure(msg string) ActionResult {
	return ActionResult{Success: false, Message: msg, Error: msg}
}

// ServerMessage is what a game client receives: exactly one of the fields
// is meaningful, told apart by the presence of "viewport" or "success".
type ServerMessage struct {
	Tick     uint64         `json:"tick"`
	Viewport *view.Viewport `json:"viewport,omitempty"`
	Success  *bool          `json:"success,omitempty"`
	Message  string         `json:"message,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// DecodeServerMessage parses any frame the game socket sends.
func DecodeServerMessage(raw []byte) (ServerMessage, error) {
	var m ServerMessage
	err := json.Unmarshal(raw, &m)
	return m, err
}

// IsUpdate reports whether the message is a GameUpdate.
func (m ServerMessage) IsUpdate() bool { return m.Viewport != nil }
