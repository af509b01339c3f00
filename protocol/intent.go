// Package protocol defines the messages exchanged with game clients and
// event observers, and decodes inbound frames into typed intents.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrInvalidIntent is returned for frames that are not valid JSON or do
	// not match the intent schema.
	ErrInvalidIntent = errors.New("invalid intent")
	// ErrUnknownIntent is returned for intent values Encode does not know.
	ErrUnknownIntent = errors.New("unknown intent")
)

// Intent is something a client asks the server to do.
type Intent interface {
	isIntent()
}

// Login binds the connection to a freshly spawned player entity.
type Login struct {
	Name string
}

// Move steps the player's entity by (DX, DY), each in [-1, 1].
type Move struct {
	DX int
	DY int
}

func (Login) isIntent() {}
func (Move) isIntent()  {}

const intentSchemaURL = "tileworld://schemas/intent.schema.json"

const intentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "oneOf": [
    {
      "type": "object",
      "required": ["Login"],
      "additionalProperties": false,
      "properties": {
        "Login": {
          "type": "object",
          "required": ["player_name"],
          "properties": {
            "player_name": {"type": "string", "minLength": 1, "maxLength": 32}
          }
        }
      }
    },
    {
      "type": "object",
      "required": ["Move"],
      "additionalProperties": false,
      "properties": {
        "Move": {
          "type": "object",
          "required": ["dx", "dy"],
          "properties": {
            "dx": {"type": "integer", "minimum": -1, "maximum": 1},
            "dy": {"type": "integer", "minimum": -1, "maximum": 1}
          }
        }
      }
    }
  ]
}`

var intentValidator = jsonschema.MustCompileString(intentSchemaURL, intentSchema)

type wireIntent struct {
	Login *wireLogin `json:"Login,omitempty"`
	Move  *wireMove  `json:"Move,omitempty"`
}

type wireLogin struct {
	PlayerName string `json:"player_name"`
}

type wireMove struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// Decode validates a raw client frame and returns the intent it carries.
func Decode(raw []byte) (Intent, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIntent, err)
	}
	if err := intentValidator.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIntent, err)
	}

	var w wireIntent
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIntent, err)
	}
	switch {
	case w.Login != nil:
		return Login{Name: w.Login.PlayerName}, nil
	case w.Move != nil:
		return Move{DX: w.Move.DX, DY: w.Move.DY}, nil
	}
	return nil, ErrInvalidIntent
}

// Encode is the inverse of Decode, used by clients.
func Encode(in Intent) ([]byte, error) {
	var w wireIntent
	switch v := in.(type) {
	case Login:
		w.Login = &wireLogin{PlayerName: v.Name}
	case Move:
		w.Move = &wireMove{DX: v.DX, DY: v.DY}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownIntent, in)
	}
	return json.Marshal(w)
}
