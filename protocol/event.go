package protocol

import (
	"encoding/json"
	"fmt"

	"tileworld/world"
)

// Event kinds, also used as the tag in the external JSON encoding.
const (
	KindPlayerConnected    = "PlayerConnected"
	KindPlayerDisconnected = "PlayerDisconnected"
	KindPlayerMoved        = "PlayerMoved"
	KindPlayerSpawned      = "PlayerSpawned"
	KindWorldTick          = "WorldTick"
	KindCombatOccurred     = "CombatOccurred"
)

// GameEvent is a discrete happening published to observers.
type GameEvent interface {
	Kind() string
}

type PlayerConnected struct {
	Name string `json:"name" msgpack:"name"`
	ID   string `json:"id" msgpack:"id"`
}

type PlayerDisconnected struct {
	Name string `json:"name" msgpack:"name"`
	ID   string `json:"id" msgpack:"id"`
}

type PlayerMoved struct {
	Name string         `json:"name" msgpack:"name"`
	From world.Position `json:"from" msgpack:"from"`
	To   world.Position `json:"to" msgpack:"to"`
}

type PlayerSpawned struct {
	Name string         `json:"name" msgpack:"name"`
	Pos  world.Position `json:"pos" msgpack:"pos"`
}

// WorldTick summarizes one simulation step.
type WorldTick struct {
	Tick          uint64 `json:"tick" msgpack:"tick"`
	ActivePlayers int    `json:"active_players" msgpack:"active_players"`
	TotalEntities int    `json:"total_entities" msgpack:"total_entities"`
}

type CombatOccurred struct {
	Attacker string         `json:"attacker" msgpack:"attacker"`
	Defender string         `json:"defender" msgpack:"defender"`
	Pos      world.Position `json:"pos" msgpack:"pos"`
}

func (PlayerConnected) Kind() string    { return KindPlayerConnected }
func (PlayerDisconnected) Kind() string { return KindPlayerDisconnected }
func (PlayerMoved) Kind() string        { return KindPlayerMoved }
func (PlayerSpawned) Kind() string      { return KindPlayerSpawned }
func (WorldTick) Kind() string          { return KindWorldTick }
func (CombatOccurred) Kind() string     { return KindCombatOccurred }

// MarshalEvent encodes ev externally tagged: {"PlayerMoved":{...}}.
func MarshalEvent(ev GameEvent) ([]byte, error) {
	return json.Marshal(map[string]GameEvent{ev.Kind(): ev})
}

// UnmarshalEvent decodes the output of MarshalEvent.
func UnmarshalEvent(raw []byte) (GameEvent, error) {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return nil, err
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("event: expected one tag, got %d", len(tagged))
	}
	for kind, body := range tagged {
		ev, err := NewEvent(kind)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(body, ev); err != nil {
			return nil, fmt.Errorf("event %s: %w", kind, err)
		}
		return Elem(ev), nil
	}
	return nil, nil
}

// NewEvent returns a pointer to a zero event of the given kind, ready to be
// decoded into.
func NewEvent(kind string) (GameEvent, error) {
	switch kind {
	case KindPlayerConnected:
		return &PlayerConnected{}, nil
	case KindPlayerDisconnected:
		return &PlayerDisconnected{}, nil
	case KindPlayerMoved:
		return &PlayerMoved{}, nil
	case KindPlayerSpawned:
		return &PlayerSpawned{}, nil
	case KindWorldTick:
		return &WorldTick{}, nil
	case KindCombatOccurred:
		return &CombatOccurred{}, nil
	}
	return nil, fmt.Errorf("event: unknown kind %q", kind)
}

// Elem turns an event pointer from NewEvent back into a value. Values pass
// through unchanged.
func Elem(ev GameEvent) GameEvent {
	switch v := ev.(type) {
	case *PlayerConnected:
		return *v
	case *PlayerDisconnected:
		return *v
	case *PlayerMoved:
		return *v
	case *PlayerSpawned:
		return *v
	case *WorldTick:
		return *v
	case *CombatOccurred:
		return *v
	}
	return ev
}
