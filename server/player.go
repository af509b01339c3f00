package server

import (
	"github.com/google/uuid"

	"tileworld/world"
)

// PlayerSession binds a logged-in player to its entity. It never holds the
// entity itself, only the id.
type PlayerSession struct {
	ID       uuid.UUID
	EntityID world.EntityID
	Name     string
}

// PlayerInfo is the admin view of a connected player.
type PlayerInfo struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	EntityID world.EntityID  `json:"entity_id"`
	Position *world.Position `json:"position"`
}

// EntityInfo is the admin view of any entity.
type EntityInfo struct {
	ID       world.EntityID `json:"id"`
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Position world.Position `json:"position"`
}
