package world

import "fmt"

// EntityID is assigned by the world and never reused.
type EntityID uint32

// EntityKind classifies an entity for rendering and AI.
type EntityKind uint8

const (
	Player EntityKind = iota
	NPC
	Animal
)

func (k EntityKind) String() string {
	switch k {
	case Player:
		return "Player"
	case NPC:
		return "NPC"
	case Animal:
		return "Animal"
	default:
		return fmt.Sprintf("EntityKind(%d)", uint8(k))
	}
}

// Entity is a creature occupying one tile. Callers only ever see copies.
type Entity struct {
	ID   EntityID   `json:"id"`
	Name string     `json:"name"`
	Pos  Position   `json:"position"`
	Kind EntityKind `json:"kind"`
}
