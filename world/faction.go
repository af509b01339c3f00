package world

import (
	"encoding/json"
	"sort"
)

// FactionID identifies a faction.
type FactionID uint32

type FactionKind uint8

const (
	Tribe FactionKind = iota
	Kingdom
	Guild
)

func (k FactionKind) String() string {
	switch k {
	case Tribe:
		return "Tribe"
	case Kingdom:
		return "Kingdom"
	case Guild:
		return "Guild"
	default:
		return "Unknown"
	}
}

// Relation is one faction's stance toward another.
type Relation uint8

const (
	Allied Relation = iota
	Friendly
	Neutral
	Hostile
	War
)

func (r Relation) String() string {
	switch r {
	case Allied:
		return "Allied"
	case Friendly:
		return "Friendly"
	case Neutral:
		return "Neutral"
	case Hostile:
		return "Hostile"
	case War:
		return "War"
	default:
		return "Unknown"
	}
}

// Faction is a data shape only; no diplomacy runs against it yet.
type Faction struct {
	ID          FactionID
	Name        string
	Kind        FactionKind
	Territory   map[Position]struct{}
	MemberCount int
	Relations   map[FactionID]Relation
}

// MarshalJSON renders Territory as a row-major sorted list of positions.
func (f Faction) MarshalJSON() ([]byte, error) {
	territory := make([]Position, 0, len(f.Territory))
	for p := range f.Territory {
		territory = append(territory, p)
	}
	sort.Slice(territory, func(i, j int) bool {
		if territory[i].Y != territory[j].Y {
			return territory[i].Y < territory[j].Y
		}
		return territory[i].X < territory[j].X
	})
	relations := make(map[FactionID]string, len(f.Relations))
	for id, r := range f.Relations {
		relations[id] = r.String()
	}
	return json.Marshal(struct {
		ID          FactionID            `json:"id"`
		Name        string               `json:"name"`
		Kind        string               `json:"kind"`
		Territory   []Position           `json:"territory"`
		MemberCount int                  `json:"member_count"`
		Relations   map[FactionID]string `json:"relations"`
	}{f.ID, f.Name, f.Kind.String(), territory, f.MemberCount, relations})
}

func (f *Faction) clone() Faction {
	c := *f
	c.Territory = make(map[Position]struct{}, len(f.Territory))
	for p := range f.Territory {
		c.Territory[p] = struct{}{}
	}
	c.Relations = make(map[FactionID]Relation, len(f.Relations))
	for id, r := range f.Relations {
		c.Relations[id] = r
	}
	return c
}
