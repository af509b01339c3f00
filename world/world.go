// Package world holds the authoritative tile world: a static terrain layer,
// the entity layer, AI behaviors and the historical chronicle.
//
// A World is not safe for concurrent use. Callers serialize access with
// their own lock so that a mutation and the decision about what to publish
// afterwards happen in one critical section.
package world

import (
	"fmt"
	"math"
	"sort"
)

type World struct {
	terrain   map[Position]Tile
	entities  map[EntityID]*Entity
	behaviors map[EntityID]*AIBehavior
	factions  map[FactionID]*Faction
	history   []HistoricalEvent

	width   int
	height  int
	terrCfg TerrainConfig

	nextEntityID  EntityID
	nextFactionID FactionID
	nextEventID   uint64
	tick          uint64
}

// New generates a width x height world with DefaultTerrain.
func New(width, height int) *World {
	return NewWithTerrain(width, height, DefaultTerrain())
}

// NewWithTerrain generates a world using cfg. Generation is deterministic.
func NewWithTerrain(width, height int, cfg TerrainConfig) *World {
	w := &World{
		terrain:       make(map[Position]Tile, width*height),
		entities:      make(map[EntityID]*Entity),
		behaviors:     make(map[EntityID]*AIBehavior),
		factions:      make(map[FactionID]*Faction),
		width:         width,
		height:        height,
		terrCfg:       cfg,
		nextEntityID:  1,
		nextFactionID: 1,
		nextEventID:   1,
	}
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			w.terrain[Position{X: x, Y: y}] = cfg.tileAt(x, y, width, height)
		}
	}
	return w
}

// Dimensions returns (width, height).
func (w *World) Dimensions() (int, int) { return w.width, w.height }

// Terrain returns the generation parameters.
func (w *World) Terrain() TerrainConfig { return w.terrCfg }

// InBounds reports whether p lies in [0,width) x [0,height).
func (w *World) InBounds(p Position) bool {
	return p.X >= 0 && p.X < w.width && p.Y >= 0 && p.Y < w.height
}

// walkable treats a missing tile as blocked.
func (w *World) walkable(p Position) bool {
	if !w.InBounds(p) {
		return false
	}
	t, ok := w.terrain[p]
	return ok && t.Walkable
}

// SpawnEntity places a new entity at pos. It fails, without side effects,
// when pos is out of bounds or not walkable.
func (w *World) SpawnEntity(name string, pos Position, kind EntityKind) (EntityID, bool) {
	if !w.walkable(pos) {
		return 0, false
	}
	if w.nextEntityID == math.MaxUint32 {
		panic("world: entity id space exhausted")
	}
	id := w.nextEntityID
	w.nextEntityID++
	w.entities[id] = &Entity{ID: id, Name: name, Pos: pos, Kind: kind}
	return id, true
}

// MoveEntity shifts the entity by (dx, dy). Unknown ids, out of bounds and
// unwalkable destinations leave the entity untouched and return false.
func (w *World) MoveEntity(id EntityID, dx, dy int) bool {
	e, ok := w.entities[id]
	if !ok {
		return false
	}
	dst := e.Pos.Moved(dx, dy)
	if !w.walkable(dst) {
		return false
	}
	e.Pos = dst
	return true
}

// DespawnEntity removes the entity and its behavior.
func (w *World) DespawnEntity(id EntityID) bool {
	if _, ok := w.entities[id]; !ok {
		return false
	}
	delete(w.entities, id)
	delete(w.behaviors, id)
	return true
}

// Tile returns the terrain at p; ok is false outside the generated area.
func (w *World) Tile(p Position) (Tile, bool) {
	t, ok := w.terrain[p]
	return t, ok
}

// Entity returns a copy of the entity with the given id.
func (w *World) Entity(id EntityID) (Entity, bool) {
	e, ok := w.entities[id]
	if !ok {
		return Entity{}, false
	}
	return *e, true
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int { return len(w.entities) }

// EntityIDs returns live entity ids in ascending order.
func (w *World) EntityIDs() []EntityID {
	ids := make([]EntityID, 0, len(w.entities))
	for id := range w.entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AllEntities returns copies of every live entity ordered by id.
func (w *World) AllEntities() []Entity {
	ids := w.EntityIDs()
	out := make([]Entity, 0, len(ids))
	for _, id := range ids {
		out = append(out, *w.entities[id])
	}
	return out
}

// EntitiesInRegion returns entities whose Chebyshev distance to center is at
// most radius. Order is unspecified.
func (w *World) EntitiesInRegion(center Position, radius int) []Entity {
	var out []Entity
	for _, e := range w.entities {
		if e.Pos.Chebyshev(center) <= radius {
			out = append(out, *e)
		}
	}
	return out
}

// PlacedTile pairs a tile with its coordinate.
type PlacedTile struct {
	Pos  Position
	Tile Tile
}

// Snapshot is what can be seen from a square window of the world.
type Snapshot struct {
	Tiles    []PlacedTile
	Entities []Entity
}

// MaxViewRadius is the smallest radius whose square covers the whole map
// from any in-bounds center.
func (w *World) MaxViewRadius() int {
	return max(w.width, w.height)
}

// VisibleSnapshot collects every in-bounds tile of the square of the given
// radius around center, row by row, plus the entities inside it. The walk is
// clipped to the map, so its cost never exceeds width*height.
func (w *World) VisibleSnapshot(center Position, radius int) Snapshot {
	var snap Snapshot
	if radius < 0 {
		return snap
	}
	x0, x1 := clampSpan(center.X, radius, w.width)
	y0, y1 := clampSpan(center.Y, radius, w.height)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			p := Position{X: x, Y: y}
			if t, ok := w.terrain[p]; ok {
				snap.Tiles = append(snap.Tiles, PlacedTile{Pos: p, Tile: t})
			}
		}
	}
	snap.Entities = w.EntitiesInRegion(center, radius)
	return snap
}

// clampSpan returns [c-r, c+r] intersected with [0, size-1]. An empty
// intersection comes back as lo > hi.
func clampSpan(c, r, size int) (lo, hi int) {
	lo, hi = 0, size-1
	if c > r {
		lo = c - r
	}
	if c < size-1-r {
		hi = c + r
	}
	return lo, hi
}

// FullSnapshot is VisibleSnapshot with a window covering the whole map.
func (w *World) FullSnapshot() Snapshot {
	span := w.width
	if w.height > span {
		span = w.height
	}
	return w.VisibleSnapshot(Position{X: w.width / 2, Y: w.height / 2}, span/2+1)
}

// SeedNPCs spawns n wandering NPCs along the diagonal starting at (5,5).
// Blocked positions are skipped. It returns the ids that were spawned.
func (w *World) SeedNPCs(n int) []EntityID {
	var ids []EntityID
	for i := 0; i < n; i++ {
		id, ok := w.SpawnEntity(fmt.Sprintf("NPC_%d", i), Position{X: 5 + i, Y: 5 + i}, NPC)
		if !ok {
			continue
		}
		w.behaviors[id] = defaultNPCBehavior()
		ids = append(ids, id)
	}
	return ids
}

// SetBehavior attaches b to an existing entity.
func (w *World) SetBehavior(id EntityID, b AIBehavior) bool {
	if _, ok := w.entities[id]; !ok {
		return false
	}
	w.behaviors[id] = &b
	return true
}

// Behavior returns a copy of the entity's AI behavior.
func (w *World) Behavior(id EntityID) (AIBehavior, bool) {
	b, ok := w.behaviors[id]
	if !ok {
		return AIBehavior{}, false
	}
	c := *b
	c.Memory = append([]Memory(nil), b.Memory...)
	return c, true
}

// AddFaction registers a faction and returns its id.
func (w *World) AddFaction(name string, kind FactionKind) FactionID {
	id := w.nextFactionID
	w.nextFactionID++
	w.factions[id] = &Faction{
		ID:        id,
		Name:      name,
		Kind:      kind,
		Territory: make(map[Position]struct{}),
		Relations: make(map[FactionID]Relation),
	}
	return id
}

// Factions returns copies of every faction ordered by id.
func (w *World) Factions() []Faction {
	out := make([]Faction, 0, len(w.factions))
	for _, f := range w.factions {
		out = append(out, f.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CurrentTick returns the number of ticks processed.
func (w *World) CurrentTick() uint64 { return w.tick }
