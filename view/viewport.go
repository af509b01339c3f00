// Package view turns world snapshots into renderer friendly grids.
package view

import (
	"sort"

	"tileworld/world"
)

// TileData is one drawn terrain cell.
type TileData struct {
	X       int    `json:"x" msgpack:"x"`
	Y       int    `json:"y" msgpack:"y"`
	Glyph   string `json:"glyph" msgpack:"glyph"`
	FG      string `json:"fg_color" msgpack:"fg_color"`
	BG      string `json:"bg_color" msgpack:"bg_color"`
	Terrain string `json:"terrain_type" msgpack:"terrain_type"`
}

// EntityData is one drawn entity.
type EntityData struct {
	X     int    `json:"x" msgpack:"x"`
	Y     int    `json:"y" msgpack:"y"`
	Glyph string `json:"glyph" msgpack:"glyph"`
	Color string `json:"color" msgpack:"color"`
	Name  string `json:"name" msgpack:"name"`
}

// Viewport is the square window a client renders, centered on Center.
// Tiles always holds Width*Height cells in row-major order.
type Viewport struct {
	Tiles    []TileData     `json:"tiles" msgpack:"tiles"`
	Entities []EntityData   `json:"entities" msgpack:"entities"`
	Center   world.Position `json:"player_pos" msgpack:"player_pos"`
	Width    int            `json:"width" msgpack:"width"`
	Height   int            `json:"height" msgpack:"height"`
}

const voidTerrain = "Void"

// Build resolves the entity's position and returns the viewport of the given
// radius around it. ok is false if the entity does not exist.
func Build(w *world.World, id world.EntityID, radius int) (Viewport, bool) {
	e, ok := w.Entity(id)
	if !ok {
		return Viewport{}, false
	}
	return Around(w, e.Pos, radius), true
}

// Around builds the viewport centered on an arbitrary position. Cells
// outside the world are filled with VoidGlyph. radius is clamped to
// [0, w.MaxViewRadius()].
func Around(w *world.World, center world.Position, radius int) Viewport {
	radius = min(max(radius, 0), w.MaxViewRadius())
	snap := w.VisibleSnapshot(center, radius)
	byPos := make(map[world.Position]world.Tile, len(snap.Tiles))
	for _, pt := range snap.Tiles {
		byPos[pt.Pos] = pt.Tile
	}

	side := 2*radius + 1
	vp := Viewport{
		Tiles:    make([]TileData, 0, side*side),
		Entities: make([]EntityData, 0, len(snap.Entities)),
		Center:   center,
		Width:    side,
		Height:   side,
	}
	for y := center.Y - radius; y <= center.Y+radius; y++ {
		for x := center.X - radius; x <= center.X+radius; x++ {
			t, ok := byPos[world.Position{X: x, Y: y}]
			if !ok {
				vp.Tiles = append(vp.Tiles, tileData(x, y, VoidGlyph, voidTerrain))
				continue
			}
			vp.Tiles = append(vp.Tiles, tileData(x, y, TerrainGlyph(t.Terrain), t.Terrain.String()))
		}
	}

	// Stable output makes diffs on the client side cheap.
	sort.Slice(snap.Entities, func(i, j int) bool { return snap.Entities[i].ID < snap.Entities[j].ID })
	for _, e := range snap.Entities {
		vp.Entities = append(vp.Entities, entityData(e))
	}
	return vp
}

// MapDump is the whole terrain layer, used by admin tooling.
type MapDump struct {
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Tiles  []TileData `json:"tiles"`
}

// FullMap renders every in-bounds tile of the world.
func FullMap(w *world.World) MapDump {
	width, height := w.Dimensions()
	snap := w.FullSnapshot()
	dump := MapDump{
		Width:  width,
		Height: height,
		Tiles:  make([]TileData, 0, len(snap.Tiles)),
	}
	for _, pt := range snap.Tiles {
		dump.Tiles = append(dump.Tiles, tileData(pt.Pos.X, pt.Pos.Y, TerrainGlyph(pt.Tile.Terrain), pt.Tile.Terrain.String()))
	}
	return dump
}

func tileData(x, y int, g Glyph, terrain string) TileData {
	return TileData{X: x, Y: y, Glyph: string(g.Char), FG: g.FG, BG: g.BG, Terrain: terrain}
}

func entityData(e world.Entity) EntityData {
	g := EntityGlyph(e.Kind)
	return EntityData{X: e.Pos.X, Y: e.Pos.Y, Glyph: string(g.Char), Color: g.FG, Name: e.Name}
}
