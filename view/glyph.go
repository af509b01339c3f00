package view

import "tileworld/world"

// Glyph is how one cell is drawn.
type Glyph struct {
	Char rune
	FG   string
	BG   string
}

var (
	terrainGlyphs = map[world.TerrainKind]Glyph{
		world.Grass: {Char: '░', FG: "#4a4", BG: "#232"},
		world.Water: {Char: '≈', FG: "#24a", BG: "#012"},
		world.Stone: {Char: '█', FG: "#888", BG: "#444"},
		world.Sand:  {Char: '·', FG: "#dc6", BG: "#a94"},
	}

	entityGlyphs = map[world.EntityKind]Glyph{
		world.Player: {Char: '@', FG: "#ff0"},
		world.NPC:    {Char: 'H', FG: "#0af"},
		world.Animal: {Char: 'd', FG: "#fa0"},
	}

	// VoidGlyph marks cells outside the generated world.
	VoidGlyph = Glyph{Char: ' ', FG: "#000", BG: "#000"}
)

// TerrainGlyph returns the glyph for a terrain kind.
func TerrainGlyph(k world.TerrainKind) Glyph {
	if g, ok := terrainGlyphs[k]; ok {
		return g
	}
	return VoidGlyph
}

// EntityGlyph returns the glyph for an entity kind. Only FG is meaningful.
func EntityGlyph(k world.EntityKind) Glyph {
	if g, ok := entityGlyphs[k]; ok {
		return g
	}
	return Glyph{Char: '?', FG: "#fff"}
}
