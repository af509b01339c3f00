package world

// TerrainKind is the base layer material of a tile.
type TerrainKind uint8

const (
	Grass TerrainKind = iota
	Water
	Stone
	Sand
)

func (k TerrainKind) String() string {
	switch k {
	case Grass:
		return "Grass"
	case Water:
		return "Water"
	case Stone:
		return "Stone"
	case Sand:
		return "Sand"
	default:
		return "Unknown"
	}
}

// Tile is immutable once the terrain layer is generated.
type Tile struct {
	Terrain  TerrainKind `json:"terrain"`
	Walkable bool        `json:"walkable"`
}

func GrassTile() Tile { return Tile{Terrain: Grass, Walkable: true} }
func WaterTile() Tile { return Tile{Terrain: Water, Walkable: false} }
func StoneTile() Tile { return Tile{Terrain: Stone, Walkable: true} }

// TerrainConfig controls procedural generation.
//
// A tile is Water when its squared distance to the map center is below
// LakeRadiusSq, Stone when it lies within Border tiles of an edge, and Grass
// otherwise. Water wins over Stone.
type TerrainConfig struct {
	LakeRadiusSq int `yaml:"lake_radius_sq"`
	Border       int `yaml:"border"`
}

// DefaultTerrain is a lake of squared radius < 9 and a two tile stone border.
func DefaultTerrain() TerrainConfig {
	return TerrainConfig{LakeRadiusSq: 9, Border: 2}
}

func (c TerrainConfig) tileAt(x, y, width, height int) Tile {
	cx, cy := width/2, height/2
	dx, dy := x-cx, y-cy
	if dx*dx+dy*dy < c.LakeRadiusSq {
		return WaterTile()
	}
	if x < c.Border || x >= width-c.Border || y < c.Border || y >= height-c.Border {
		return StoneTile()
	}
	return GrassTile()
}
