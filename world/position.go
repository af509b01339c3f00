package world

// Position is a tile coordinate. Used as a map key for the terrain layer.
type Position struct {
	X int `json:"x" msgpack:"x"`
	Y int `json:"y" msgpack:"y"`
}

// Pos is shorthand for Position{X: x, Y: y}.
func Pos(x, y int) Position {
	return Position{X: x, Y: y}
}

// Moved returns the position offset by (dx, dy).
func (p Position) Moved(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Chebyshev returns max(|dx|, |dy|) between p and o.
func (p Position) Chebyshev(o Position) int {
	dx := abs(p.X - o.X)
	dy := abs(p.Y - o.Y)
	if dx > dy {
		return dx
	}
	return dy
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
