// Package client renders game viewports in a terminal.
package client

import (
	"strings"

	"github.com/gdamore/tcell/v2"

	"tileworld/protocol"
	"tileworld/view"
)

// ParseColor turns "#rgb" or "#rrggbb" into a tcell color. Anything else
// yields tcell.ColorDefault.
func ParseColor(hex string) tcell.Color {
	if len(hex) == 4 && hex[0] == '#' {
		var b strings.Builder
		b.WriteByte('#')
		for i := 1; i < 4; i++ {
			b.WriteByte(hex[i])
			b.WriteByte(hex[i])
		}
		hex = b.String()
	}
	if len(hex) != 7 || hex[0] != '#' {
		return tcell.ColorDefault
	}
	return tcell.GetColor(strings.ToLower(hex))
}

// MoveForKey maps WASD, hjkl and the arrow keys to a one-step move.
func MoveForKey(key tcell.Key, r rune) (protocol.Move, bool) {
	switch key {
	case tcell.KeyUp:
		return protocol.Move{DX: 0, DY: -1}, true
	case tcell.KeyDown:
		return protocol.Move{DX: 0, DY: 1}, true
	case tcell.KeyLeft:
		return protocol.Move{DX: -1, DY: 0}, true
	case tcell.KeyRight:
		return protocol.Move{DX: 1, DY: 0}, true
	case tcell.KeyRune:
	default:
		return protocol.Move{}, false
	}
	switch r {
	case 'w', 'k':
		return protocol.Move{DX: 0, DY: -1}, true
	case 's', 'j':
		return protocol.Move{DX: 0, DY: 1}, true
	case 'a', 'h':
		return protocol.Move{DX: -1, DY: 0}, true
	case 'd', 'l':
		return protocol.Move{DX: 1, DY: 0}, true
	}
	return protocol.Move{}, false
}

// Quits reports whether the key ends the client.
func Quits(key tcell.Key, r rune) bool {
	return key == tcell.KeyEscape || key == tcell.KeyCtrlC || (key == tcell.KeyRune && r == 'q')
}

// Renderer draws viewports onto a screen, top-left anchored, with one
// status line underneath.
type Renderer struct {
	screen tcell.Screen
}

func NewRenderer(s tcell.Screen) *Renderer {
	return &Renderer{screen: s}
}

func (r *Renderer) Draw(vp view.Viewport, status string) {
	r.screen.Clear()

	for i, t := range vp.Tiles {
		if vp.Width == 0 {
			break
		}
		style := tcell.StyleDefault.Foreground(ParseColor(t.FG)).Background(ParseColor(t.BG))
		r.screen.SetContent(i%vp.Width, i/vp.Width, glyphRune(t.Glyph), nil, style)
	}

	left := vp.Center.X - vp.Width/2
	top := vp.Center.Y - vp.Height/2
	for _, e := range vp.Entities {
		x, y := e.X-left, e.Y-top
		if x < 0 || y < 0 || x >= vp.Width || y >= vp.Height {
			continue
		}
		_, _, st, _ := r.screen.GetContent(x, y)
		r.screen.SetContent(x, y, glyphRune(e.Glyph), nil, st.Foreground(ParseColor(e.Color)))
	}

	r.drawText(0, vp.Height, status)
	r.screen.Show()
}

// Message shows a line of text on an otherwise empty screen.
func (r *Renderer) Message(text string) {
	r.screen.Clear()
	r.drawText(0, 0, text)
	r.screen.Show()
}

func glyphRune(g string) rune {
	for _, ch := range g {
		return ch
	}
	return ' '
}

func (r *Renderer) drawText(x, y int, text string) {
	for i, ch := range []rune(text) {
		r.screen.SetContent(x+i, y, ch, nil, tcell.StyleDefault)
	}
}
