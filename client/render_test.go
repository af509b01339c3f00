package client

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tileworld/protocol"
	"tileworld/view"
	"tileworld/world"
)

func TestParseColor(t *testing.T) {
	tests := map[string]tcell.Color{
		"#4a4":    tcell.NewRGBColor(0x44, 0xaa, 0x44),
		"#44AA44": tcell.NewRGBColor(0x44, 0xaa, 0x44),
		"#000":    tcell.NewRGBColor(0, 0, 0),
		"#ff0":    tcell.NewRGBColor(0xff, 0xff, 0),
		"red":     tcell.ColorDefault,
		"":        tcell.ColorDefault,
		"#12345":  tcell.ColorDefault,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ParseColor(in))
		})
	}
}

func TestMoveForKey(t *testing.T) {
	tests := []struct {
		key  tcell.Key
		r    rune
		want protocol.Move
		ok   bool
	}{
		{tcell.KeyRune, 'w', protocol.Move{DY: -1}, true},
		{tcell.KeyRune, 'k', protocol.Move{DY: -1}, true},
		{tcell.KeyRune, 's', protocol.Move{DY: 1}, true},
		{tcell.KeyRune, 'j', protocol.Move{DY: 1}, true},
		{tcell.KeyRune, 'a', protocol.Move{DX: -1}, true},
		{tcell.KeyRune, 'h', protocol.Move{DX: -1}, true},
		{tcell.KeyRune, 'd', protocol.Move{DX: 1}, true},
		{tcell.KeyRune, 'l', protocol.Move{DX: 1}, true},
		{tcell.KeyUp, 0, protocol.Move{DY: -1}, true},
		{tcell.KeyDown, 0, protocol.Move{DY: 1}, true},
		{tcell.KeyLeft, 0, protocol.Move{DX: -1}, true},
		{tcell.KeyRight, 0, protocol.Move{DX: 1}, true},
		{tcell.KeyRune, 'x', protocol.Move{}, false},
		{tcell.KeyEnter, 0, protocol.Move{}, false},
	}
	for _, tt := range tests {
		got, ok := MoveForKey(tt.key, tt.r)
		assert.Equal(t, tt.ok, ok, "key=%v rune=%q", tt.key, tt.r)
		assert.Equal(t, tt.want, got, "key=%v rune=%q", tt.key, tt.r)
	}
}

func TestQuits(t *testing.T) {
	assert.True(t, Quits(tcell.KeyEscape, 0))
	assert.True(t, Quits(tcell.KeyCtrlC, 0))
	assert.True(t, Quits(tcell.KeyRune, 'q'))
	assert.False(t, Quits(tcell.KeyRune, 'w'))
}

func TestRenderer_Draw(t *testing.T) {
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	defer s.Fini()
	s.SetSize(20, 10)

	w := world.New(20, 20)
	id, ok := w.SpawnEntity("alice", world.Pos(1, 1), world.Player)
	require.True(t, ok)
	vp, ok := view.Build(w, id, 2)
	require.True(t, ok)

	NewRenderer(s).Draw(vp, "tick 0")

	// (1,1) is the center cell: the player glyph.
	ch, _, _, _ := s.GetContent(2, 2)
	assert.Equal(t, '@', ch)
	// (-1,-1) lies outside the world.
	ch, _, _, _ = s.GetContent(0, 0)
	assert.Equal(t, ' ', ch)
	// (0,0) is border stone.
	ch, _, _, _ = s.GetContent(1, 1)
	assert.Equal(t, '█', ch)

	ch, _, _, _ = s.GetContent(0, vp.Height)
	assert.Equal(t, 't', ch)
}
