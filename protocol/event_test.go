package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tileworld/world"
)

func TestMarshalEvent_ExternallyTagged(t *testing.T) {
	raw, err := MarshalEvent(PlayerMoved{Name: "alice", From: world.Pos(1, 2), To: world.Pos(2, 2)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"PlayerMoved":{"name":"alice","from":{"x":1,"y":2},"to":{"x":2,"y":2}}}`, string(raw))

	raw, err = MarshalEvent(WorldTick{Tick: 7, ActivePlayers: 1, TotalEntities: 6})
	require.NoError(t, err)
	assert.JSONEq(t, `{"WorldTick":{"tick":7,"active_players":1,"total_entities":6}}`, string(raw))
}

func TestUnmarshalEvent(t *testing.T) {
	events := []GameEvent{
		PlayerConnected{Name: "a", ID: "u1"},
		PlayerDisconnected{Name: "a", ID: "u1"},
		PlayerMoved{Name: "a", From: world.Pos(1, 1), To: world.Pos(1, 2)},
		PlayerSpawned{Name: "a", Pos: world.Pos(10, 10)},
		WorldTick{Tick: 3, ActivePlayers: 2, TotalEntities: 7},
		CombatOccurred{Attacker: "NPC_0", Defender: "NPC_1", Pos: world.Pos(10, 10)},
	}
	for _, ev := range events {
		t.Run(ev.Kind(), func(t *testing.T) {
			raw, err := MarshalEvent(ev)
			require.NoError(t, err)
			got, err := UnmarshalEvent(raw)
			require.NoError(t, err)
			assert.Equal(t, ev, got)
		})
	}
}

func TestUnmarshalEvent_Errors(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":     `nope`,
		"unknown kind": `{"Teleported":{}}`,
		"no tag":       `{}`,
		"bad body":     `{"WorldTick":{"tick":"x"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := UnmarshalEvent([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestDecodeServerMessage(t *testing.T) {
	m, err := DecodeServerMessage([]byte(`{"success":false,"message":"no room","error":"no room"}`))
	require.NoError(t, err)
	assert.False(t, m.IsUpdate())
	require.NotNil(t, m.Success)
	assert.False(t, *m.Success)

	m, err = DecodeServerMessage([]byte(`{"tick":4,"viewport":{"tiles":[],"entities":[],"player_pos":{"x":1,"y":2},"width":1,"height":1}}`))
	require.NoError(t, err)
	assert.True(t, m.IsUpdate())
	assert.Equal(t, uint64(4), m.Tick)
	assert.Equal(t, world.Pos(1, 2), m.Viewport.Center)
}
