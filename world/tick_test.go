package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTick_Counter(t *testing.T) {
	w := New(20, 20)
	w.Tick()
	assert.Equal(t, uint64(1), w.CurrentTick())
	w.Tick()
	assert.Equal(t, uint64(2), w.CurrentTick())
}

func TestTick_WanderStep(t *testing.T) {
	w := New(30, 30)
	id, ok := w.SpawnEntity("npc", Pos(6, 6), NPC)
	require.True(t, ok)
	require.True(t, w.SetBehavior(id, AIBehavior{Goal: Wander{}}))

	pos := Pos(6, 6)
	for tick := uint64(1); tick <= 9; tick++ {
		w.Tick()
		pos = pos.Moved(int(tick%3)-1, int((tick/3)%3)-1)
		e, _ := w.Entity(id)
		assert.Equal(t, pos, e.Pos, "tick %d", tick)
	}
}

func TestTick_WanderBlockedIsRemembered(t *testing.T) {
	// Tick 1 steps (0,-1); an NPC on the top row cannot take it.
	w := New(10, 10)
	id, ok := w.SpawnEntity("npc", Pos(4, 0), NPC)
	require.True(t, ok)
	require.True(t, w.SetBehavior(id, AIBehavior{Goal: Wander{}}))

	events := w.Tick()
	assert.Empty(t, events)
	e, _ := w.Entity(id)
	assert.Equal(t, Pos(4, 0), e.Pos)

	b, ok := w.Behavior(id)
	require.True(t, ok)
	assert.Equal(t, []Memory{{Event: "wander step blocked", Tick: 1}}, b.Memory)
}

func TestAIBehavior_RememberForgetsOldest(t *testing.T) {
	var b AIBehavior
	for i := uint64(1); i <= maxMemories+4; i++ {
		b.Remember("seen", i)
	}
	require.Len(t, b.Memory, maxMemories)
	assert.Equal(t, uint64(5), b.Memory[0].Tick)
	assert.Equal(t, uint64(maxMemories+4), b.Memory[maxMemories-1].Tick)
}

func TestTick_Patrol(t *testing.T) {
	w := New(40, 40)
	id, ok := w.SpawnEntity("guard", Pos(5, 5), NPC)
	require.True(t, ok)
	require.True(t, w.SetBehavior(id, AIBehavior{Goal: Patrol{Start: Pos(3, 5), End: Pos(9, 8)}}))

	// Ticks 1..49 head for Start.
	w.Tick()
	e, _ := w.Entity(id)
	assert.Equal(t, Pos(4, 5), e.Pos)
	for i := 0; i < 48; i++ {
		w.Tick()
	}
	e, _ = w.Entity(id)
	assert.Equal(t, Pos(3, 5), e.Pos)

	// Tick 50 switches to End with a diagonal step.
	w.Tick()
	e, _ = w.Entity(id)
	assert.Equal(t, Pos(4, 6), e.Pos)
	for i := 0; i < 10; i++ {
		w.Tick()
	}
	e, _ = w.Entity(id)
	assert.Equal(t, Pos(9, 8), e.Pos)
}

func TestTick_InertGoalsKeepState(t *testing.T) {
	goals := map[string]Goal{
		"hunt":  Hunt{},
		"flee":  Flee{},
		"guard": Guard{Pos: Pos(1, 1)},
		"sleep": Sleep{},
	}

	for name, g := range goals {
		t.Run(name, func(t *testing.T) {
			w := New(20, 20)
			id, _ := w.SpawnEntity("npc", Pos(6, 6), NPC)
			require.True(t, w.SetBehavior(id, AIBehavior{Goal: g}))
			for i := 0; i < 10; i++ {
				w.Tick()
			}
			e, _ := w.Entity(id)
			assert.Equal(t, Pos(6, 6), e.Pos)
			b, _ := w.Behavior(id)
			assert.Equal(t, g, b.Goal)
		})
	}
}

func TestTick_CombatEvent(t *testing.T) {
	w := New(20, 20)
	a, _ := w.SpawnEntity("a", Pos(3, 3), Player)
	b, _ := w.SpawnEntity("b", Pos(4, 3), Player)
	_, _ = w.SpawnEntity("c", Pos(5, 3), Player)

	var produced []HistoricalEvent
	for i := 0; i < 100; i++ {
		produced = append(produced, w.Tick()...)
	}
	require.Len(t, produced, 1)
	ev := produced[0]
	assert.Equal(t, Combat, ev.Kind)
	assert.Equal(t, uint64(100), ev.Tick)
	assert.Equal(t, []EntityID{a, b}, ev.Participants)
	assert.Equal(t, Pos(10, 10), ev.Location)
	assert.Equal(t, skirmishDescription, ev.Description)

	history := w.HistoricalEvents(10)
	require.Len(t, history, 1)
	assert.Equal(t, ev, history[0])
}

func TestTick_NoCombatWithOneEntity(t *testing.T) {
	w := New(20, 20)
	_, _ = w.SpawnEntity("a", Pos(3, 3), Player)
	for i := 0; i < 200; i++ {
		assert.Empty(t, w.Tick())
	}
	assert.Empty(t, w.HistoricalEvents(10))
}

func TestTick_EventIDsIncrease(t *testing.T) {
	w := New(20, 20)
	_, _ = w.SpawnEntity("a", Pos(3, 3), Player)
	_, _ = w.SpawnEntity("b", Pos(4, 3), Player)
	for i := 0; i < 300; i++ {
		w.Tick()
	}
	h := w.HistoricalEvents(10)
	require.Len(t, h, 3)
	for i := 1; i < len(h); i++ {
		assert.Greater(t, h[i].ID, h[i-1].ID)
	}
}
