package server

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tileworld/protocol"
	"tileworld/world"
)

func TestSession_Lifecycle(t *testing.T) {
	g := newTestGame(t)
	s := NewSession(g)
	assert.Equal(t, StateUnauthenticated, s.State())
	assert.Zero(t, s.EntityID())

	s.StartUpdates()
	assert.Zero(t, s.UpdateTarget())

	replies, err := s.Handle(protocol.Move{DX: 1})
	assert.ErrorIs(t, err, ErrNotActive)
	assert.Empty(t, replies)
	assert.Zero(t, g.Stats().TotalEntities)

	replies, err = s.Handle(protocol.Login{Name: "alice"})
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, protocol.ActionResult{Success: true, Message: "Welcome, alice!"}, replies[0])
	upd, ok := replies[1].(protocol.GameUpdate)
	require.True(t, ok)
	assert.Equal(t, world.Pos(10, 10), upd.Viewport.Center)
	assert.Equal(t, StateActive, s.State())
	assert.NotZero(t, s.EntityID())
	assert.Zero(t, s.UpdateTarget(), "updates wait for StartUpdates")
	s.StartUpdates()
	assert.Equal(t, s.EntityID(), s.UpdateTarget())

	replies, err = s.Handle(protocol.Move{DX: 1, DY: -1})
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, world.Pos(11, 9), replies[0].(protocol.GameUpdate).Viewport.Center)

	replies, err = s.Handle(protocol.Login{Name: "again"})
	assert.ErrorIs(t, err, ErrAlreadyActive)
	require.Len(t, replies, 1)
	assert.False(t, replies[0].(protocol.ActionResult).Success)
	assert.Equal(t, 1, g.Stats().TotalEntities)

	assert.True(t, s.Close())
	assert.False(t, s.Close())
	assert.Equal(t, StateClosed, s.State())
	assert.Zero(t, s.EntityID())
	assert.Zero(t, s.UpdateTarget())
	assert.Zero(t, g.Stats().TotalEntities)
	s.StartUpdates()
	assert.Zero(t, s.UpdateTarget())

	_, err = s.Handle(protocol.Move{DX: 1})
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSession_LoginFailureStaysUnauthenticated(t *testing.T) {
	// (25,25) is the middle of the lake.
	g := newTestGame(t, func(o *Options) { o.Spawn = world.Pos(25, 25) })
	s := NewSession(g)

	replies, err := s.Handle(protocol.Login{Name: "alice"})
	require.NoError(t, err)
	require.Len(t, replies, 1)
	res := replies[0].(protocol.ActionResult)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.Equal(t, StateUnauthenticated, s.State())
	assert.EqualValues(t, 1, g.Metrics().LoginsFailed)
}

func TestSession_CloseUnauthenticatedPublishesNothing(t *testing.T) {
	g := newTestGame(t)
	sub := g.SubscribeEvents()
	s := NewSession(g)
	assert.True(t, s.Close())
	assert.Empty(t, drain(sub))
}

func TestSession_ConcurrentCloseDisconnectsOnce(t *testing.T) {
	g := newTestGame(t)
	s := NewSession(g)
	_, err := s.Handle(protocol.Login{Name: "alice"})
	require.NoError(t, err)
	sub := g.SubscribeEvents()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Close() {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
	assert.Len(t, eventsOfKind(drain(sub), protocol.KindPlayerDisconnected), 1)
	assert.Empty(t, g.Players())
}

func TestSession_HandleFrame(t *testing.T) {
	g := newTestGame(t)
	s := NewSession(g)

	_, err := s.HandleFrame([]byte(`{"Teleport":{}}`))
	assert.Error(t, err)
	_, err = s.HandleFrame([]byte(`not json`))
	assert.Error(t, err)
	assert.EqualValues(t, 2, g.Metrics().IntentsRejected)

	replies, err := s.HandleFrame([]byte(`{"Login":{"player_name":"alice"}}`))
	require.NoError(t, err)
	assert.Len(t, replies, 2)
	assert.EqualValues(t, 1, g.Metrics().IntentsAccepted)
}

func TestSessionState_String(t *testing.T) {
	assert.Equal(t, "Unauthenticated", StateUnauthenticated.String())
	assert.Equal(t, "Active", StateActive.String())
	assert.Equal(t, "Closed", StateClosed.String())
	assert.Equal(t, "SessionState(9)", SessionState(9).String())
}

func TestSession_ConcurrentMovesWhileTicking(t *testing.T) {
	const (
		players = 8
		moves   = 300
	)
	g := newTestGame(t, func(o *Options) { o.EventBuffer = 200_000 })
	g.SeedNPCs(5)
	events := g.SubscribeEvents()

	sessions := make([]*Session, players)
	for i := range sessions {
		sessions[i] = NewSession(g)
		_, err := sessions[i].Handle(protocol.Login{Name: fmt.Sprintf("p%d", i)})
		require.NoError(t, err)
	}

	stop := make(chan struct{})
	ticked := make(chan struct{})
	go func() {
		defer close(ticked)
		for {
			select {
			case <-stop:
				return
			default:
				g.Tick()
				time.Sleep(50 * time.Microsecond)
			}
		}
	}()

	var wg sync.WaitGroup
	for i, s := range sessions {
		wg.Add(1)
		go func(seed int64, s *Session) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for j := 0; j < moves; j++ {
				replies, err := s.Handle(protocol.Move{DX: rng.Intn(3) - 1, DY: rng.Intn(3) - 1})
				if !assert.NoError(t, err) {
					return
				}
				assert.Len(t, replies, 1)
			}
		}(int64(i+1), s)
	}
	wg.Wait()
	close(stop)
	<-ticked

	for _, e := range g.Entities() {
		g.mu.Lock()
		tile, ok := g.world.Tile(e.Position)
		g.mu.Unlock()
		require.True(t, ok, "%s out of bounds at %v", e.Name, e.Position)
		assert.True(t, tile.Walkable, "%s on unwalkable %v", e.Name, e.Position)
	}

	// Each player's PlayerMoved events chain without gaps from the spawn
	// point to where the player ended up.
	last := make(map[string]world.Position, players)
	for _, ev := range drain(events) {
		m, ok := ev.(protocol.PlayerMoved)
		if !ok {
			continue
		}
		from, seen := last[m.Name]
		if !seen {
			from = world.Pos(10, 10)
		}
		require.Equal(t, from, m.From, "%s moved from %v, expected %v", m.Name, m.From, from)
		require.NotEqual(t, m.From, m.To)
		last[m.Name] = m.To
	}
	assert.Zero(t, events.Dropped())

	for _, p := range g.Players() {
		want, seen := last[p.Name]
		if !seen {
			want = world.Pos(10, 10)
		}
		require.NotNil(t, p.Position)
		assert.Equal(t, want, *p.Position, p.Name)
	}
}
