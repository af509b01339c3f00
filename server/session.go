package server

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"tileworld/protocol"
	"tileworld/world"
)

var (
	ErrNotActive     = errors.New("session not logged in")
	ErrAlreadyActive = errors.New("session already logged in")
	ErrSessionClosed = errors.New("session closed")
)

// SessionState is where a session is in its lifecycle.
type SessionState int32

const (
	StateUnauthenticated SessionState = iota
	StateActive
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "Unauthenticated"
	case StateActive:
		return "Active"
	case StateClosed:
		return "Closed"
	default:
		return fmt.Sprintf("SessionState(%d)", int32(s))
	}
}

// Session is one client's logical state, independent of the transport.
// Handle and Close may be called from different goroutines.
type Session struct {
	game *Game

	mu     sync.Mutex
	state  SessionState
	player PlayerSession

	// target is the entity tick updates are routed to. It stays 0 until
	// StartUpdates, so a transport can queue the login replies first.
	target    atomic.Uint32
	closeOnce sync.Once
}

func NewSession(g *Game) *Session {
	return &Session{game: g}
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// EntityID returns the bound entity, or 0 when not Active.
func (s *Session) EntityID() world.EntityID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return 0
	}
	return s.player.EntityID
}

// StartUpdates routes tick updates to the bound entity from now on. It is a
// no-op unless the session is Active.
func (s *Session) StartUpdates() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateActive {
		s.target.Store(uint32(s.player.EntityID))
	}
}

// UpdateTarget is the entity whose tick updates this session forwards, or 0.
// It never blocks.
func (s *Session) UpdateTarget() world.EntityID {
	return world.EntityID(s.target.Load())
}

// Player returns the bound player; ok is false unless Active.
func (s *Session) Player() (PlayerSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player, s.state == StateActive
}

// Handle applies one intent and returns the messages to send back.
func (s *Session) Handle(in protocol.Intent) ([]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil, ErrSessionClosed
	}

	switch in := in.(type) {
	case protocol.Login:
		if s.state == StateActive {
			return []any{protocol.Failure("already logged in")}, ErrAlreadyActive
		}
		ps, upd, ok := s.game.login(in.Name)
		if !ok {
			Log.Warnf("login failed: name=%s no walkable spawn", in.Name)
			return []any{protocol.Failure("could not spawn player")}, nil
		}
		s.player = ps
		s.state = StateActive
		Log.Infof("player connected: name=%s id=%s entity=%d", ps.Name, ps.ID, ps.EntityID)
		return []any{
			protocol.ActionResult{Success: true, Message: fmt.Sprintf("Welcome, %s!", ps.Name)},
			upd,
		}, nil

	case protocol.Move:
		if s.state != StateActive {
			return nil, ErrNotActive
		}
		upd, _, ok := s.game.move(s.player, in.DX, in.DY)
		if !ok {
			return nil, ErrNotActive
		}
		return []any{upd}, nil
	}
	return nil, fmt.Errorf("%w: %T", protocol.ErrUnknownIntent, in)
}

// Close ends the session. The first call despawns the player (if any) and
// publishes PlayerDisconnected; later calls do nothing and return false.
func (s *Session) Close() bool {
	closed := false
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state == StateActive {
			s.game.leave(s.player)
			Log.Infof("player disconnected: name=%s id=%s", s.player.Name, s.player.ID)
		}
		s.state = StateClosed
		s.target.Store(0)
		closed = true
	})
	return closed
}
