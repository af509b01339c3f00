package server

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"

	"tileworld/hub"
	"tileworld/protocol"
	"tileworld/view"
	"tileworld/world"
)

// TickUpdate is published once per tick on the update hub. Each session
// picks its own viewport out of Viewports.
type TickUpdate struct {
	Tick      uint64
	Viewports map[world.EntityID]view.Viewport
}

// For returns the GameUpdate addressed to id.
func (u TickUpdate) For(id world.EntityID) (protocol.GameUpdate, bool) {
	vp, ok := u.Viewports[id]
	if !ok {
		return protocol.GameUpdate{}, false
	}
	return protocol.GameUpdate{Tick: u.Tick, Viewport: vp}, true
}

type Options struct {
	ViewRadius   int
	Spawn        world.Position
	EventBuffer  int
	UpdateBuffer int
	EventLogMax  int
}

func DefaultOptions() Options {
	return Options{
		ViewRadius:   15,
		Spawn:        world.Pos(10, 10),
		EventBuffer:  1000,
		UpdateBuffer: 100,
		EventLogMax:  1000,
	}
}

// Game is the shared, authoritative state. One lock covers the world, the
// player table and the decision of what to publish, so every published
// event describes a state that really existed.
type Game struct {
	mu      deadlock.Mutex
	world   *world.World
	players map[world.EntityID]*PlayerSession

	events  *hub.Hub[protocol.GameEvent]
	updates *hub.Hub[TickUpdate]
	log     *EventLog
	metrics *Metrics

	viewRadius atomic.Int64
	maxRadius  int
	spawn      world.Position
	startedAt  time.Time

	tickerStarted atomic.Bool
}

// NewGame takes ownership of w.
func NewGame(w *world.World, opts Options) *Game {
	g := &Game{
		world:     w,
		players:   make(map[world.EntityID]*PlayerSession),
		events:    hub.New[protocol.GameEvent](opts.EventBuffer),
		updates:   hub.New[TickUpdate](opts.UpdateBuffer),
		log:       NewEventLog(opts.EventLogMax),
		metrics:   &Metrics{},
		maxRadius: w.MaxViewRadius(),
		spawn:     opts.Spawn,
		startedAt: time.Now(),
	}
	g.SetViewRadius(opts.ViewRadius)
	return g
}

// SubscribeEvents registers an observer of discrete game events.
func (g *Game) SubscribeEvents() *hub.Subscription[protocol.GameEvent] {
	return g.events.Subscribe()
}

// SubscribeUpdates registers a gameplay session for tick updates.
func (g *Game) SubscribeUpdates() *hub.Subscription[TickUpdate] {
	return g.updates.Subscribe()
}

func (g *Game) EventLog() *EventLog { return g.log }
func (g *Game) Metrics() *Metrics   { return g.metrics }

func (g *Game) ViewRadius() int { return int(g.viewRadius.Load()) }

// MaxViewRadius is the largest radius SetViewRadius accepts.
func (g *Game) MaxViewRadius() int { return g.maxRadius }

// SetViewRadius changes the radius used for subsequent viewports, clamped
// to [0, MaxViewRadius()]. It returns the radius actually applied.
func (g *Game) SetViewRadius(r int) int {
	r = min(max(r, 0), g.maxRadius)
	g.viewRadius.Store(int64(r))
	return r
}

// Close shuts both hubs; subscribers see their channels closed.
func (g *Game) Close() {
	g.events.Close()
	g.updates.Close()
}

// publishLocked must be called with g.mu held.
func (g *Game) publishLocked(ev protocol.GameEvent) {
	g.events.Publish(ev)
	g.log.Append(ev)
}

func (g *Game) updateLocked(id world.EntityID) (protocol.GameUpdate, bool) {
	vp, ok := view.Build(g.world, id, g.ViewRadius())
	if !ok {
		return protocol.GameUpdate{}, false
	}
	return protocol.GameUpdate{Tick: g.world.CurrentTick(), Viewport: vp}, true
}

// login spawns a player entity named name at the spawn point.
func (g *Game) login(name string) (PlayerSession, protocol.GameUpdate, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, ok := g.world.SpawnEntity(name, g.spawn, world.Player)
	if !ok {
		g.metrics.IncLoginFailed()
		return PlayerSession{}, protocol.GameUpdate{}, false
	}
	ps := &PlayerSession{ID: uuid.New(), EntityID: id, Name: name}
	g.players[id] = ps

	e, _ := g.world.Entity(id)
	g.publishLocked(protocol.PlayerConnected{Name: name, ID: ps.ID.String()})
	g.publishLocked(protocol.PlayerSpawned{Name: name, Pos: e.Pos})

	upd, _ := g.updateLocked(id)
	return *ps, upd, true
}

// move applies a step and returns a fresh viewport whether or not the
// step succeeded. ok is false only when the entity is gone.
func (g *Game) move(ps PlayerSession, dx, dy int) (upd protocol.GameUpdate, moved bool, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	before, ok := g.world.Entity(ps.EntityID)
	if !ok {
		return protocol.GameUpdate{}, false, false
	}
	if !g.world.MoveEntity(ps.EntityID, dx, dy) {
		g.metrics.IncMoveBlocked()
	}
	after, _ := g.world.Entity(ps.EntityID)
	moved = after.Pos != before.Pos
	if moved {
		g.publishLocked(protocol.PlayerMoved{Name: ps.Name, From: before.Pos, To: after.Pos})
	}
	upd, ok = g.updateLocked(ps.EntityID)
	return upd, moved, ok
}

// leave removes the player and its entity from the world.
func (g *Game) leave(ps PlayerSession) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.world.DespawnEntity(ps.EntityID)
	delete(g.players, ps.EntityID)
	g.publishLocked(protocol.PlayerDisconnected{Name: ps.Name, ID: ps.ID.String()})
}

// Tick advances the world one step, then publishes the tick summary and a
// viewport for every connected player.
func (g *Game) Tick() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, ev := range g.world.Tick() {
		if ev.Kind != world.Combat || len(ev.Participants) < 2 {
			continue
		}
		g.publishLocked(protocol.CombatOccurred{
			Attacker: g.entityNameLocked(ev.Participants[0]),
			Defender: g.entityNameLocked(ev.Participants[1]),
			Pos:      ev.Location,
		})
	}

	tick := g.world.CurrentTick()
	g.publishLocked(protocol.WorldTick{
		Tick:          tick,
		ActivePlayers: len(g.players),
		TotalEntities: g.world.EntityCount(),
	})

	if len(g.players) > 0 {
		radius := g.ViewRadius()
		u := TickUpdate{Tick: tick, Viewports: make(map[world.EntityID]view.Viewport, len(g.players))}
		for id := range g.players {
			if vp, ok := view.Build(g.world, id, radius); ok {
				u.Viewports[id] = vp
			}
		}
		g.updates.Publish(u)
	}
	return tick
}

func (g *Game) entityNameLocked(id world.EntityID) string {
	if e, ok := g.world.Entity(id); ok {
		return e.Name
	}
	return fmt.Sprintf("#%d", id)
}

// SeedNPCs spawns the initial wandering population.
func (g *Game) SeedNPCs(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.world.SeedNPCs(n))
}

// MapDump renders the full terrain layer.
func (g *Game) MapDump() view.MapDump {
	g.mu.Lock()
	defer g.mu.Unlock()
	return view.FullMap(g.world)
}

// Players lists connected players ordered by entity id.
func (g *Game) Players() []PlayerInfo {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]PlayerInfo, 0, len(g.players))
	for _, id := range g.world.EntityIDs() {
		ps, ok := g.players[id]
		if !ok {
			continue
		}
		info := PlayerInfo{ID: ps.ID.String(), Name: ps.Name, EntityID: id}
		if e, ok := g.world.Entity(id); ok {
			pos := e.Pos
			info.Position = &pos
		}
		out = append(out, info)
	}
	return out
}

// Entities lists every entity ordered by id.
func (g *Game) Entities() []EntityInfo {
	g.mu.Lock()
	defer g.mu.Unlock()

	all := g.world.AllEntities()
	out := make([]EntityInfo, 0, len(all))
	for _, e := range all {
		out = append(out, EntityInfo{ID: e.ID, Name: e.Name, Type: e.Kind.String(), Position: e.Pos})
	}
	return out
}

// History returns the most recent historical events.
func (g *Game) History(limit int) []world.HistoricalEvent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.world.HistoricalEvents(limit)
}

// Stats is the server overview served to admins.
type Stats struct {
	UptimeSeconds  uint64 `json:"uptime_seconds"`
	TotalPlayers   int    `json:"total_players"`
	ActivePlayers  int    `json:"active_players"`
	WorldSize      [2]int `json:"world_size"`
	TotalEntities  int    `json:"total_entities"`
	TotalTiles     int    `json:"total_tiles"`
	TicksProcessed uint64 `json:"ticks_processed"`
}

func (g *Game) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	w, h := g.world.Dimensions()
	return Stats{
		UptimeSeconds:  uint64(time.Since(g.startedAt).Seconds()),
		TotalPlayers:   len(g.players),
		ActivePlayers:  len(g.players),
		WorldSize:      [2]int{w, h},
		TotalEntities:  g.world.EntityCount(),
		TotalTiles:     w * h,
		TicksProcessed: g.world.CurrentTick(),
	}
}
