package world

import "sort"

const (
	patrolPhaseTicks = 50
	eventEveryTicks  = 100

	skirmishDescription = "A skirmish occurred in the grasslands"

	memoryWanderBlocked = "wander step blocked"
)

var skirmishLocation = Position{X: 10, Y: 10}

// Tick advances the simulation by one step and returns any historical
// events appended during it.
func (w *World) Tick() []HistoricalEvent {
	w.tick++
	w.updateAI()
	w.updateFactions()

	var events []HistoricalEvent
	if w.tick%eventEveryTicks == 0 {
		if ev, ok := w.generateEvent(); ok {
			events = append(events, ev)
		}
	}
	return events
}

func (w *World) updateAI() {
	ids := make([]EntityID, 0, len(w.behaviors))
	for id := range w.behaviors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		b := w.behaviors[id]
		switch g := b.Goal.(type) {
		case Wander:
			dx := int(w.tick%3) - 1
			dy := int((w.tick/3)%3) - 1
			if !w.MoveEntity(id, dx, dy) {
				b.Remember(memoryWanderBlocked, w.tick)
			}
		case Patrol:
			e, ok := w.entities[id]
			if !ok {
				continue
			}
			target := g.Start
			if (w.tick/patrolPhaseTicks)%2 == 1 {
				target = g.End
			}
			w.MoveEntity(id, sign(target.X-e.Pos.X), sign(target.Y-e.Pos.Y))
		case Hunt, Flee, Guard, Sleep:
			// recognized, no behavior yet
		}
	}
}

// updateFactions is where diplomacy between factions will run.
func (w *World) updateFactions() {}

func (w *World) generateEvent() (HistoricalEvent, bool) {
	if len(w.entities) < 2 {
		return HistoricalEvent{}, false
	}
	ids := w.EntityIDs()
	return w.appendEvent(Combat, []EntityID{ids[0], ids[1]}, skirmishLocation, skirmishDescription), true
}
