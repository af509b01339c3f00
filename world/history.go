package world

// EventKind classifies a historical event.
type EventKind uint8

const (
	Birth EventKind = iota
	Death
	Combat
	FactionFounded
	TerritoryConquered
	Alliance
	WarDeclared
)

func (k EventKind) String() string {
	switch k {
	case Birth:
		return "Birth"
	case Death:
		return "Death"
	case Combat:
		return "Combat"
	case FactionFounded:
		return "FactionFounded"
	case TerritoryConquered:
		return "TerritoryConquered"
	case Alliance:
		return "Alliance"
	case WarDeclared:
		return "War"
	default:
		return "Unknown"
	}
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// HistoricalEvent is an entry in the world's append-only chronicle.
type HistoricalEvent struct {
	ID           uint64     `json:"id"`
	Tick         uint64     `json:"tick"`
	Kind         EventKind  `json:"kind"`
	Participants []EntityID `json:"participants"`
	Location     Position   `json:"location"`
	Description  string     `json:"description"`
}

// HistoricalEvents returns the most recent limit events, oldest first.
func (w *World) HistoricalEvents(limit int) []HistoricalEvent {
	if limit <= 0 {
		return nil
	}
	start := 0
	if len(w.history) > limit {
		start = len(w.history) - limit
	}
	out := make([]HistoricalEvent, len(w.history)-start)
	copy(out, w.history[start:])
	return out
}

func (w *World) appendEvent(kind EventKind, participants []EntityID, loc Position, desc string) HistoricalEvent {
	ev := HistoricalEvent{
		ID:           w.nextEventID,
		Tick:         w.tick,
		Kind:         kind,
		Participants: participants,
		Location:     loc,
		Description:  desc,
	}
	w.nextEventID++
	w.history = append(w.history, ev)
	return ev
}
