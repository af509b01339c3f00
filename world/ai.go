package world

// GoalKind names an AI goal variant.
type GoalKind uint8

const (
	GoalWander GoalKind = iota
	GoalHunt
	GoalFlee
	GoalPatrol
	GoalGuard
	GoalSleep
)

func (k GoalKind) String() string {
	switch k {
	case GoalWander:
		return "Wander"
	case GoalHunt:
		return "Hunt"
	case GoalFlee:
		return "Flee"
	case GoalPatrol:
		return "Patrol"
	case GoalGuard:
		return "Guard"
	case GoalSleep:
		return "Sleep"
	default:
		return "Unknown"
	}
}

// Goal is the closed set of behaviors an AI entity can pursue.
// Only Wander and Patrol move entities today; the others are recognized
// and kept on the behavior but do nothing when ticked.
type Goal interface {
	Kind() GoalKind
	isGoal()
}

type Wander struct{}

type Hunt struct{}

type Flee struct{}

// Patrol alternates between Start and End every patrolPhaseTicks.
type Patrol struct {
	Start Position
	End   Position
}

type Guard struct {
	Pos Position
}

type Sleep struct{}

func (Wander) Kind() GoalKind { return GoalWander }
func (Hunt) Kind() GoalKind   { return GoalHunt }
func (Flee) Kind() GoalKind   { return GoalFlee }
func (Patrol) Kind() GoalKind { return GoalPatrol }
func (Guard) Kind() GoalKind  { return GoalGuard }
func (Sleep) Kind() GoalKind  { return GoalSleep }

func (Wander) isGoal() {}
func (Hunt) isGoal()   {}
func (Flee) isGoal()   {}
func (Patrol) isGoal() {}
func (Guard) isGoal()  {}
func (Sleep) isGoal()  {}

// maxMemories bounds AIBehavior.Memory; older entries are forgotten first.
const maxMemories = 16

// Memory is something an AI entity remembers and when.
type Memory struct {
	Event string
	Tick  uint64
}

// Personality traits, each in [0, 1].
type Personality struct {
	Aggression  float64
	Curiosity   float64
	Sociability float64
}

// AIBehavior is attached to at most one entity and dies with it.
type AIBehavior struct {
	Goal        Goal
	Memory      []Memory
	Personality Personality
}

// Remember appends an entry to the behavior's memory, forgetting the oldest
// once maxMemories is reached.
func (b *AIBehavior) Remember(event string, tick uint64) {
	b.Memory = append(b.Memory, Memory{Event: event, Tick: tick})
	if over := len(b.Memory) - maxMemories; over > 0 {
		b.Memory = append(b.Memory[:0:0], b.Memory[over:]...)
	}
}

func defaultNPCBehavior() *AIBehavior {
	return &AIBehavior{
		Goal: Wander{},
		Personality: Personality{
			Aggression:  0.3,
			Curiosity:   0.7,
			Sociability: 0.5,
		},
	}
}
