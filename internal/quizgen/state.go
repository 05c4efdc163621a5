package quizgen

import "fmt"

// State is a phase of one generation.
type State string

const (
	StateIdle       State = "Idle"
	StateBuilding   State = "Building"
	StateRequesting State = "Requesting"
	StateParsing    State = "Parsing"
	StateValidating State = "Validating"
	StateRetrying   State = "Retrying"
	StateAssembling State = "Assembling"
	StateDone       State = "Done"
	StateFailed     State = "Failed"
)

// transitions lists the legal successors of each state. Failed is reachable
// from every non-terminal state and is not listed.
var transitions = map[State][]State{
	StateIdle:       {StateBuilding},
	StateBuilding:   {StateRequesting},
	StateRequesting: {StateParsing, StateRetrying},
	StateParsing:    {StateValidating, StateRetrying},
	StateValidating: {StateRetrying, StateAssembling},
	StateRetrying:   {StateRequesting, StateAssembling},
	StateAssembling: {StateDone},
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// CanTransition reports whether from → to is a legal move.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// machine records the state history of a single generation. It is not safe
// for concurrent use; each generation owns one.
type machine struct {
	current State
	history []State
}

func newMachine() *machine {
	return &machine{current: StateIdle, history: []State{StateIdle}}
}

// to moves the machine. An illegal move is a programming error.
func (m *machine) to(next State) {
	if !CanTransition(m.current, next) {
		panic(fmt.Sprintf("quizgen: illegal state transition %s -> %s", m.current, next))
	}
	m.current = next
	m.history = append(m.history, next)
}

func (m *machine) states() []State {
	return append([]State(nil), m.history...)
}
