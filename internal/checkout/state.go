package checkout

type State string

const (
	StateIdle              State = "IDLE"
	StateSubmitting        State = "SUBMITTING"
	StateDecrementingStock State = "DECREMENTING_STOCK"
	StateFinalizing        State = "FINALIZING"
	StateSucceeded         State = "SUCCEEDED"
	StateFailed            State = "FAILED"
)

var transitions = map[State][]State{
	StateIdle:              {StateSubmitting, StateFailed},
	StateSubmitting:        {StateDecrementingStock, StateFailed},
	StateDecrementingStock: {StateFinalizing, StateFailed},
	StateFinalizing:        {StateSucceeded},
}

func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// String representation (for logging)
func (s State) String() string {
	return string(s)
}

// CanTransitionTo reports whether the checkout state machine allows from -> to.
func CanTransitionTo(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// machine records the path a single checkout attempt takes.
type machine struct {
	path []State
}

func newMachine() *machine {
	return &machine{path: []State{StateIdle}}
}

func (m *machine) current() State {
	return m.path[len(m.path)-1]
}

func (m *machine) to(next State) error {
	if !CanTransitionTo(m.current(), next) {
		return ErrIllegalTransition
	}
	m.path = append(m.path, next)
	return nil
}
