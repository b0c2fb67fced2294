package engine

// State is the lifecycle state of an Engine.
type State int32

const (
	StatePlanning State = iota
	StateRunning
	StateDraining
	StateFailed
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StatePlanning:
		return "planning"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateFailed:
		return "failed"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}
