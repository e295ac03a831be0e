package worker

// State of a worker. A worker moves from Idle to Running once and ends in one
// of the terminal states; it cannot be restarted.
type State int

const (
	Idle State = iota
	Running
	Completed
	Cancelled
	Faulted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

func (s State) Terminal() bool {
	return s >= Completed
}
