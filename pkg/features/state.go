package features

// State is the load lifecycle of a Client.
type State int

const (
	// StateUninitialized: no load has been issued yet.
	StateUninitialized State = iota
	// StateLoading: the latest issued load has not completed.
	StateLoading
	// StateLoaded: the latest load replaced the feature set.
	StateLoaded
	// StateFailed: the latest load failed; the previous set is still served.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
