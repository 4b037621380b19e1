package script

// State is the lifecycle state of the Manager.
type State uint8

const (
	StateUnloaded State = iota
	StateLoading
	StateActive
	StateReloading
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateReloading:
		return "reloading"
	default:
		return "unknown"
	}
}
