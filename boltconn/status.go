package boltconn

import "github.com/graphbolt/driver/boltcodes"

// State is a point in the Connection state machine.
type State int

const (
	Disconnected State = iota
	Connected
	Ready
	Failed
	Defunct
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case Defunct:
		return "defunct"
	default:
		return "unknown"
	}
}

// Status is the observable error/state record every operation updates.
type Status struct {
	State   State
	Code    boltcodes.Code
	Context string
}
