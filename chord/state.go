package chord

import "go.uber.org/atomic"

// lifecycleState tracks where a Node is in its create/join/leave lifecycle.
// Transitions are driven exclusively through stateBox.Transition so that
// concurrent Join/Leave/Create calls on the same Node cannot race.
type lifecycleState uint32

const (
	stateInactive lifecycleState = iota
	stateJoining
	stateActive
	stateLeaving
	stateLeft
)

func (s lifecycleState) String() string {
	switch s {
	case stateInactive:
		return "inactive"
	case stateJoining:
		return "joining"
	case stateActive:
		return "active"
	case stateLeaving:
		return "leaving"
	case stateLeft:
		return "left"
	default:
		return "unknown"
	}
}

type stateBox struct {
	v atomic.Uint32
}

func newStateBox(initial lifecycleState) *stateBox {
	b := &stateBox{}
	b.v.Store(uint32(initial))
	return b
}

func (b *stateBox) Get() lifecycleState {
	return lifecycleState(b.v.Load())
}

func (b *stateBox) Set(s lifecycleState) {
	b.v.Store(uint32(s))
}

// Transition atomically moves the state from expected to next, returning
// false without side effects if the current state isn't expected.
func (b *stateBox) Transition(expected, next lifecycleState) bool {
	return b.v.CompareAndSwap(uint32(expected), uint32(next))
}
