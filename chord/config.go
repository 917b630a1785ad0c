package chord

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultHashBits and DefaultSuccessorListSize are sane production
// defaults; callers exercising small test rings typically override
// HashBits down to something like 8 so the finger table is easy to reason
// about by hand.
//
// IDs are derived from a uint64 hash (DefaultHash), so HashBits must stay
// below 64 or modulus overflows to 0 and every id collapses to a division
// by zero. 48 mirrors the teacher's own cap on finger table entries for the
// same reason.
const (
	DefaultHashBits          = 48
	DefaultSuccessorListSize = 4
)

// Config is the full set of knobs a Node needs to run. Logger, Dial, and
// Liveness are the seams through which the ambient stack and the transport
// layer are wired in; nothing in the chord package reaches for a global
// logger or dials a connection on its own.
type Config struct {
	Logger *zap.Logger

	// Self is this node's own descriptor. Its ID must already be reduced
	// modulo 2^HashBits, typically via NewDescriptor.
	Self Descriptor

	// HashBits is M, the bit width of the ring's id space. Finger tables
	// have exactly this many entries.
	HashBits uint

	// SuccessorListSize is R, the number of trailing successors tracked
	// for failover.
	SuccessorListSize int

	// StabilizeInterval is the base maintenance tick period: stabilize
	// runs on every tick. FixFingerInterval and PredecessorCheckInterval
	// gate how often, within that same tick loop, fix_fingers/
	// fix_successor_list and fix_predecessor additionally run; see
	// Node's maintenance loop for the exact interleaving.
	StabilizeInterval        time.Duration
	FixFingerInterval        time.Duration
	PredecessorCheckInterval time.Duration

	// Dial turns a Descriptor learned from some RPC response into a live
	// NodeClient. Node.resolve short-circuits this for Self, so Dial only
	// ever sees genuinely remote descriptors.
	Dial Dialer

	// Liveness answers reachability probes during stabilization and
	// routing.
	Liveness LivenessProber

	// OnJoined, if set, fires exactly once: the first time a Notify call
	// makes this node adopt a predecessor. In a singleton ring that is the
	// node's own self-notify during stabilization.
	OnJoined func()
}

func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil Config", ErrInvalidConfig)
	}
	if c.Logger == nil {
		return fmt.Errorf("%w: nil Logger", ErrInvalidConfig)
	}
	if c.HashBits == 0 || c.HashBits >= 64 {
		return fmt.Errorf("%w: HashBits must be in (0, 64), got %d", ErrInvalidConfig, c.HashBits)
	}
	if c.Self.ID >= modulus(c.HashBits) {
		return fmt.Errorf("%w: Self.ID %d out of range for HashBits %d", ErrInvalidConfig, c.Self.ID, c.HashBits)
	}
	if c.SuccessorListSize <= 0 {
		return fmt.Errorf("%w: SuccessorListSize must be positive", ErrInvalidConfig)
	}
	if c.StabilizeInterval <= 0 {
		return fmt.Errorf("%w: StabilizeInterval must be positive", ErrInvalidConfig)
	}
	if c.FixFingerInterval <= 0 {
		return fmt.Errorf("%w: FixFingerInterval must be positive", ErrInvalidConfig)
	}
	if c.PredecessorCheckInterval <= 0 {
		return fmt.Errorf("%w: PredecessorCheckInterval must be positive", ErrInvalidConfig)
	}
	if c.Dial == nil {
		return fmt.Errorf("%w: nil Dial", ErrInvalidConfig)
	}
	if c.Liveness == nil {
		return fmt.Errorf("%w: nil Liveness", ErrInvalidConfig)
	}
	return nil
}
