package chord

import "errors"

// Sentinel errors returned by Node operations. Use errors.Is to test for
// them; application code should never compare error values directly since
// transport implementations wrap these with additional context.
var (
	// ErrUnreachable means a remote peer did not respond to a liveness probe
	// or RPC within the configured timeout. It is distinguishable from
	// application-level errors returned by a live peer.
	ErrUnreachable = errors.New("chord: remote peer did not respond")

	// ErrIsolated means stabilization walked every known peer (successor
	// list and finger table) without finding one that answers a liveness
	// probe.
	ErrIsolated = errors.New("chord: node has no live peers left in the ring")

	// ErrBootstrapFailed means Join could not reach the bootstrap node.
	// It is fatal: the node remains inactive and must be retried by the
	// caller.
	ErrBootstrapFailed = errors.New("chord: could not reach bootstrap node")

	// ErrAddressInUse means the configured listen address could not be
	// bound. Fatal at startup.
	ErrAddressInUse = errors.New("chord: listen address already in use")

	ErrNodeNotStarted = errors.New("chord: node is not active")
	ErrNodeGone       = errors.New("chord: node has left the ring")
	ErrNoSuccessor    = errors.New("chord: node has no successor")
	ErrNoPredecessor  = errors.New("chord: node has no predecessor yet")
	ErrInvalidConfig  = errors.New("chord: invalid configuration")
)

// IsUnreachable reports whether err (or something it wraps) is ErrUnreachable.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// IsRetryable reports whether a caller can reasonably retry the operation
// that produced err. Only liveness-style failures are retryable; errors
// returned by a live, correctly-behaving peer are not.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnreachable) || errors.Is(err, ErrIsolated)
}
