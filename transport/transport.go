// Package transport defines the seam between the ring-routing logic in
// package chord and whatever wire protocol actually carries RPCs between
// nodes. Package chord never imports a concrete transport; it only calls
// through the chord.Dialer and chord.LivenessProber interfaces that a
// Transport hands it.
package transport

import (
	"context"

	"go.chordring.dev/chordring/chord"
)

// Transport serves a local Node's RPC surface and dials remote peers on
// its behalf. Implementations are free to choose any wire format; the only
// contract is that the resulting chord.NodeClient correctly implements
// every operation in that interface.
type Transport interface {
	// Dial resolves a Descriptor into a live chord.NodeClient. A method
	// value of this method is suitable for direct use as chord.Config.Dial.
	Dial(ctx context.Context, d chord.Descriptor) (chord.NodeClient, error)

	// Serve starts accepting RPCs on behalf of n and returns once the
	// listener is up. It does not block.
	Serve(n *chord.Node) error

	// Close stops serving and releases any listener resources.
	Close() error
}
