package chord

import "context"

// NodeClient is the full set of operations a ring member exposes, whether
// the target is this process (dispatched directly, no network involved) or
// a remote peer (dispatched through whatever transport.Transport the node
// was configured with). *Node itself satisfies this interface, so local
// calls and remote calls share one call surface throughout the package.
type NodeClient interface {
	// ID and Info never touch the network: for a remote peer they report
	// the Descriptor the client was dialed with, which is immutable for
	// the lifetime of the client.
	ID() uint64
	Info() Descriptor

	Active(ctx context.Context) (bool, error)
	Successor(ctx context.Context) (Descriptor, error)
	Predecessor(ctx context.Context) (*Descriptor, error)
	SuccessorList(ctx context.Context) ([]Descriptor, error)

	FindSuccessor(ctx context.Context, id uint64) (Descriptor, error)
	FindPredecessor(ctx context.Context, id uint64) (Descriptor, error)
	ClosestPrecedingFinger(ctx context.Context, id uint64) (Descriptor, error)

	Notify(ctx context.Context, candidate Descriptor) error
	NotifyPredecessorLeaving(ctx context.Context, node Descriptor, newPredecessor *Descriptor) error
	NotifySuccessorLeaving(ctx context.Context, node Descriptor, successors []Descriptor) error

	SuccessorCandidates(ctx context.Context, id uint64, max int) ([]Descriptor, error)

	// Close releases any resources held by a remote client. It is a no-op
	// for the local dispatch path.
	Close() error
}

// Dialer resolves a Descriptor into a live NodeClient. Implementations are
// supplied by a transport package; the chord package never constructs one
// itself beyond the local short-circuit in Node.resolve.
type Dialer func(ctx context.Context, d Descriptor) (NodeClient, error)
