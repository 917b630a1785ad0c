package chord

import "context"

// LivenessProber answers whether a peer is currently reachable. Stabilize,
// fix_predecessor, and closest_preceding_finger all gate their choices on
// this, rather than trusting routing state alone. Concrete probers live in
// a transport package, since "reachable" is meaningless without a wire
// protocol to probe over.
type LivenessProber interface {
	Alive(ctx context.Context, d Descriptor) bool
}

// LivenessFunc adapts a plain function to LivenessProber, mainly useful in
// tests that want to control liveness directly instead of through a real
// transport.
type LivenessFunc func(ctx context.Context, d Descriptor) bool

func (f LivenessFunc) Alive(ctx context.Context, d Descriptor) bool {
	return f(ctx, d)
}
