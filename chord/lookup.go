package chord

import "context"

// ClosestPrecedingFinger scans the finger table from the farthest entry
// down to the nearest, returning the first one that both lies strictly
// between self and id and answers a liveness probe. Falling back to self
// when nothing qualifies lets FindSuccessor/FindPredecessor terminate
// instead of looping.
func (n *Node) ClosestPrecedingFinger(ctx context.Context, id uint64) (Descriptor, error) {
	if err := n.checkActive(false); err != nil {
		return Descriptor{}, err
	}
	self := n.ID()
	for i := int(n.bits()) - 1; i >= 0; i-- {
		c := n.getFinger(i)
		if c == nil {
			continue
		}
		if !Between(self, c.ID(), id) {
			continue
		}
		if !n.cfg.Liveness.Alive(ctx, c.Info()) {
			continue
		}
		return c.Info(), nil
	}
	return n.cfg.Self, nil
}

// FindSuccessor returns the node that owns id: the first node whose id is
// at or past id going clockwise from its predecessor.
func (n *Node) FindSuccessor(ctx context.Context, id uint64) (Descriptor, error) {
	if err := n.checkActive(false); err != nil {
		return Descriptor{}, err
	}
	succ := n.getSuccessor()
	if succ == nil {
		return Descriptor{}, ErrNoSuccessor
	}
	if BetweenE(n.ID(), id, succ.ID()) {
		return succ.Info(), nil
	}

	closest, err := n.ClosestPrecedingFinger(ctx, id)
	if err != nil {
		return Descriptor{}, err
	}
	if closest.ID == n.ID() {
		// No finger is any closer than we already are; routing state is
		// too sparse to make progress. Report self rather than recurse
		// forever - a later stabilization tick will tighten the fingers.
		return n.cfg.Self, nil
	}

	peer, err := n.resolve(ctx, closest)
	if err != nil {
		return Descriptor{}, err
	}
	defer peer.Close()
	return peer.FindSuccessor(ctx, id)
}

// FindPredecessor walks the ring towards id, returning the node whose
// successor would own id. hops is capped at bits() since a correctly
// converging ring never needs more hops than the finger table has entries.
func (n *Node) FindPredecessor(ctx context.Context, id uint64) (Descriptor, error) {
	if err := n.checkActive(false); err != nil {
		return Descriptor{}, err
	}
	if id == n.ID() {
		p := n.getPredecessor()
		if p == nil {
			return Descriptor{}, ErrNoPredecessor
		}
		return p.Info(), nil
	}

	cur := NodeClient(n)
	owned := false
	defer func() {
		if owned {
			cur.Close()
		}
	}()

	for hops := uint(0); hops <= n.bits(); hops++ {
		succ, err := cur.Successor(ctx)
		if err != nil {
			return Descriptor{}, err
		}
		if BetweenE(cur.ID(), id, succ.ID) {
			return cur.Info(), nil
		}

		closest, err := cur.ClosestPrecedingFinger(ctx, id)
		if err != nil {
			return Descriptor{}, err
		}
		if closest.ID == cur.ID() {
			return cur.Info(), nil
		}

		next, err := n.resolve(ctx, closest)
		if err != nil {
			return Descriptor{}, err
		}
		if owned {
			cur.Close()
		}
		cur, owned = next, true
	}
	return Descriptor{}, ErrUnreachable
}
