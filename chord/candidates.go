package chord

import "context"

// SuccessorCandidates returns up to max candidates for the owner of id,
// most-preferred first. Candidates are not liveness-probed. It is used by callers that need failover
// options for a key, not just its current primary owner.
func (n *Node) SuccessorCandidates(ctx context.Context, id uint64, max int) ([]Descriptor, error) {
	if err := n.checkActive(false); err != nil {
		return nil, err
	}

	list, err := n.primarySuccessorCandidates(ctx, id)
	if err != nil {
		list, err = n.fallbackSuccessorCandidates(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	list = n.extendCandidates(ctx, list, max)
	if len(list) > max {
		list = list[:max]
	}
	return list, nil
}

func (n *Node) primarySuccessorCandidates(ctx context.Context, id uint64) ([]Descriptor, error) {
	succ, err := n.FindSuccessor(ctx, id)
	if err != nil {
		return nil, err
	}
	peer, err := n.resolve(ctx, succ)
	if err != nil {
		return nil, err
	}
	defer peer.Close()

	rest, err := peer.SuccessorList(ctx)
	if err != nil {
		return []Descriptor{succ}, nil
	}
	return append([]Descriptor{succ}, rest...), nil
}

func (n *Node) fallbackSuccessorCandidates(ctx context.Context, id uint64) ([]Descriptor, error) {
	pred, err := n.FindPredecessor(ctx, id)
	if err != nil {
		return nil, err
	}
	peer, err := n.resolve(ctx, pred)
	if err != nil {
		return nil, err
	}
	defer peer.Close()
	return peer.SuccessorList(ctx)
}

// extendCandidates walks successor-of-successor until list reaches max
// entries or a hop fails, deduplicating along the way.
func (n *Node) extendCandidates(ctx context.Context, list []Descriptor, max int) []Descriptor {
	seen := make(map[uint64]bool, len(list))
	out := make([]Descriptor, 0, max)
	for _, d := range list {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		out = append(out, d)
	}

	for len(out) < max && len(out) > 0 {
		last := out[len(out)-1]
		peer, err := n.resolve(ctx, last)
		if err != nil {
			break
		}
		next, err := peer.Successor(ctx)
		peer.Close()
		if err != nil || seen[next.ID] {
			break
		}
		seen[next.ID] = true
		out = append(out, next)
	}
	return out
}

// IsAlone reports whether this node believes it is the only member of the
// ring: both its predecessor and successor are itself. A freshly created
// singleton ring does not satisfy this until its first Notify round-trip
// sets the predecessor.
func (n *Node) IsAlone() bool {
	pred := n.getPredecessor()
	succ := n.getSuccessor()
	if pred == nil || succ == nil {
		return false
	}
	return pred.ID() == n.ID() && succ.ID() == n.ID()
}
