package chord

import (
	"context"

	"go.uber.org/zap"
)

// Notify is called by a node that believes it might be our predecessor. We
// adopt it when we don't have one yet, or when it is strictly closer to us
// than our current predecessor. The first successful adoption flips
// in_ring and fires Config.OnJoined exactly once.
func (n *Node) Notify(ctx context.Context, candidate Descriptor) error {
	if err := n.checkActive(false); err != nil {
		return err
	}

	n.preMu.Lock()
	old := n.predecessor
	adopt := old == nil || Between(old.ID(), candidate.ID, n.ID())
	if !adopt {
		n.preMu.Unlock()
		return nil
	}

	peer, err := n.resolve(ctx, candidate)
	if err != nil {
		n.preMu.Unlock()
		// Unreachable candidate: treat like a stale notice and ignore it.
		return nil
	}
	n.predecessor = peer
	n.preMu.Unlock()

	if old == nil {
		n.logger.Info("discovered predecessor", zap.Uint64("predecessor", candidate.ID))
	} else {
		n.logger.Info("discovered closer predecessor",
			zap.Uint64("previous", old.ID()),
			zap.Uint64("predecessor", candidate.ID))
	}

	if !n.inRing.Swap(true) {
		if n.cfg.OnJoined != nil {
			n.cfg.OnJoined()
		}
	}
	return nil
}

// NotifyPredecessorLeaving is sent by a departing node to its successor.
// We only act on it if the leaver is actually our current predecessor,
// guarding against stale or reordered departure notices.
func (n *Node) NotifyPredecessorLeaving(ctx context.Context, leaver Descriptor, newPredecessor *Descriptor) error {
	if err := n.checkActive(false); err != nil {
		return err
	}

	n.preMu.Lock()
	defer n.preMu.Unlock()
	if n.predecessor == nil || n.predecessor.ID() != leaver.ID {
		return nil
	}
	if newPredecessor == nil {
		n.predecessor = nil
		return nil
	}
	peer, err := n.resolve(ctx, *newPredecessor)
	if err != nil {
		n.predecessor = nil
		return nil
	}
	n.predecessor = peer
	return nil
}

// NotifySuccessorLeaving is sent by a departing node to its predecessor,
// carrying the leaver's own successor list so the predecessor can splice
// in a replacement without waiting for the next stabilize tick.
func (n *Node) NotifySuccessorLeaving(ctx context.Context, leaver Descriptor, successors []Descriptor) error {
	if err := n.checkActive(false); err != nil {
		return err
	}

	n.succMu.Lock()
	defer n.succMu.Unlock()
	if len(n.successors) == 0 || n.successors[0].ID() != leaver.ID {
		return nil
	}

	list := n.successors[1:]
	if len(successors) > 0 {
		last := successors[len(successors)-1]
		if peer, err := n.resolve(ctx, last); err == nil {
			list = append(list, peer)
		}
	}
	n.successors = list
	return nil
}
