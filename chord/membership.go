package chord

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Create founds a brand-new ring containing only this node: predecessor is
// nil, every finger and the entire successor list point at self.
func (n *Node) Create() error {
	if !n.state.Transition(stateInactive, stateActive) {
		return fmt.Errorf("chord: node already started")
	}
	n.logger.Info("creating new ring")

	n.setPredecessor(nil)
	n.setSuccessorList(n.fillWithSelf())
	for i := range n.fingers {
		n.setFinger(i, n)
	}

	n.startMaintenance()
	return nil
}

func (n *Node) fillWithSelf() []NodeClient {
	list := make([]NodeClient, n.cfg.SuccessorListSize)
	for i := range list {
		list[i] = n
	}
	return list
}

// Join attaches this node to the ring reachable through bootstrapURI. It
// asks the bootstrap node for our successor, then best-effort populates
// the rest of the finger table and successor list before going active.
// Bootstrap unreachability is fatal: the node is left inactive so the
// caller can retry or pick a different bootstrap.
func (n *Node) Join(ctx context.Context, bootstrapURI string) error {
	if !n.state.Transition(stateInactive, stateJoining) {
		return fmt.Errorf("chord: node already started")
	}

	bootstrap, err := n.cfg.Dial(ctx, Descriptor{URI: bootstrapURI})
	if err != nil {
		n.state.Set(stateInactive)
		return fmt.Errorf("%w: dialing %s: %v", ErrBootstrapFailed, bootstrapURI, err)
	}
	defer bootstrap.Close()

	n.setPredecessor(nil)

	succDesc, err := bootstrap.FindSuccessor(ctx, n.ID())
	if err != nil {
		n.state.Set(stateInactive)
		return fmt.Errorf("%w: %v", ErrBootstrapFailed, err)
	}
	succ, err := n.resolve(ctx, succDesc)
	if err != nil {
		n.state.Set(stateInactive)
		return fmt.Errorf("%w: resolving successor: %v", ErrBootstrapFailed, err)
	}
	n.setFinger(0, succ)
	n.setSuccessorList([]NodeClient{succ})

	if err := n.buildFingerTable(ctx, bootstrap); err != nil {
		n.logger.Warn("finger table incomplete after join, stabilization will fill it in", zap.Error(err))
	}
	if err := n.buildSuccessorList(ctx); err != nil {
		n.logger.Warn("successor list incomplete after join, stabilization will fill it in", zap.Error(err))
	}

	n.state.Set(stateActive)
	n.startMaintenance()

	n.logger.Info("joined ring", zap.Uint64("successor", succ.ID()))
	return nil
}

// buildFingerTable fills finger[1..M-1] from finger[0], reusing a finger's
// current value for the next slot when that slot's target id is already
// covered by it, and otherwise asking the bootstrap node directly.
func (n *Node) buildFingerTable(ctx context.Context, bootstrap NodeClient) error {
	bits := int(n.bits())
	for i := 0; i <= bits-2; i++ {
		cur := n.getFinger(i)
		if cur == nil {
			continue
		}
		start := FingerStart(n.ID(), uint(i+1), n.bits())
		if Ebetween(n.ID(), start, cur.ID()) {
			n.setFinger(i+1, cur)
			continue
		}
		desc, err := bootstrap.FindSuccessor(ctx, start)
		if err != nil {
			return err
		}
		peer, err := n.resolve(ctx, desc)
		if err != nil {
			return err
		}
		n.setFinger(i+1, peer)
	}
	return nil
}

// buildSuccessorList seeds the successor list by chasing successor-of-
// successor starting from finger[0], stopping early (leaving the rest for
// stabilization) on the first failed hop or on wrapping back to self.
func (n *Node) buildSuccessorList(ctx context.Context) error {
	first := n.getFinger(0)
	if first == nil {
		return ErrNoSuccessor
	}
	list := []NodeClient{first}
	for len(list) < n.cfg.SuccessorListSize {
		last := list[len(list)-1]
		desc, err := last.Successor(ctx)
		if err != nil {
			break
		}
		if desc.ID == n.ID() {
			break
		}
		peer, err := n.resolve(ctx, desc)
		if err != nil {
			break
		}
		list = append(list, peer)
	}
	n.setSuccessorList(list)
	return nil
}

// Leave gracefully departs the ring: maintenance is stopped, then our
// successor and predecessor are notified (best effort - a transport
// failure here is logged, not fatal) before the node transitions to left.
func (n *Node) Leave(ctx context.Context) {
	if !n.state.Transition(stateActive, stateLeaving) {
		return
	}
	n.logger.Info("leaving ring")

	n.stopMaintenance()

	succ := n.getSuccessor()
	pred := n.getPredecessor()

	if succ != nil && pred != nil && succ.ID() != pred.ID() {
		self := n.cfg.Self

		var departureErr error
		d := pred.Info()
		if err := succ.NotifyPredecessorLeaving(ctx, self, &d); err != nil {
			departureErr = multierr.Append(departureErr, fmt.Errorf("notifying successor: %w", err))
		}

		succList, err := n.SuccessorList(ctx)
		if err == nil {
			if err := pred.NotifySuccessorLeaving(ctx, self, succList); err != nil {
				departureErr = multierr.Append(departureErr, fmt.Errorf("notifying predecessor: %w", err))
			}
		} else {
			departureErr = multierr.Append(departureErr, fmt.Errorf("collecting successor list: %w", err))
		}

		if departureErr != nil {
			n.logger.Warn("best-effort departure notice incomplete", zap.Error(departureErr))
		}
	}

	n.state.Set(stateLeft)
}
