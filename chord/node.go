package chord

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type fingerEntry struct {
	mu   sync.RWMutex
	node NodeClient
}

// Node is a single ring member. It holds the routing state (finger table,
// successor list, predecessor) and drives the lookup, membership, and
// stabilization algorithms directly against that state; how it talks to
// other members is entirely delegated to Config.Dial and Config.Liveness.
//
// A Node is not restartable: once Leave returns, a fresh Node must be
// constructed to rejoin.
type Node struct {
	cfg    Config
	logger *zap.Logger

	fingers []fingerEntry

	succMu     sync.RWMutex
	successors []NodeClient

	preMu       sync.RWMutex
	predecessor NodeClient

	nextFinger atomic.Uint64
	state      *stateBox
	inRing     atomic.Bool

	stopCh chan struct{}
	stopWg sync.WaitGroup
}

var _ NodeClient = (*Node)(nil)

// NewNode validates cfg and constructs an inactive Node. Call Create to
// found a new ring or Join to attach to an existing one.
func NewNode(cfg Config) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Node{
		cfg:     cfg,
		logger:  cfg.Logger.With(zap.Uint64("node", cfg.Self.ID)),
		fingers: make([]fingerEntry, cfg.HashBits),
		state:   newStateBox(stateInactive),
		stopCh:  make(chan struct{}),
	}, nil
}

func (n *Node) ID() uint64        { return n.cfg.Self.ID }
func (n *Node) Info() Descriptor  { return n.cfg.Self }
func (n *Node) Close() error      { return nil }
func (n *Node) bits() uint        { return n.cfg.HashBits }
func (n *Node) IsInRing() bool    { return n.inRing.Load() }
func (n *Node) State() string     { return n.state.Get().String() }

// checkActive gates an operation on the node being usable. When
// leavingIsError is true, a node that is mid-Leave is rejected too; notify
// handlers pass false so a departing neighbor can still be told about our
// successor/predecessor before we fully leave.
func (n *Node) checkActive(leavingIsError bool) error {
	switch n.state.Get() {
	case stateInactive, stateJoining:
		return ErrNodeNotStarted
	case stateLeaving:
		if leavingIsError {
			return ErrNodeGone
		}
		return nil
	case stateLeft:
		return ErrNodeGone
	default:
		return nil
	}
}

func (n *Node) Active(ctx context.Context) (bool, error) {
	return n.state.Get() == stateActive, nil
}

// resolve turns a Descriptor into a NodeClient, short-circuiting to the
// local dispatch path when the descriptor names this node. Core routing
// code should always go through resolve rather than calling Config.Dial
// directly, so that self-references never round-trip through a transport.
func (n *Node) resolve(ctx context.Context, d Descriptor) (NodeClient, error) {
	if d.ID == n.ID() {
		return n, nil
	}
	return n.cfg.Dial(ctx, d)
}

func (n *Node) getFinger(i int) NodeClient {
	e := &n.fingers[i]
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.node
}

func (n *Node) setFinger(i int, c NodeClient) {
	e := &n.fingers[i]
	e.mu.Lock()
	e.node = c
	e.mu.Unlock()
}

func (n *Node) getSuccessor() NodeClient {
	n.succMu.RLock()
	defer n.succMu.RUnlock()
	if len(n.successors) == 0 {
		return nil
	}
	return n.successors[0]
}

func (n *Node) getSuccessorList() []NodeClient {
	n.succMu.RLock()
	defer n.succMu.RUnlock()
	out := make([]NodeClient, len(n.successors))
	copy(out, n.successors)
	return out
}

func (n *Node) setSuccessorList(list []NodeClient) {
	n.succMu.Lock()
	n.successors = list
	n.succMu.Unlock()
}

func (n *Node) getPredecessor() NodeClient {
	n.preMu.RLock()
	defer n.preMu.RUnlock()
	return n.predecessor
}

func (n *Node) setPredecessor(c NodeClient) {
	n.preMu.Lock()
	n.predecessor = c
	n.preMu.Unlock()
}

func (n *Node) Successor(ctx context.Context) (Descriptor, error) {
	if err := n.checkActive(false); err != nil {
		return Descriptor{}, err
	}
	s := n.getSuccessor()
	if s == nil {
		return Descriptor{}, ErrNoSuccessor
	}
	return s.Info(), nil
}

func (n *Node) Predecessor(ctx context.Context) (*Descriptor, error) {
	if err := n.checkActive(false); err != nil {
		return nil, err
	}
	p := n.getPredecessor()
	if p == nil {
		return nil, nil
	}
	d := p.Info()
	return &d, nil
}

func (n *Node) SuccessorList(ctx context.Context) ([]Descriptor, error) {
	if err := n.checkActive(false); err != nil {
		return nil, err
	}
	list := n.getSuccessorList()
	out := make([]Descriptor, 0, len(list))
	for _, c := range list {
		if c == nil {
			continue
		}
		out = append(out, c.Info())
	}
	return out, nil
}

func (n *Node) String() string {
	return fmt.Sprintf("Node(%s)", n.cfg.Self)
}
