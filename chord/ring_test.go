package chord

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"go.chordring.dev/chordring/internal/testcond"
)

const (
	testInterval = 10 * time.Millisecond
	testWait     = testInterval * 20
)

// registry is an in-process stand-in for a transport: it hands back the
// *Node itself for any URI it knows about, so multi-node tests can wire a
// whole ring together without sockets.
type registry struct {
	nodes map[string]*Node
}

func newRegistry() *registry {
	return &registry{nodes: make(map[string]*Node)}
}

func (r *registry) dial(ctx context.Context, d Descriptor) (NodeClient, error) {
	n, ok := r.nodes[d.URI]
	if !ok {
		return nil, fmt.Errorf("registry: no such node %q", d.URI)
	}
	return n, nil
}

func (r *registry) add(n *Node) {
	r.nodes[n.cfg.Self.URI] = n
}

func alwaysAlive(ctx context.Context, d Descriptor) bool { return true }

func testConfig(t *testing.T, reg *registry, id uint64) Config {
	return Config{
		Logger:                   zaptest.NewLogger(t),
		Self:                     Descriptor{URI: fmt.Sprintf("node-%d", id), ID: id},
		HashBits:                 8,
		SuccessorListSize:        3,
		StabilizeInterval:        testInterval,
		FixFingerInterval:        testInterval,
		PredecessorCheckInterval: testInterval,
		Dial:                     reg.dial,
		Liveness:                 LivenessFunc(alwaysAlive),
	}
}

func newTestNode(t *testing.T, as *require.Assertions, reg *registry, id uint64) *Node {
	n, err := NewNode(testConfig(t, reg, id))
	as.NoError(err)
	reg.add(n)
	return n
}

func waitStable(as *require.Assertions, node *Node) {
	as.NoError(testcond.WaitForCondition(func() bool {
		return node.getPredecessor() != nil && node.getSuccessor() != nil
	}, testInterval, time.Second*5))
}

func waitStableAll(as *require.Assertions, nodes []*Node) {
	as.NoError(testcond.WaitForCondition(func() bool {
		for _, n := range nodes {
			if n.getPredecessor() == nil || n.getSuccessor() == nil {
				return false
			}
		}
		return true
	}, testInterval, time.Second*5))
}

// checkRing asserts every node's successor/predecessor chain is consistent
// with ascending id order around the ring.
func checkRing(as *require.Assertions, nodes []*Node) {
	if len(nodes) == 0 {
		return
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })

	if len(nodes) == 1 {
		as.Equal(nodes[0].ID(), nodes[0].getPredecessor().ID())
		as.Equal(nodes[0].ID(), nodes[0].getSuccessor().ID())
		return
	}

	for i := 0; i < len(nodes); i++ {
		next := (i + 1) % len(nodes)
		as.Equal(nodes[next].ID(), nodes[i].getSuccessor().ID(), "successor chain at index %d", i)
	}
	for i := 0; i < len(nodes); i++ {
		prev := (i - 1 + len(nodes)) % len(nodes)
		as.Equal(nodes[prev].ID(), nodes[i].getPredecessor().ID(), "predecessor chain at index %d", i)
	}
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCreateSingleton(t *testing.T) {
	as := require.New(t)

	reg := newRegistry()
	n := newTestNode(t, as, reg, 42)
	as.NoError(n.Create())

	waitStable(as, n)
	checkRing(as, []*Node{n})
	as.True(n.IsAlone())

	n.Leave(context.Background())
}

func TestJoinTwoNodes(t *testing.T) {
	as := require.New(t)

	reg := newRegistry()
	n1 := newTestNode(t, as, reg, 10)
	as.NoError(n1.Create())

	n2 := newTestNode(t, as, reg, 200)
	as.NoError(n2.Join(context.Background(), n1.cfg.Self.URI))

	waitStableAll(as, []*Node{n1, n2})
	checkRing(as, []*Node{n1, n2})

	n1.Leave(context.Background())
	n2.Leave(context.Background())
}

func TestRingConvergesWithSeveralNodes(t *testing.T) {
	as := require.New(t)

	reg := newRegistry()
	ids := []uint64{5, 40, 90, 150, 210}

	n0 := newTestNode(t, as, reg, ids[0])
	as.NoError(n0.Create())

	nodes := []*Node{n0}
	for _, id := range ids[1:] {
		n := newTestNode(t, as, reg, id)
		as.NoError(n.Join(context.Background(), n0.cfg.Self.URI))
		nodes = append(nodes, n)
		<-time.After(testInterval)
	}

	waitStableAll(as, nodes)
	as.NoError(testcond.WaitForCondition(func() bool {
		trace := n0.RingTrace(context.Background())
		return trace != "unstable"
	}, testInterval, time.Second*5))

	checkRing(as, nodes)

	for _, n := range nodes {
		n.Leave(context.Background())
	}
}

func TestLeaveSplicesNeighbors(t *testing.T) {
	as := require.New(t)

	reg := newRegistry()
	n1 := newTestNode(t, as, reg, 1)
	as.NoError(n1.Create())

	n2 := newTestNode(t, as, reg, 100)
	as.NoError(n2.Join(context.Background(), n1.cfg.Self.URI))

	n3 := newTestNode(t, as, reg, 200)
	as.NoError(n3.Join(context.Background(), n1.cfg.Self.URI))

	waitStableAll(as, []*Node{n1, n2, n3})
	checkRing(as, []*Node{n1, n2, n3})

	n2.Leave(context.Background())

	as.NoError(testcond.WaitForCondition(func() bool {
		succ := n1.getSuccessor()
		pred := n3.getPredecessor()
		return succ != nil && succ.ID() == n3.ID() && pred != nil && pred.ID() == n1.ID()
	}, testInterval, time.Second*5))

	n1.Leave(context.Background())
	n3.Leave(context.Background())
}

func TestSuccessorCandidates(t *testing.T) {
	as := require.New(t)

	reg := newRegistry()
	n1 := newTestNode(t, as, reg, 1)
	as.NoError(n1.Create())

	n2 := newTestNode(t, as, reg, 100)
	as.NoError(n2.Join(context.Background(), n1.cfg.Self.URI))

	n3 := newTestNode(t, as, reg, 200)
	as.NoError(n3.Join(context.Background(), n1.cfg.Self.URI))

	waitStableAll(as, []*Node{n1, n2, n3})

	candidates, err := n1.SuccessorCandidates(context.Background(), 50, 2)
	as.NoError(err)
	as.Len(candidates, 2)
	as.Equal(n2.ID(), candidates[0].ID)

	n1.Leave(context.Background())
	n2.Leave(context.Background())
	n3.Leave(context.Background())
}
