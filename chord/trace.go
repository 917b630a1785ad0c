package chord

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// FingerTrace groups finger slots by the peer they resolve to, returning a
// "lowIndex/highIndex" label (the lowest and highest slot pointing at that
// peer) mapped to that peer's id. It exists purely for operator-facing introspection.
func (n *Node) FingerTrace() map[string]string {
	ranges := make(map[uint64][2]int)
	for i := 0; i < int(n.bits()); i++ {
		c := n.getFinger(i)
		if c == nil {
			continue
		}
		r, ok := ranges[c.ID()]
		if !ok {
			ranges[c.ID()] = [2]int{i, i}
			continue
		}
		if i < r[0] {
			r[0] = i
		}
		if i > r[1] {
			r[1] = i
		}
		ranges[c.ID()] = r
	}

	ids := make([]uint64, 0, len(ranges))
	for id := range ranges {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make(map[string]string, len(ids))
	for _, id := range ids {
		r := ranges[id]
		out[fmt.Sprintf("%d/%d", r[0], r[1])] = strconv.FormatUint(id, 10)
	}
	return out
}

// RingTrace walks find_successor(self.id+1), find_successor(successor.id+1),
// and so on until it returns to self, rendering the hop sequence. It
// reports "unstable" if the walk revisits a node without reaching self,
// which signals a routing inconsistency somewhere in the ring.
func (n *Node) RingTrace(ctx context.Context) string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatUint(n.ID(), 10))

	seen := map[uint64]bool{n.ID(): true}
	cur := n.ID()
	for {
		next, err := n.FindSuccessor(ctx, ModuloSum(cur, 1, n.bits()))
		if err != nil {
			sb.WriteString(" -> error(")
			sb.WriteString(err.Error())
			sb.WriteString(")")
			return sb.String()
		}
		sb.WriteString(" -> ")
		sb.WriteString(strconv.FormatUint(next.ID, 10))
		if next.ID == n.ID() {
			return sb.String()
		}
		if seen[next.ID] {
			return "unstable"
		}
		seen[next.ID] = true
		cur = next.ID
	}
}

// StatsHandler renders a human-readable snapshot of this node's routing
// state: lifecycle, predecessor/successors, and the finger table grouped
// by target.
func (n *Node) StatsHandler(w http.ResponseWriter, r *http.Request) {
	pred := n.getPredecessor()
	succList := n.getSuccessorList()

	w.Header().Set("content-type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "node %d -- state: %s, in_ring: %v\n\n", n.ID(), n.state.Get(), n.IsInRing())

	nodesTable := table.NewWriter()
	nodesTable.SetOutputMirror(w)
	nodesTable.AppendHeader(table.Row{"Role", "ID", "URI"})
	if pred != nil {
		nodesTable.AppendRow(table.Row{"Predecessor", pred.ID(), pred.Info().URI})
	}
	nodesTable.AppendRow(table.Row{"Self", n.ID(), n.cfg.Self.URI})
	for i, s := range succList {
		nodesTable.AppendRow(table.Row{fmt.Sprintf("Successor[%d]", i), s.ID(), s.Info().URI})
	}
	nodesTable.SetStyle(table.StyleLight)
	nodesTable.Render()

	fmt.Fprintln(w)

	fingerTable := table.NewWriter()
	fingerTable.SetOutputMirror(w)
	fingerTable.AppendHeader(table.Row{"Finger Range", "Target ID"})
	trace := n.FingerTrace()
	ranges := make([]string, 0, len(trace))
	for r := range trace {
		ranges = append(ranges, r)
	}
	sort.Strings(ranges)
	for _, r := range ranges {
		fingerTable.AppendRow(table.Row{r, trace[r]})
	}
	fingerTable.SetStyle(table.StyleLight)
	fingerTable.Render()
}
