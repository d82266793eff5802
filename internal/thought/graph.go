package thought

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/kokistudios/thinker/internal/fault"
	"github.com/kokistudios/thinker/internal/snapshot"
)

// Node is one stored thought. Nodes are never edited after insertion.
type Node struct {
	SequenceNumber             int
	BranchID                   string
	Content                    string
	IsRevision                 bool
	RevisesSequenceNumber      *int
	BranchesFromSequenceNumber *int
	EstimatedTotalThoughts     int
	ContinuationExpected       bool
	NeedsMoreThoughts          bool
	CreatedAt                  time.Time
}

func (n Node) view() snapshot.Node {
	return snapshot.Node{
		SequenceNumber:             n.SequenceNumber,
		BranchID:                   n.BranchID,
		Content:                    n.Content,
		IsRevision:                 n.IsRevision,
		RevisesSequenceNumber:      snapshot.IntPtr(n.RevisesSequenceNumber),
		BranchesFromSequenceNumber: snapshot.IntPtr(n.BranchesFromSequenceNumber),
		EstimatedTotalThoughts:     n.EstimatedTotalThoughts,
		ContinuationExpected:       n.ContinuationExpected,
		NeedsMoreThoughts:          n.NeedsMoreThoughts,
		CreatedAt:                  n.CreatedAt,
	}
}

// branch holds nodes ordered by sequence number. The main line is the branch
// with an empty id and no parent.
type branch struct {
	id     string
	parent string
	from   int
	nodes  []Node
}

func (b *branch) find(seq int) (int, bool) {
	return slices.BinarySearchFunc(b.nodes, seq, func(n Node, s int) int {
		return cmp.Compare(n.SequenceNumber, s)
	})
}

func (b *branch) insert(n Node) {
	i, _ := b.find(n.SequenceNumber)
	b.nodes = slices.Insert(b.nodes, i, n)
}

func (b *branch) highest() int {
	if len(b.nodes) == 0 {
		return 0
	}
	return b.nodes[len(b.nodes)-1].SequenceNumber
}

// Graph is the state of one thought-graph session.
//
// Every revises and branches-from reference is checked against nodes that are
// already stored, so the graph cannot contain a cycle.
type Graph struct {
	opts     Options
	main     *branch
	branches map[string]*branch
	count    int
	maxSeq   int
	last     *Node
}

func newGraph(opts Options) *Graph {
	return &Graph{
		opts:     opts,
		main:     &branch{},
		branches: make(map[string]*branch),
	}
}

func (g *Graph) branch(id string) *branch {
	if id == "" {
		return g.main
	}
	return g.branches[id]
}

// visible reports whether seq is part of the lineage of branch id, looking only
// at nodes numbered at or below limit. Each hop to a parent narrows the limit
// to the fork point.
func (g *Graph) visible(id string, limit, seq int) bool {
	for {
		b := g.branch(id)
		if b == nil {
			return false
		}
		if seq <= limit {
			if _, ok := b.find(seq); ok {
				return true
			}
		}
		if b == g.main {
			return false
		}
		limit = min(limit, b.from)
		id = b.parent
	}
}

// append validates p and stores a new node. On error the graph is untouched.
func (g *Graph) append(content string, p Params, now time.Time) (Node, error) {
	seq := p.SequenceNumber
	switch {
	case strings.TrimSpace(content) == "":
		return Node{}, fault.Validationf("content is required")
	case seq <= 0:
		return Node{}, fault.Validationf("sequence_number must be a positive integer, got %d", seq)
	case p.IsRevision && p.RevisesSequenceNumber == nil:
		return Node{}, fault.Validationf("is_revision requires revises_sequence_number")
	case !p.IsRevision && p.RevisesSequenceNumber != nil:
		return Node{}, fault.Validationf("revises_sequence_number is only valid with is_revision")
	case p.BranchID == "" && p.BranchesFromSequenceNumber != nil:
		return Node{}, fault.Validationf("branches_from_sequence_number requires branch_id")
	case p.BranchID == "" && p.ParentBranchID != "":
		return Node{}, fault.Validationf("parent_branch_id requires branch_id")
	}

	target := g.branch(p.BranchID)
	isNew := target == nil

	if !isNew {
		if _, dup := target.find(seq); dup {
			return Node{}, fault.New(fault.DuplicateSequence, "sequence number %d already used on %s", seq, label(p.BranchID))
		}
		if g.opts.StrictSequence && seq <= target.highest() {
			return Node{}, fault.Validationf("sequence number %d must exceed %d on %s", seq, target.highest(), label(p.BranchID))
		}
	}

	if p.IsRevision {
		rev := *p.RevisesSequenceNumber
		if rev >= seq {
			return Node{}, fault.Referencef("revision of %d must come from a later thought, got sequence number %d", rev, seq)
		}
		var ok bool
		if isNew {
			ok = p.BranchesFromSequenceNumber != nil && g.visible(p.ParentBranchID, *p.BranchesFromSequenceNumber, rev)
		} else {
			ok = g.visible(p.BranchID, math.MaxInt, rev)
		}
		if !ok {
			return Node{}, fault.Referencef("thought %d does not exist in the lineage of %s", rev, label(p.BranchID))
		}
	}

	if isNew {
		if p.BranchesFromSequenceNumber == nil {
			return Node{}, fault.Referencef("new branch %q needs branches_from_sequence_number", p.BranchID)
		}
		if g.branch(p.ParentBranchID) == nil {
			return Node{}, fault.Referencef("parent branch %q does not exist", p.ParentBranchID)
		}
		from := *p.BranchesFromSequenceNumber
		if !g.visible(p.ParentBranchID, math.MaxInt, from) {
			return Node{}, fault.Referencef("cannot branch %q from thought %d: not found on %s", p.BranchID, from, label(p.ParentBranchID))
		}
	} else if p.BranchID != "" {
		if p.BranchesFromSequenceNumber != nil && *p.BranchesFromSequenceNumber != target.from {
			return Node{}, fault.Referencef("branch %q forks from %d, not %d", p.BranchID, target.from, *p.BranchesFromSequenceNumber)
		}
		if p.ParentBranchID != "" && p.ParentBranchID != target.parent {
			return Node{}, fault.Referencef("branch %q belongs to %s, not %q", p.BranchID, label(target.parent), p.ParentBranchID)
		}
	}

	if p.EstimatedTotalThoughts <= 0 {
		return Node{}, fault.Validationf("estimated_total_thoughts must be a positive integer, got %d", p.EstimatedTotalThoughts)
	}
	if !g.opts.AllowTotalDecrease && g.last != nil && p.EstimatedTotalThoughts < g.last.EstimatedTotalThoughts {
		return Node{}, fault.Validationf("estimated_total_thoughts may not drop from %d to %d", g.last.EstimatedTotalThoughts, p.EstimatedTotalThoughts)
	}

	node := Node{
		SequenceNumber:             seq,
		BranchID:                   p.BranchID,
		Content:                    content,
		IsRevision:                 p.IsRevision,
		RevisesSequenceNumber:      snapshot.IntPtr(p.RevisesSequenceNumber),
		BranchesFromSequenceNumber: snapshot.IntPtr(p.BranchesFromSequenceNumber),
		EstimatedTotalThoughts:     p.EstimatedTotalThoughts,
		ContinuationExpected:       p.ContinuationExpected,
		NeedsMoreThoughts:          p.NeedsMoreThoughts,
		CreatedAt:                  now,
	}
	if isNew {
		target = &branch{id: p.BranchID, parent: p.ParentBranchID, from: *p.BranchesFromSequenceNumber}
		g.branches[p.BranchID] = target
	}
	target.insert(node)
	g.count++
	g.maxSeq = max(g.maxSeq, seq)
	g.last = &node
	return node.clone(), nil
}

func (n Node) clone() Node {
	n.RevisesSequenceNumber = snapshot.IntPtr(n.RevisesSequenceNumber)
	n.BranchesFromSequenceNumber = snapshot.IntPtr(n.BranchesFromSequenceNumber)
	return n
}

func label(branchID string) string {
	if branchID == "" {
		return "the main line"
	}
	return "branch " + branchID
}

func views(nodes []Node) []snapshot.Node {
	out := make([]snapshot.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.view()
	}
	return out
}

func (g *Graph) Project(s *snapshot.Snapshot) {
	gv := &snapshot.Graph{
		MainLine:    views(g.main.nodes),
		Branches:    make(map[string]snapshot.Branch, len(g.branches)),
		NodeCount:   g.count,
		BranchCount: len(g.branches),
	}
	for id, b := range g.branches {
		gv.Branches[id] = snapshot.Branch{
			ID:         id,
			Parent:     b.parent,
			ForkedFrom: b.from,
			Nodes:      views(b.nodes),
		}
	}
	if g.last != nil {
		gv.EstimatedTotalThoughts = max(g.last.EstimatedTotalThoughts, g.maxSeq)
		gv.LastSequenceNumber = g.last.SequenceNumber
		gv.ContinuationExpected = g.last.ContinuationExpected
	}
	s.Graph = gv
}
