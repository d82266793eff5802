package mcp

import (
	"context"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kokistudios/thinker/internal/session"
	"github.com/kokistudios/thinker/internal/snapshot"
	"github.com/kokistudios/thinker/internal/thought"
)

type ThoughtAppendArgs struct {
	Content                    string `json:"content,omitempty" jsonschema:"Required. The thought itself: analysis, a hypothesis, a revision of an earlier step"`
	SequenceNumber             int    `json:"sequence_number,omitempty" jsonschema:"Required. Number of this thought within its branch, starting at 1. Numbers may be sparse"`
	EstimatedTotalThoughts     int    `json:"estimated_total_thoughts,omitempty" jsonschema:"Required. Current estimate of thoughts needed; may be adjusted as you go"`
	ContinuationExpected       bool   `json:"continuation_expected,omitempty" jsonschema:"Required. True if another thought will follow. False completes the session"`
	NeedsMoreThoughts          bool   `json:"needs_more_thoughts,omitempty" jsonschema:"Set when reaching the estimate but realizing more thinking is needed"`
	IsRevision                 bool   `json:"is_revision,omitempty" jsonschema:"True if this thought revises an earlier one; requires revises_sequence_number"`
	RevisesSequenceNumber      *int   `json:"revises_sequence_number,omitempty" jsonschema:"Which visible earlier thought is being reconsidered"`
	BranchID                   string `json:"branch_id,omitempty" jsonschema:"Branch to write to. A new id forks a branch and requires branches_from_sequence_number"`
	BranchesFromSequenceNumber *int   `json:"branches_from_sequence_number,omitempty" jsonschema:"Fork point of a new branch in its parent line"`
	ParentBranchID             string `json:"parent_branch_id,omitempty" jsonschema:"Branch a new branch forks from (default: the main line)"`
	SessionID                  string `json:"session_id,omitempty" jsonschema:"Session to continue. Omit to start a new session"`
}

type ThoughtAppendResult struct {
	SessionID              string          `json:"session_id"`
	Created                bool            `json:"created"`
	SequenceNumber         int             `json:"sequence_number"`
	BranchID               string          `json:"branch_id,omitempty"`
	EstimatedTotalThoughts int             `json:"estimated_total_thoughts"`
	ContinuationExpected   bool            `json:"continuation_expected"`
	NodeCount              int             `json:"node_count"`
	Branches               []string        `json:"branches"`
	Graph                  *snapshot.Graph `json:"graph"`
}

type SessionArgs struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"Required. Session ID returned when the session was created"`
}

type ListArgs struct{}

type ListResult struct {
	Sessions []snapshot.Snapshot `json:"sessions"`
}

type SummaryListResult struct {
	Sessions []session.Summary `json:"sessions"`
}

func (s *Server) registerThoughtTools() {
	addTool(s, &mcp.Tool{
		Name: "thought_append",
		Description: "Append one thought to a sequential thinking session. Thoughts can revise earlier thoughts " +
			"and fork named branches from any visible thought. Returns the session graph after the append.",
		Annotations: mutating("Append Thought"),
	}, s.handleThoughtAppend)

	addTool(s, &mcp.Tool{
		Name:        "thought_get_graph",
		Description: "Show a thinking session: the main line, every branch with its fork point, and counts.",
		Annotations: readOnly("Thought Graph"),
	}, func(_ context.Context, args SessionArgs) (any, error) {
		if err := requireSession(args.SessionID); err != nil {
			return nil, err
		}
		return s.thoughts.Graph(args.SessionID)
	})

	addTool(s, &mcp.Tool{
		Name:        "thought_list_sessions",
		Description: "List thinking sessions, oldest first.",
		Annotations: readOnly("Thinking Sessions"),
	}, func(context.Context, ListArgs) (any, error) {
		return SummaryListResult{Sessions: s.thoughts.List()}, nil
	})
}

func (s *Server) handleThoughtAppend(_ context.Context, args ThoughtAppendArgs) (any, error) {
	res, err := s.thoughts.Append(args.Content, thought.Params{
		SessionID:                  args.SessionID,
		SequenceNumber:             args.SequenceNumber,
		EstimatedTotalThoughts:     args.EstimatedTotalThoughts,
		ContinuationExpected:       args.ContinuationExpected,
		NeedsMoreThoughts:          args.NeedsMoreThoughts,
		IsRevision:                 args.IsRevision,
		RevisesSequenceNumber:      args.RevisesSequenceNumber,
		BranchID:                   args.BranchID,
		BranchesFromSequenceNumber: args.BranchesFromSequenceNumber,
		ParentBranchID:             args.ParentBranchID,
	})
	if err != nil {
		return nil, err
	}

	if res.Created {
		s.sessionCreated(session.KindThoughtGraph)
	}
	if s.metrics != nil {
		s.metrics.ObserveThought(res.Node.BranchID != "", res.Node.IsRevision)
	}

	g := res.Snapshot.Graph
	branches := make([]string, 0, len(g.Branches))
	for id := range g.Branches {
		branches = append(branches, id)
	}
	slices.Sort(branches)

	return ThoughtAppendResult{
		SessionID:              res.SessionID,
		Created:                res.Created,
		SequenceNumber:         res.Node.SequenceNumber,
		BranchID:               res.Node.BranchID,
		EstimatedTotalThoughts: g.EstimatedTotalThoughts,
		ContinuationExpected:   res.Node.ContinuationExpected,
		NodeCount:              g.NodeCount,
		Branches:               branches,
		Graph:                  g,
	}, nil
}
