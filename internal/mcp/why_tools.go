package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kokistudios/thinker/internal/process"
	"github.com/kokistudios/thinker/internal/session"
)

type WhyStartArgs struct {
	Problem  string `json:"problem,omitempty" jsonschema:"Required. The problem or symptom to analyze"`
	Context  string `json:"context,omitempty" jsonschema:"Background on the problem"`
	MaxDepth int    `json:"max_depth,omitempty" jsonschema:"How many whys to ask (default 5)"`
}

type WhyAnswerArgs struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"Required. Analysis session ID"`
	Answer    string `json:"answer,omitempty" jsonschema:"Required. Answer to the current why question"`
	Level     int    `json:"level,omitempty" jsonschema:"Level being answered. When given it must match the open question"`
	RootCause bool   `json:"root_cause,omitempty" jsonschema:"True if this answer is the root cause; ends the analysis early"`
}

type WhyListItem struct {
	ID        string         `json:"id"`
	Problem   string         `json:"problem"`
	Status    session.Status `json:"status"`
	Answered  int            `json:"answered"`
	MaxDepth  int            `json:"max_depth"`
	CreatedAt time.Time      `json:"created_at"`
}

type WhyListResult struct {
	Analyses []WhyListItem `json:"analyses"`
}

func (s *Server) registerWhyTools() {
	addTool(s, &mcp.Tool{
		Name:        "why_analysis_start",
		Description: "Start a five-whys root cause analysis. Returns the first why question.",
		Annotations: mutating("Start Why Analysis"),
	}, func(_ context.Context, args WhyStartArgs) (any, error) {
		return s.start(session.KindFiveWhy, process.StartAnalysis{
			Problem:  args.Problem,
			Context:  args.Context,
			MaxDepth: args.MaxDepth,
		})
	})

	addTool(s, &mcp.Tool{
		Name:        "why_analysis_add_answer",
		Description: "Answer the open why question. Returns the next question, or the root cause once the analysis completes.",
		Annotations: mutating("Answer Why"),
	}, func(_ context.Context, args WhyAnswerArgs) (any, error) {
		return s.transition(session.KindFiveWhy, args.SessionID, process.ActionAddAnswer, process.AddAnswer{
			Answer:    args.Answer,
			Level:     args.Level,
			RootCause: args.RootCause,
		})
	})

	s.addGetTool(session.KindFiveWhy, "why_analysis_get", "why analysis")

	addTool(s, &mcp.Tool{
		Name:        "why_analysis_list",
		Description: "List why analyses, oldest first, with answered and maximum depth.",
		Annotations: readOnly("List Why Analyses"),
	}, func(context.Context, ListArgs) (any, error) {
		snaps := s.processes.ListSnapshots(session.KindFiveWhy)
		out := WhyListResult{Analyses: make([]WhyListItem, 0, len(snaps))}
		for _, snap := range snaps {
			item := WhyListItem{
				ID:        snap.Session.ID,
				Status:    snap.Session.Status,
				CreatedAt: snap.Session.CreatedAt,
			}
			if a, ok := snap.Process.Subject.(process.Analysis); ok {
				item.Problem = a.Problem
			}
			if pr, ok := snap.Process.Progress.(process.WhyProgress); ok {
				item.Answered, item.MaxDepth = pr.Answered, pr.MaxDepth
			}
			out.Analyses = append(out.Analyses, item)
		}
		return out, nil
	})
}
