package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kokistudios/thinker/internal/process"
	"github.com/kokistudios/thinker/internal/session"
	"github.com/kokistudios/thinker/internal/snapshot"
)

// ProcessResult is returned by every process tool that changes a session.
type ProcessResult struct {
	SessionID      string           `json:"session_id"`
	Kind           session.Kind     `json:"kind"`
	Title          string           `json:"title,omitempty"`
	State          string           `json:"state"`
	Terminal       bool             `json:"terminal"`
	AllowedActions []string         `json:"allowed_actions"`
	Record         *snapshot.Record `json:"record,omitempty"`
	Progress       any              `json:"progress,omitempty"`
}

// processResult reports the record the call produced. A plain start has none.
func processResult(res process.Result) ProcessResult {
	snap := res.Snapshot
	p := snap.Process
	out := ProcessResult{
		SessionID:      res.SessionID,
		Kind:           snap.Session.Kind,
		Title:          snap.Session.Title,
		State:          p.State,
		Terminal:       p.Terminal,
		AllowedActions: p.AllowedActions,
		Progress:       p.Progress,
	}
	if n := len(p.History); res.Record != nil && n > 0 {
		rec := p.History[n-1]
		out.Record = &rec
	}
	return out
}

func (s *Server) start(kind session.Kind, payload any, then ...process.Step) (any, error) {
	res, err := s.processes.Start(kind, payload, then...)
	if err != nil {
		return nil, err
	}
	s.sessionCreated(kind)
	for _, st := range then {
		s.transitioned(kind, st.Action)
	}
	return processResult(res), nil
}

func (s *Server) transition(kind session.Kind, id, action string, payload any) (any, error) {
	if err := requireSession(id); err != nil {
		return nil, err
	}
	res, err := s.processes.Transition(kind, id, action, payload)
	if err != nil {
		return nil, err
	}
	s.transitioned(kind, action)
	return processResult(res), nil
}

func (s *Server) addGetTool(kind session.Kind, name, noun string) {
	addTool(s, &mcp.Tool{
		Name:        name,
		Description: "Show a " + noun + " with its full history, allowed actions and progress.",
		Annotations: readOnly("Get " + noun),
	}, func(_ context.Context, args SessionArgs) (any, error) {
		if err := requireSession(args.SessionID); err != nil {
			return nil, err
		}
		return s.processes.Get(kind, args.SessionID)
	})
}

func (s *Server) addListTool(kind session.Kind, name, noun string) {
	addTool(s, &mcp.Tool{
		Name:        name,
		Description: "List every " + noun + ", oldest first.",
		Annotations: readOnly("List " + noun + "s"),
	}, func(context.Context, ListArgs) (any, error) {
		return ListResult{Sessions: s.processes.ListSnapshots(kind)}, nil
	})
}
