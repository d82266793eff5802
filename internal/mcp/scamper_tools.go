package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kokistudios/thinker/internal/fault"
	"github.com/kokistudios/thinker/internal/process"
	"github.com/kokistudios/thinker/internal/session"
)

type ScamperStartArgs struct {
	Topic            string `json:"topic,omitempty" jsonschema:"Required. Product, process or idea to improve"`
	CurrentSituation string `json:"current_situation,omitempty" jsonschema:"Required. How things work today"`
	Context          string `json:"context,omitempty" jsonschema:"Goals and constraints"`
}

type IdeaArgs struct {
	Idea        string `json:"idea,omitempty" jsonschema:"Required. The idea"`
	Explanation string `json:"explanation,omitempty" jsonschema:"Why it could work"`
}

type ApplyTechniqueArgs struct {
	SessionID string     `json:"session_id,omitempty" jsonschema:"Required. SCAMPER session ID"`
	Technique string     `json:"technique,omitempty" jsonschema:"Required. Substitute, Combine, Adapt, Modify, Put to other use, Eliminate or Reverse (or its letter)"`
	Ideas     []IdeaArgs `json:"ideas,omitempty" jsonschema:"Required. Ideas produced with this technique"`
}

type EvaluationArgs struct {
	Idea        string `json:"idea,omitempty" jsonschema:"Required. Idea text, exactly as recorded"`
	Feasibility int    `json:"feasibility,omitempty" jsonschema:"0 (impossible) to 10 (trivial)"`
	Impact      int    `json:"impact,omitempty" jsonschema:"0 (none) to 10 (transformative)"`
}

type EvaluateIdeasArgs struct {
	SessionID   string           `json:"session_id,omitempty" jsonschema:"Required. SCAMPER session ID"`
	Evaluations []EvaluationArgs `json:"evaluations,omitempty" jsonschema:"Required. Scores for recorded ideas"`
}

type ComprehensiveArgs struct {
	SessionID        string `json:"session_id,omitempty" jsonschema:"Required. Session to fill in. Omit to start a new session from topic and current_situation"`
	Topic            string `json:"topic,omitempty" jsonschema:"Required. Topic, when no session_id is given"`
	CurrentSituation string `json:"current_situation,omitempty" jsonschema:"Required. Current situation, when no session_id is given"`
	Context          string `json:"context,omitempty" jsonschema:"Goals and constraints, when no session_id is given"`
}

type CompleteScamperArgs struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"Required. SCAMPER session ID"`
	Notes     string `json:"notes,omitempty" jsonschema:"Closing notes"`
}

func (s *Server) registerScamperTools() {
	addTool(s, &mcp.Tool{
		Name:        "scamper_start_session",
		Description: "Start a SCAMPER ideation session on a topic.",
		Annotations: mutating("Start SCAMPER"),
	}, func(_ context.Context, args ScamperStartArgs) (any, error) {
		return s.start(session.KindScamper, process.StartScamper{
			Topic:            args.Topic,
			CurrentSituation: args.CurrentSituation,
			Context:          args.Context,
		})
	})

	addTool(s, &mcp.Tool{
		Name:        "scamper_apply_technique",
		Description: "Record ideas for one SCAMPER technique. Each technique applies once per session; the result carries its guidance questions.",
		Annotations: mutating("Apply Technique"),
	}, func(_ context.Context, args ApplyTechniqueArgs) (any, error) {
		payload := process.ApplyTechnique{Technique: args.Technique}
		for _, idea := range args.Ideas {
			payload.Ideas = append(payload.Ideas, process.IdeaInput{Idea: idea.Idea, Explanation: idea.Explanation})
		}
		return s.transition(session.KindScamper, args.SessionID, process.ActionApplyTechnique, payload)
	})

	addTool(s, &mcp.Tool{
		Name:        "scamper_evaluate_ideas",
		Description: "Score recorded ideas by feasibility and impact. Returns a ranking and per-technique averages.",
		Annotations: mutating("Evaluate Ideas"),
	}, func(_ context.Context, args EvaluateIdeasArgs) (any, error) {
		payload := process.EvaluateIdeas{}
		for _, ev := range args.Evaluations {
			payload.Evaluations = append(payload.Evaluations, process.EvaluationInput{
				Idea:        ev.Idea,
				Feasibility: ev.Feasibility,
				Impact:      ev.Impact,
			})
		}
		return s.transition(session.KindScamper, args.SessionID, process.ActionEvaluateIdeas, payload)
	})

	addTool(s, &mcp.Tool{
		Name: "scamper_generate_comprehensive",
		Description: "Apply every SCAMPER technique with template ideas. Without session_id, topic and " +
			"current_situation start a new session in the same call.",
		Annotations: mutating("Generate Comprehensive"),
	}, s.handleComprehensive)

	addTool(s, &mcp.Tool{
		Name:        "scamper_complete_session",
		Description: "Complete an evaluated SCAMPER session. Reports the top idea.",
		Annotations: mutating("Complete SCAMPER"),
	}, func(_ context.Context, args CompleteScamperArgs) (any, error) {
		return s.transition(session.KindScamper, args.SessionID, process.ActionCompleteSession, process.CompleteScamper{Notes: args.Notes})
	})

	s.addGetTool(session.KindScamper, "scamper_get_session", "SCAMPER session")
	s.addListTool(session.KindScamper, "scamper_list_sessions", "SCAMPER session")
}

func (s *Server) handleComprehensive(_ context.Context, args ComprehensiveArgs) (any, error) {
	if args.SessionID != "" {
		if args.Topic != "" || args.CurrentSituation != "" || args.Context != "" {
			return nil, fault.Validationf("topic, current_situation and context only apply without session_id")
		}
		return s.transition(session.KindScamper, args.SessionID, process.ActionGenerateComprehensive, process.GenerateComprehensive{})
	}

	if args.Topic == "" || args.CurrentSituation == "" {
		return nil, fault.Validationf("topic and current_situation are required without session_id")
	}
	return s.start(session.KindScamper,
		process.StartScamper{Topic: args.Topic, CurrentSituation: args.CurrentSituation, Context: args.Context},
		process.Step{Action: process.ActionGenerateComprehensive, Payload: process.GenerateComprehensive{}},
	)
}
