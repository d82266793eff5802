package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kokistudios/thinker/internal/fault"
	"github.com/kokistudios/thinker/internal/process"
	"github.com/kokistudios/thinker/internal/session"
)

type DialecticStartArgs struct {
	Topic   string `json:"topic,omitempty" jsonschema:"Required. The question or tension to reason about"`
	Context string `json:"context,omitempty" jsonschema:"Background on the topic"`
}

type PositionArgs struct {
	SessionID string   `json:"session_id,omitempty" jsonschema:"Required. Dialectical session ID"`
	Position  string   `json:"position,omitempty" jsonschema:"Required. Statement of the position"`
	Evidence  []string `json:"evidence,omitempty" jsonschema:"Supporting evidence, one item per entry"`
}

type SynthesisArgs struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"Required. Dialectical session ID"`
	Synthesis string `json:"synthesis,omitempty" jsonschema:"Required. A position that resolves thesis and antithesis"`
	Reasoning string `json:"reasoning,omitempty" jsonschema:"How the synthesis integrates both sides"`
}

type ContradictionArgs struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"Required. Session with thesis and antithesis set. Omit to analyze topic, position_a and position_b in one call"`
	Focus     string `json:"focus,omitempty" jsonschema:"Aspect of the contradiction to concentrate on"`
	Topic     string `json:"topic,omitempty" jsonschema:"Required. Topic, when no session_id is given"`
	PositionA string `json:"position_a,omitempty" jsonschema:"First position (thesis), when no session_id is given"`
	PositionB string `json:"position_b,omitempty" jsonschema:"Opposing position (antithesis), when no session_id is given"`
}

func (s *Server) registerDialecticalTools() {
	addTool(s, &mcp.Tool{
		Name:        "dialectical_start_process",
		Description: "Start a thesis, antithesis, synthesis process on a topic.",
		Annotations: mutating("Start Dialectic"),
	}, func(_ context.Context, args DialecticStartArgs) (any, error) {
		return s.start(session.KindDialectical, process.StartDialectic{Topic: args.Topic, Context: args.Context})
	})

	addTool(s, &mcp.Tool{
		Name:        "dialectical_set_thesis",
		Description: "State the thesis of a dialectical process.",
		Annotations: mutating("Set Thesis"),
	}, func(_ context.Context, args PositionArgs) (any, error) {
		return s.transition(session.KindDialectical, args.SessionID, process.ActionSetThesis,
			process.SetThesis{Thesis: args.Position, Evidence: args.Evidence})
	})

	addTool(s, &mcp.Tool{
		Name:        "dialectical_set_antithesis",
		Description: "State the antithesis opposing the thesis.",
		Annotations: mutating("Set Antithesis"),
	}, func(_ context.Context, args PositionArgs) (any, error) {
		return s.transition(session.KindDialectical, args.SessionID, process.ActionSetAntithesis,
			process.SetAntithesis{Antithesis: args.Position, Evidence: args.Evidence})
	})

	addTool(s, &mcp.Tool{
		Name:        "dialectical_create_synthesis",
		Description: "Resolve thesis and antithesis into a synthesis. Completes the process.",
		Annotations: mutating("Create Synthesis"),
	}, func(_ context.Context, args SynthesisArgs) (any, error) {
		return s.transition(session.KindDialectical, args.SessionID, process.ActionCreateSynthesis,
			process.CreateSynthesis{Synthesis: args.Synthesis, Reasoning: args.Reasoning})
	})

	addTool(s, &mcp.Tool{
		Name: "dialectical_analyze_contradiction",
		Description: "Analyze the tensions between thesis and antithesis and suggest how to integrate them. " +
			"Completes the process without a synthesis. Without session_id, topic, position_a and position_b " +
			"start and complete a new process in one call.",
		Annotations: mutating("Analyze Contradiction"),
	}, s.handleAnalyzeContradiction)

	s.addGetTool(session.KindDialectical, "dialectical_get_process", "dialectical process")
	s.addListTool(session.KindDialectical, "dialectical_list_processes", "dialectical process")
}

func (s *Server) handleAnalyzeContradiction(_ context.Context, args ContradictionArgs) (any, error) {
	analyze := process.AnalyzeContradiction{Focus: args.Focus}
	if args.SessionID != "" {
		if args.Topic != "" || args.PositionA != "" || args.PositionB != "" {
			return nil, fault.Validationf("topic, position_a and position_b only apply without session_id")
		}
		return s.transition(session.KindDialectical, args.SessionID, process.ActionAnalyzeContradiction, analyze)
	}

	if args.Topic == "" || args.PositionA == "" || args.PositionB == "" {
		return nil, fault.Validationf("topic, position_a and position_b are required without session_id")
	}
	return s.start(session.KindDialectical, process.StartDialectic{Topic: args.Topic},
		process.Step{Action: process.ActionSetThesis, Payload: process.SetThesis{Thesis: args.PositionA}},
		process.Step{Action: process.ActionSetAntithesis, Payload: process.SetAntithesis{Antithesis: args.PositionB}},
		process.Step{Action: process.ActionAnalyzeContradiction, Payload: analyze},
	)
}
