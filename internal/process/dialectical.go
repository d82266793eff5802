package process

import (
	"fmt"
	"slices"

	"github.com/kokistudios/thinker/internal/session"
)

const (
	DialecticStarted       State = "started"
	DialecticThesisSet     State = "thesis_set"
	DialecticAntithesisSet State = "antithesis_set"
	DialecticCompleted     State = "completed"
)

const (
	ActionStartProcess         = "startProcess"
	ActionSetThesis            = "setThesis"
	ActionSetAntithesis        = "setAntithesis"
	ActionCreateSynthesis      = "createSynthesis"
	ActionAnalyzeContradiction = "analyzeContradiction"
)

type StartDialectic struct {
	Topic   string `json:"topic" validate:"required"`
	Context string `json:"context"`
}

type SetThesis struct {
	Thesis   string   `json:"thesis" validate:"required"`
	Evidence []string `json:"evidence" validate:"omitempty,dive,required"`
}

type SetAntithesis struct {
	Antithesis string   `json:"antithesis" validate:"required"`
	Evidence   []string `json:"evidence" validate:"omitempty,dive,required"`
}

type CreateSynthesis struct {
	Synthesis string `json:"synthesis" validate:"required"`
	Reasoning string `json:"reasoning"`
}

type AnalyzeContradiction struct {
	Focus string `json:"focus"`
}

// Dialectic is the subject of a dialectical session.
type Dialectic struct {
	Topic   string `json:"topic"`
	Context string `json:"context,omitempty"`
}

type Position struct {
	Role      string   `json:"role"`
	Statement string   `json:"statement"`
	Evidence  []string `json:"evidence"`
}

func (p Position) clone() any {
	p.Evidence = slices.Clone(p.Evidence)
	return p
}

type Synthesis struct {
	Statement string `json:"statement"`
	Reasoning string `json:"reasoning,omitempty"`
}

type Contradiction struct {
	Focus            string   `json:"focus,omitempty"`
	Tensions         []string `json:"tensions"`
	IntegrationHints []string `json:"integration_hints"`
	Approach         string   `json:"approach"`
}

func (c Contradiction) clone() any {
	c.Tensions = slices.Clone(c.Tensions)
	c.IntegrationHints = slices.Clone(c.IntegrationHints)
	return c
}

type DialecticProgress struct {
	Thesis        *Position      `json:"thesis,omitempty"`
	Antithesis    *Position      `json:"antithesis,omitempty"`
	Synthesis     *Synthesis     `json:"synthesis,omitempty"`
	Contradiction *Contradiction `json:"contradiction,omitempty"`
}

func positions(history []Record) (thesis, antithesis *Position) {
	for _, p := range dataOf[Position](history) {
		c := p.clone().(Position)
		switch p.Role {
		case "thesis":
			thesis = &c
		case "antithesis":
			antithesis = &c
		}
	}
	return thesis, antithesis
}

func evidence(e []string) []string {
	if e == nil {
		return []string{}
	}
	return slices.Clone(e)
}

var integrationHints = []string{
	"Look for the conditions under which each position holds",
	"Separate factual disagreements from disagreements about values",
	"Ask what evidence both sides would accept",
	"Consider combining the positions with a narrower scope or a time limit",
}

func analyze(topic string, thesis, antithesis *Position, focus string) Contradiction {
	c := Contradiction{
		Focus: focus,
		Tensions: []string{
			fmt.Sprintf("Both positions address %q but reach opposing conclusions", topic),
			fmt.Sprintf("Thesis: %s", thesis.Statement),
			fmt.Sprintf("Antithesis: %s", antithesis.Statement),
		},
		IntegrationHints: slices.Clone(integrationHints),
		Approach:         "Name the goal both positions share, then test a synthesis against the strongest evidence on each side",
	}
	if nt, na := len(thesis.Evidence), len(antithesis.Evidence); nt != na {
		c.Tensions = append(c.Tensions, fmt.Sprintf("The thesis cites %d piece(s) of evidence, the antithesis %d", nt, na))
	}
	if focus != "" {
		c.Tensions = append(c.Tensions, fmt.Sprintf("Under the focus %q, decide which position explains more", focus))
	}
	return c
}

func DialecticalMachine() *Machine {
	return &Machine{
		Kind:     session.KindDialectical,
		States:   []State{DialecticStarted, DialecticThesisSet, DialecticAntithesisSet, DialecticCompleted},
		Initial:  DialecticStarted,
		Terminal: []State{DialecticCompleted},
		Start: Rule{
			Action: ActionStartProcess,
			From:   []State{DialecticStarted},
			To:     DialecticStarted,
			Apply: typed(func(v View, p StartDialectic) (Outcome, error) {
				return Outcome{
					Data:  Dialectic{Topic: p.Topic, Context: p.Context},
					Title: session.Headline(p.Topic, 60),
				}, nil
			}),
		},
		Rules: []Rule{
			{
				Action: ActionSetThesis,
				From:   []State{DialecticStarted},
				To:     DialecticThesisSet,
				Apply: typed(func(v View, p SetThesis) (Outcome, error) {
					return Outcome{Data: Position{Role: "thesis", Statement: p.Thesis, Evidence: evidence(p.Evidence)}}, nil
				}),
			},
			{
				Action: ActionSetAntithesis,
				From:   []State{DialecticThesisSet},
				To:     DialecticAntithesisSet,
				Apply: typed(func(v View, p SetAntithesis) (Outcome, error) {
					return Outcome{Data: Position{Role: "antithesis", Statement: p.Antithesis, Evidence: evidence(p.Evidence)}}, nil
				}),
			},
			{
				Action: ActionCreateSynthesis,
				From:   []State{DialecticAntithesisSet},
				To:     DialecticCompleted,
				Apply: typed(func(v View, p CreateSynthesis) (Outcome, error) {
					return Outcome{Data: Synthesis{Statement: p.Synthesis, Reasoning: p.Reasoning}}, nil
				}),
			},
			{
				Action: ActionAnalyzeContradiction,
				From:   []State{DialecticAntithesisSet},
				To:     DialecticCompleted,
				Apply: typed(func(v View, p AnalyzeContradiction) (Outcome, error) {
					thesis, antithesis := positions(v.History)
					return Outcome{Data: analyze(v.Subject.(Dialectic).Topic, thesis, antithesis, p.Focus)}, nil
				}),
			},
		},
		Progress: func(v View) any {
			var pr DialecticProgress
			pr.Thesis, pr.Antithesis = positions(v.History)
			if s := dataOf[Synthesis](v.History); len(s) > 0 {
				pr.Synthesis = &s[len(s)-1]
			}
			if c := dataOf[Contradiction](v.History); len(c) > 0 {
				cc := c[len(c)-1].clone().(Contradiction)
				pr.Contradiction = &cc
			}
			return pr
		},
	}
}
