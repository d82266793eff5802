package process

import (
	"fmt"
	"strings"

	"github.com/kokistudios/thinker/internal/fault"
	"github.com/kokistudios/thinker/internal/session"
)

const (
	WhyAwaitingProblem State = "awaiting_problem"
	WhyAwaitingAnswer  State = "awaiting_answer"
	WhyCompleted       State = "completed"
)

const (
	ActionStartAnalysis = "startAnalysis"
	ActionAddAnswer     = "addAnswer"
)

type StartAnalysis struct {
	Problem  string `json:"problem" validate:"required"`
	Context  string `json:"context"`
	MaxDepth int    `json:"max_depth" validate:"omitempty,gt=0"`
}

type AddAnswer struct {
	Answer string `json:"answer" validate:"required"`
	// Level, when set, must name the currently open question.
	Level     int  `json:"level" validate:"omitempty,gt=0"`
	RootCause bool `json:"root_cause"`
}

// Analysis is the subject of a five-why session.
type Analysis struct {
	Problem       string `json:"problem"`
	Context       string `json:"context,omitempty"`
	MaxDepth      int    `json:"max_depth"`
	FirstQuestion string `json:"first_question"`
}

type WhyAnswer struct {
	Level        int    `json:"level"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	RootCause    bool   `json:"root_cause"`
	NextQuestion string `json:"next_question,omitempty"`
}

type WhyProgress struct {
	Answered        int         `json:"answered"`
	MaxDepth        int         `json:"max_depth"`
	CurrentQuestion string      `json:"current_question,omitempty"`
	RootCause       string      `json:"root_cause,omitempty"`
	Chain           []WhyAnswer `json:"chain"`
}

func firstWhy(problem string) string {
	return fmt.Sprintf("Why did %q happen?", strings.TrimSpace(problem))
}

func nextWhy(answer string) string {
	return fmt.Sprintf("Why %q?", strings.TrimRight(strings.TrimSpace(answer), ".!"))
}

func openQuestion(a Analysis, answers []WhyAnswer) string {
	if len(answers) == 0 {
		return a.FirstQuestion
	}
	return answers[len(answers)-1].NextQuestion
}

func FiveWhyMachine(opts FiveWhyOptions) *Machine {
	if opts.DefaultMaxDepth <= 0 {
		opts.DefaultMaxDepth = 5
	}
	if opts.MaxDepthLimit < opts.DefaultMaxDepth {
		opts.MaxDepthLimit = max(10, opts.DefaultMaxDepth)
	}
	return &Machine{
		Kind:     session.KindFiveWhy,
		States:   []State{WhyAwaitingProblem, WhyAwaitingAnswer, WhyCompleted},
		Initial:  WhyAwaitingProblem,
		Terminal: []State{WhyCompleted},
		Start: Rule{
			Action: ActionStartAnalysis,
			From:   []State{WhyAwaitingProblem},
			To:     WhyAwaitingAnswer,
			Apply: typed(func(v View, p StartAnalysis) (Outcome, error) {
				depth := p.MaxDepth
				if depth == 0 {
					depth = opts.DefaultMaxDepth
				}
				if depth > opts.MaxDepthLimit {
					return Outcome{}, fault.Limitf("max_depth %d exceeds the limit of %d", depth, opts.MaxDepthLimit)
				}
				return Outcome{
					Data: Analysis{
						Problem:       p.Problem,
						Context:       p.Context,
						MaxDepth:      depth,
						FirstQuestion: firstWhy(p.Problem),
					},
					Title: session.Headline(p.Problem, 60),
				}, nil
			}),
		},
		Rules: []Rule{
			{
				Action: ActionAddAnswer,
				From:   []State{WhyAwaitingAnswer},
				To:     WhyAwaitingAnswer,
				Alt:    []State{WhyCompleted},
				Apply: typed(func(v View, p AddAnswer) (Outcome, error) {
					a := v.Subject.(Analysis)
					answers := dataOf[WhyAnswer](v.History)
					level := len(answers) + 1
					switch {
					case p.Level > a.MaxDepth:
						return Outcome{}, fault.Limitf("level %d exceeds max depth %d", p.Level, a.MaxDepth)
					case p.Level != 0 && p.Level != level:
						return Outcome{}, fault.Validationf("level %d is not the open question, expected level %d", p.Level, level)
					}
					rec := WhyAnswer{
						Level:     level,
						Question:  openQuestion(a, answers),
						Answer:    p.Answer,
						RootCause: p.RootCause,
					}
					if p.RootCause || level == a.MaxDepth {
						return Outcome{Data: rec, Next: WhyCompleted}, nil
					}
					rec.NextQuestion = nextWhy(p.Answer)
					return Outcome{Data: rec}, nil
				}),
			},
		},
		Refuse: func(v View, action string) error {
			if v.State != WhyCompleted || action != ActionAddAnswer {
				return nil
			}
			a := v.Subject.(Analysis)
			answers := dataOf[WhyAnswer](v.History)
			if len(answers) < a.MaxDepth {
				return nil
			}
			return fault.Limitf("analysis reached its max depth of %d", a.MaxDepth)
		},
		Progress: func(v View) any {
			a := v.Subject.(Analysis)
			answers := dataOf[WhyAnswer](v.History)
			pr := WhyProgress{Answered: len(answers), MaxDepth: a.MaxDepth, Chain: answers}
			if pr.Chain == nil {
				pr.Chain = []WhyAnswer{}
			}
			if v.State == WhyCompleted {
				pr.RootCause = answers[len(answers)-1].Answer
			} else {
				pr.CurrentQuestion = openQuestion(a, answers)
			}
			return pr
		},
	}
}
