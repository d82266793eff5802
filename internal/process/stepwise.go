package process

import (
	"slices"
	"strings"

	"github.com/kokistudios/thinker/internal/fault"
	"github.com/kokistudios/thinker/internal/session"
)

const (
	StepwiseDraft     State = "draft"
	StepwiseExecuting State = "executing"
	StepwiseCompleted State = "completed"
)

const (
	ActionCreatePlan  = "createPlan"
	ActionExecuteStep = "executeStep"
	ActionFinish      = "finish"
)

const (
	StepCompleted = "completed"
	StepFailed    = "failed"
	StepPending   = "pending"
)

type StepInput struct {
	Description     string `json:"description" validate:"required"`
	ExpectedOutcome string `json:"expected_outcome"`
}

type CreatePlan struct {
	Problem string `json:"problem" validate:"required"`
	Context string `json:"context"`
	// Steps replaces the category template when present.
	Steps []StepInput `json:"steps" validate:"omitempty,max=50,dive"`
}

type ExecuteStep struct {
	StepNumber int    `json:"step_number" validate:"required,gt=0"`
	Result     string `json:"result" validate:"required"`
	Status     string `json:"status" validate:"omitempty,oneof=completed failed"`
}

type FinishPlan struct {
	Summary string `json:"summary"`
}

type PlanStep struct {
	Number          int    `json:"number"`
	Description     string `json:"description"`
	ExpectedOutcome string `json:"expected_outcome,omitempty"`
}

// Plan is the subject of a stepwise session.
type Plan struct {
	Problem  string     `json:"problem"`
	Context  string     `json:"context,omitempty"`
	Category string     `json:"category"`
	Steps    []PlanStep `json:"steps"`
}

func (p Plan) clone() any {
	p.Steps = slices.Clone(p.Steps)
	return p
}

type StepExecution struct {
	StepNumber  int    `json:"step_number"`
	Description string `json:"description"`
	Result      string `json:"result"`
	Status      string `json:"status"`
	Completed   int    `json:"completed"`
	Total       int    `json:"total"`
}

type PlanFinish struct {
	Summary   string `json:"summary,omitempty"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

type StepStatus struct {
	Number      int    `json:"number"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Result      string `json:"result,omitempty"`
}

type PlanProgress struct {
	Completed int          `json:"completed"`
	Total     int          `json:"total"`
	Steps     []StepStatus `json:"steps"`
	NextStep  *PlanStep    `json:"next_step,omitempty"`
}

type planCategory struct {
	name     string
	keywords []string
	steps    [][2]string
}

var planCategories = []planCategory{
	{
		name:     "programming",
		keywords: []string{"code", "program", "develop", "implement", "software", "bug", "api", "app", "deploy"},
		steps: [][2]string{
			{"Clarify and analyze the requirements", "Concrete functional requirements and constraints are identified"},
			{"Design the architecture", "System structure and implementation approach are decided"},
			{"Prepare the development environment", "Required tools and libraries are installed and verified"},
			{"Implement the core functionality", "The most important features work end to end"},
			{"Test and debug", "Behavior is verified and defects are fixed"},
			{"Polish and optimize", "Performance is improved and the code is cleaned up"},
		},
	},
	{
		name:     "learning",
		keywords: []string{"learn", "study", "understand", "master", "course", "skill"},
		steps: [][2]string{
			{"Set learning goals", "Clear, measurable learning objectives are defined"},
			{"Assess current knowledge", "Existing knowledge and gaps are identified"},
			{"Create a study plan", "An efficient learning order and schedule exist"},
			{"Acquire the fundamentals", "Core concepts are understood"},
			{"Practice", "Knowledge is applied in exercises"},
			{"Review and consolidate", "Understanding is checked and retained"},
		},
	},
	{
		name:     "problem-solving",
		keywords: []string{"problem", "issue", "solve", "fix", "challenge", "improve"},
		steps: [][2]string{
			{"Define the problem", "The essence and scope of the problem are identified"},
			{"Gather information and analyze the current state", "Relevant facts and data are collected"},
			{"Identify the cause", "The root cause is analyzed"},
			{"Explore solutions", "Several candidate solutions are drafted and compared"},
			{"Choose and carry out the best solution", "The most appropriate solution is executed"},
			{"Evaluate and improve", "Results are assessed and adjusted where needed"},
		},
	},
}

var genericSteps = [][2]string{
	{"Set the goal", "The desired outcome is clear"},
	{"Understand the current situation", "Current state and challenges are organized"},
	{"Make a plan", "A concrete plan to reach the goal exists"},
	{"Execute", "The planned actions are carried out"},
	{"Check and adjust", "Progress is reviewed and the course corrected"},
	{"Wrap up and reflect", "The goal is confirmed and lessons are captured"},
}

// templatePlan picks the first category whose keywords occur in the problem.
func templatePlan(problem string) (string, []PlanStep) {
	lower := strings.ToLower(problem)
	category, tmpl := "generic", genericSteps
	for _, c := range planCategories {
		if slices.ContainsFunc(c.keywords, func(k string) bool { return strings.Contains(lower, k) }) {
			category, tmpl = c.name, c.steps
			break
		}
	}
	steps := make([]PlanStep, len(tmpl))
	for i, s := range tmpl {
		steps[i] = PlanStep{Number: i + 1, Description: s[0], ExpectedOutcome: s[1]}
	}
	return category, steps
}

// stepStates returns the latest status and result per step number.
func stepStates(history []Record) map[int]StepExecution {
	out := make(map[int]StepExecution)
	for _, ex := range dataOf[StepExecution](history) {
		out[ex.StepNumber] = ex
	}
	return out
}

func countCompleted(plan Plan, latest map[int]StepExecution) int {
	n := 0
	for _, s := range plan.Steps {
		if latest[s.Number].Status == StepCompleted {
			n++
		}
	}
	return n
}

func StepwiseMachine() *Machine {
	return &Machine{
		Kind:     session.KindStepwise,
		States:   []State{StepwiseDraft, StepwiseExecuting, StepwiseCompleted},
		Initial:  StepwiseDraft,
		Terminal: []State{StepwiseCompleted},
		Start: Rule{
			Action: ActionCreatePlan,
			From:   []State{StepwiseDraft},
			To:     StepwiseExecuting,
			Apply: typed(func(v View, p CreatePlan) (Outcome, error) {
				plan := Plan{Problem: p.Problem, Context: p.Context}
				if len(p.Steps) > 0 {
					plan.Category = "custom"
					for i, s := range p.Steps {
						plan.Steps = append(plan.Steps, PlanStep{Number: i + 1, Description: s.Description, ExpectedOutcome: s.ExpectedOutcome})
					}
				} else {
					plan.Category, plan.Steps = templatePlan(p.Problem)
				}
				return Outcome{Data: plan, Title: session.Headline(p.Problem, 60)}, nil
			}),
		},
		Rules: []Rule{
			{
				Action: ActionExecuteStep,
				From:   []State{StepwiseExecuting},
				To:     StepwiseExecuting,
				Alt:    []State{StepwiseCompleted},
				Apply: typed(func(v View, p ExecuteStep) (Outcome, error) {
					plan := v.Subject.(Plan)
					i := slices.IndexFunc(plan.Steps, func(s PlanStep) bool { return s.Number == p.StepNumber })
					if i < 0 {
						return Outcome{}, fault.Referencef("plan has no step %d (steps 1-%d)", p.StepNumber, len(plan.Steps))
					}
					status := p.Status
					if status == "" {
						status = StepCompleted
					}
					ex := StepExecution{
						StepNumber:  p.StepNumber,
						Description: plan.Steps[i].Description,
						Result:      p.Result,
						Status:      status,
						Total:       len(plan.Steps),
					}
					latest := stepStates(v.History)
					latest[p.StepNumber] = ex
					ex.Completed = countCompleted(plan, latest)

					out := Outcome{Data: ex}
					if ex.Completed == ex.Total {
						out.Next = StepwiseCompleted
					}
					return out, nil
				}),
			},
			{
				Action: ActionFinish,
				From:   []State{StepwiseExecuting},
				To:     StepwiseCompleted,
				Apply: typed(func(v View, p FinishPlan) (Outcome, error) {
					plan := v.Subject.(Plan)
					return Outcome{Data: PlanFinish{
						Summary:   p.Summary,
						Completed: countCompleted(plan, stepStates(v.History)),
						Total:     len(plan.Steps),
					}}, nil
				}),
			},
		},
		Progress: func(v View) any {
			plan := v.Subject.(Plan)
			latest := stepStates(v.History)
			pr := PlanProgress{Total: len(plan.Steps), Steps: make([]StepStatus, len(plan.Steps))}
			for i, s := range plan.Steps {
				st := StepStatus{Number: s.Number, Description: s.Description, Status: StepPending}
				if ex, ok := latest[s.Number]; ok {
					st.Status, st.Result = ex.Status, ex.Result
				}
				if st.Status == StepCompleted {
					pr.Completed++
				} else if pr.NextStep == nil {
					next := s
					pr.NextStep = &next
				}
				pr.Steps[i] = st
			}
			return pr
		},
	}
}
