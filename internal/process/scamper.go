package process

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/kokistudios/thinker/internal/fault"
	"github.com/kokistudios/thinker/internal/session"
)

const (
	ScamperStarted          State = "started"
	ScamperTechniqueApplied State = "technique_applied"
	ScamperEvaluated        State = "evaluated"
	ScamperCompleted        State = "completed"
)

const (
	ActionStartSession          = "startSession"
	ActionApplyTechnique        = "applyTechnique"
	ActionGenerateComprehensive = "generateComprehensive"
	ActionEvaluateIdeas         = "evaluateIdeas"
	ActionCompleteSession       = "completeSession"
)

type Technique string

const (
	Substitute    Technique = "Substitute"
	Combine       Technique = "Combine"
	Adapt         Technique = "Adapt"
	Modify        Technique = "Modify"
	PutToOtherUse Technique = "PutToOtherUse"
	Eliminate     Technique = "Eliminate"
	Reverse       Technique = "Reverse"
)

// Techniques is the canonical SCAMPER order.
var Techniques = []Technique{Substitute, Combine, Adapt, Modify, PutToOtherUse, Eliminate, Reverse}

var techniqueAliases = map[string]Technique{
	"s": Substitute, "substitute": Substitute,
	"c": Combine, "combine": Combine,
	"a": Adapt, "adapt": Adapt,
	"m": Modify, "modify": Modify,
	"p": PutToOtherUse, "puttootheruse": PutToOtherUse, "put": PutToOtherUse,
	"e": Eliminate, "eliminate": Eliminate,
	"r": Reverse, "reverse": Reverse,
}

// ParseTechnique accepts a technique name in any case, with or without
// spaces, dashes or underscores, or its SCAMPER letter.
func ParseTechnique(s string) (Technique, error) {
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
	if t, ok := techniqueAliases[key]; ok {
		return t, nil
	}
	names := make([]string, len(Techniques))
	for i, t := range Techniques {
		names[i] = string(t)
	}
	return "", fault.Validationf("unknown technique %q (valid: %s)", s, strings.Join(names, ", "))
}

var techniqueGuidance = map[Technique][]string{
	Substitute: {
		"What could be replaced with something else?",
		"What happens if the materials, process, people or place change?",
		"How have similar problems been solved?",
	},
	Combine: {
		"What could be combined with what?",
		"Can different elements or ideas be merged?",
		"Can several functions become one?",
	},
	Adapt: {
		"Which ideas from other fields could apply?",
		"What can past experience teach here?",
		"Could a mechanism from nature be imitated?",
	},
	Modify: {
		"What could be enlarged or reduced?",
		"What could be emphasized or toned down?",
		"Could the shape, color, sound or feel change?",
	},
	PutToOtherUse: {
		"Could it be used for something else?",
		"Could it serve a different market or audience?",
		"Are there by-products or secondary uses?",
	},
	Eliminate: {
		"What could be removed?",
		"What could be simplified?",
		"What is truly essential?",
	},
	Reverse: {
		"What happens if the order is reversed?",
		"What if the roles were swapped?",
		"Is the opposite approach possible?",
	},
}

// Guidance returns the thinking prompts for t.
func Guidance(t Technique) []string {
	return slices.Clone(techniqueGuidance[t])
}

func templateIdeas(t Technique, topic string) []Idea {
	var raw [][2]string
	switch t {
	case Substitute:
		raw = [][2]string{
			{fmt.Sprintf("Replace the main elements of %s with alternatives", topic), "May improve cost or efficiency"},
			{"Replace the conventional method with a new approach", "Explores room for innovation"},
			{"Replace manual work with automation", "Raises efficiency and quality"},
		}
	case Combine:
		raw = [][2]string{
			{fmt.Sprintf("Integrate %s with related services", topic), "Offers a one-stop solution"},
			{"Combine several functions into one platform", "Adds convenience and cuts cost"},
			{"Combine different kinds of expertise", "Creates value through synergy"},
		}
	case Adapt:
		raw = [][2]string{
			{fmt.Sprintf("Apply success stories from other industries to %s", topic), "Reuses proven models"},
			{"Take an approach modeled on nature", "Uses biomimicry"},
			{"Apply past experience to the current challenge", "Builds on what was learned"},
		}
	case Modify:
		raw = [][2]string{
			{fmt.Sprintf("Greatly expand the scale of %s", topic), "Pursues economies of scale"},
			{"Speed up the process substantially", "Improves efficiency dramatically"},
			{"Raise the quality level step by step", "Continuous improvement"},
		}
	case PutToOtherUse:
		raw = [][2]string{
			{fmt.Sprintf("Apply %s to an entirely different field", topic), "Opens new markets"},
			{"Make use of by-products and waste", "Improves sustainability"},
			{"Use existing skills in a new area", "Makes the most of resources"},
		}
	case Eliminate:
		raw = [][2]string{
			{fmt.Sprintf("Remove unnecessary steps from %s", topic), "Simplicity improves efficiency"},
			{"Cut the most expensive elements", "Improves economics"},
			{"Remove complexity to improve usability", "Pursues ease of use"},
		}
	case Reverse:
		raw = [][2]string{
			{fmt.Sprintf("Run the %s process in reverse order", topic), "Solves the problem from a new angle"},
			{"Reverse the conventional roles", "Redistributes authority and responsibility"},
			{"Try the opposite of what customers expect", "Creates differentiation"},
		}
	}
	ideas := make([]Idea, len(raw))
	for i, r := range raw {
		ideas[i] = Idea{Text: r[0], Explanation: r[1]}
	}
	return ideas
}

type StartScamper struct {
	Topic            string `json:"topic" validate:"required"`
	CurrentSituation string `json:"current_situation" validate:"required"`
	Context          string `json:"context"`
}

type IdeaInput struct {
	Idea        string `json:"idea" validate:"required"`
	Explanation string `json:"explanation"`
}

type ApplyTechnique struct {
	Technique string      `json:"technique" validate:"required"`
	Ideas     []IdeaInput `json:"ideas" validate:"required,min=1,dive"`
}

type GenerateComprehensive struct{}

type EvaluationInput struct {
	Idea        string `json:"idea" validate:"required"`
	Feasibility int    `json:"feasibility" validate:"gte=0,lte=10"`
	Impact      int    `json:"impact" validate:"gte=0,lte=10"`
}

type EvaluateIdeas struct {
	Evaluations []EvaluationInput `json:"evaluations" validate:"required,min=1,dive"`
}

type CompleteScamper struct {
	Notes string `json:"notes"`
}

// ScamperTopic is the subject of a SCAMPER session.
type ScamperTopic struct {
	Topic            string `json:"topic"`
	CurrentSituation string `json:"current_situation"`
	Context          string `json:"context,omitempty"`
}

type Idea struct {
	Text        string `json:"idea"`
	Explanation string `json:"explanation,omitempty"`
}

type TechniqueApplication struct {
	Technique Technique `json:"technique"`
	Ideas     []Idea    `json:"ideas"`
	Guidance  []string  `json:"guidance"`
}

func (a TechniqueApplication) clone() any {
	a.Ideas = slices.Clone(a.Ideas)
	a.Guidance = slices.Clone(a.Guidance)
	return a
}

type ComprehensiveIdeas struct {
	Applications []TechniqueApplication `json:"applications"`
}

func (c ComprehensiveIdeas) clone() any {
	apps := make([]TechniqueApplication, len(c.Applications))
	for i, a := range c.Applications {
		apps[i] = a.clone().(TechniqueApplication)
	}
	c.Applications = apps
	return c
}

type Score struct {
	Idea        string    `json:"idea"`
	Technique   Technique `json:"technique"`
	Feasibility int       `json:"feasibility"`
	Impact      int       `json:"impact"`
	Total       int       `json:"total"`
}

type TechniqueAverage struct {
	Technique Technique `json:"technique"`
	Average   float64   `json:"average"`
}

// IdeaEvaluation ranks scores by total, highest first.
type IdeaEvaluation struct {
	Ranking  []Score            `json:"ranking"`
	Averages []TechniqueAverage `json:"averages"`
}

func (e IdeaEvaluation) clone() any {
	e.Ranking = slices.Clone(e.Ranking)
	e.Averages = slices.Clone(e.Averages)
	return e
}

type ScamperCompletion struct {
	Notes             string `json:"notes,omitempty"`
	TechniquesApplied int    `json:"techniques_applied"`
	IdeaCount         int    `json:"idea_count"`
	TopIdea           *Score `json:"top_idea,omitempty"`
}

func (c ScamperCompletion) clone() any {
	if c.TopIdea != nil {
		top := *c.TopIdea
		c.TopIdea = &top
	}
	return c
}

type ScamperProgress struct {
	Applied   []Technique `json:"applied"`
	Remaining []Technique `json:"remaining"`
	IdeaCount int         `json:"idea_count"`
	TopIdeas  []Score     `json:"top_ideas,omitempty"`
}

// applications flattens single and comprehensive applications in order.
func applications(history []Record) []TechniqueApplication {
	var out []TechniqueApplication
	for _, r := range history {
		switch d := r.Data.(type) {
		case TechniqueApplication:
			out = append(out, d)
		case ComprehensiveIdeas:
			out = append(out, d.Applications...)
		}
	}
	return out
}

func remaining(apps []TechniqueApplication) []Technique {
	out := []Technique{}
	for _, t := range Techniques {
		if !slices.ContainsFunc(apps, func(a TechniqueApplication) bool { return a.Technique == t }) {
			out = append(out, t)
		}
	}
	return out
}

func ideaCount(apps []TechniqueApplication) int {
	n := 0
	for _, a := range apps {
		n += len(a.Ideas)
	}
	return n
}

func latestEvaluation(history []Record) (IdeaEvaluation, bool) {
	evals := dataOf[IdeaEvaluation](history)
	if len(evals) == 0 {
		return IdeaEvaluation{}, false
	}
	return evals[len(evals)-1], true
}

func evaluate(apps []TechniqueApplication, in []EvaluationInput) (IdeaEvaluation, error) {
	owner := make(map[string]Technique)
	for _, a := range apps {
		for _, idea := range a.Ideas {
			if _, ok := owner[idea.Text]; !ok {
				owner[idea.Text] = a.Technique
			}
		}
	}
	ev := IdeaEvaluation{Ranking: make([]Score, 0, len(in))}
	for _, e := range in {
		t, ok := owner[e.Idea]
		if !ok {
			return IdeaEvaluation{}, fault.Referencef("idea %q was not generated in this session", e.Idea)
		}
		ev.Ranking = append(ev.Ranking, Score{
			Idea:        e.Idea,
			Technique:   t,
			Feasibility: e.Feasibility,
			Impact:      e.Impact,
			Total:       e.Feasibility + e.Impact,
		})
	}
	slices.SortStableFunc(ev.Ranking, func(a, b Score) int {
		return cmp.Compare(b.Total, a.Total)
	})
	for _, t := range Techniques {
		sum, n := 0, 0
		for _, s := range ev.Ranking {
			if s.Technique == t {
				sum += s.Total
				n++
			}
		}
		if n > 0 {
			ev.Averages = append(ev.Averages, TechniqueAverage{Technique: t, Average: float64(sum) / float64(n)})
		}
	}
	return ev, nil
}

func ScamperMachine(opts ScamperOptions) *Machine {
	comprehensiveFrom := []State{ScamperStarted}
	if opts.AllowComprehensiveAfterPartial {
		comprehensiveFrom = append(comprehensiveFrom, ScamperTechniqueApplied)
	}
	return &Machine{
		Kind:     session.KindScamper,
		States:   []State{ScamperStarted, ScamperTechniqueApplied, ScamperEvaluated, ScamperCompleted},
		Initial:  ScamperStarted,
		Terminal: []State{ScamperCompleted},
		Start: Rule{
			Action: ActionStartSession,
			From:   []State{ScamperStarted},
			To:     ScamperStarted,
			Apply: typed(func(v View, p StartScamper) (Outcome, error) {
				return Outcome{
					Data:  ScamperTopic{Topic: p.Topic, CurrentSituation: p.CurrentSituation, Context: p.Context},
					Title: session.Headline(p.Topic, 60),
				}, nil
			}),
		},
		Rules: []Rule{
			{
				Action: ActionApplyTechnique,
				From:   []State{ScamperStarted, ScamperTechniqueApplied},
				To:     ScamperTechniqueApplied,
				Apply: typed(func(v View, p ApplyTechnique) (Outcome, error) {
					t, err := ParseTechnique(p.Technique)
					if err != nil {
						return Outcome{}, err
					}
					if !slices.Contains(remaining(applications(v.History)), t) {
						return Outcome{}, fault.Validationf("technique %s was already applied", t)
					}
					app := TechniqueApplication{Technique: t, Guidance: Guidance(t), Ideas: make([]Idea, len(p.Ideas))}
					for i, in := range p.Ideas {
						app.Ideas[i] = Idea{Text: in.Idea, Explanation: in.Explanation}
					}
					return Outcome{Data: app}, nil
				}),
			},
			{
				Action: ActionGenerateComprehensive,
				From:   comprehensiveFrom,
				To:     ScamperTechniqueApplied,
				Apply: typed(func(v View, p GenerateComprehensive) (Outcome, error) {
					left := remaining(applications(v.History))
					if len(left) == 0 {
						return Outcome{}, fault.Validationf("every technique was already applied")
					}
					topic := v.Subject.(ScamperTopic).Topic
					c := ComprehensiveIdeas{Applications: make([]TechniqueApplication, len(left))}
					for i, t := range left {
						c.Applications[i] = TechniqueApplication{Technique: t, Ideas: templateIdeas(t, topic), Guidance: Guidance(t)}
					}
					return Outcome{Data: c}, nil
				}),
			},
			{
				Action: ActionEvaluateIdeas,
				From:   []State{ScamperTechniqueApplied, ScamperEvaluated},
				To:     ScamperEvaluated,
				Apply: typed(func(v View, p EvaluateIdeas) (Outcome, error) {
					ev, err := evaluate(applications(v.History), p.Evaluations)
					if err != nil {
						return Outcome{}, err
					}
					return Outcome{Data: ev}, nil
				}),
			},
			{
				Action: ActionCompleteSession,
				From:   []State{ScamperEvaluated},
				To:     ScamperCompleted,
				Apply: typed(func(v View, p CompleteScamper) (Outcome, error) {
					apps := applications(v.History)
					done := ScamperCompletion{
						Notes:             p.Notes,
						TechniquesApplied: len(apps),
						IdeaCount:         ideaCount(apps),
					}
					if ev, ok := latestEvaluation(v.History); ok && len(ev.Ranking) > 0 {
						top := ev.Ranking[0]
						done.TopIdea = &top
					}
					return Outcome{Data: done}, nil
				}),
			},
		},
		Progress: func(v View) any {
			apps := applications(v.History)
			pr := ScamperProgress{
				Applied:   make([]Technique, len(apps)),
				Remaining: remaining(apps),
				IdeaCount: ideaCount(apps),
			}
			for i, a := range apps {
				pr.Applied[i] = a.Technique
			}
			if ev, ok := latestEvaluation(v.History); ok {
				pr.TopIdeas = slices.Clone(ev.Ranking[:min(3, len(ev.Ranking))])
			}
			return pr
		},
	}
}
