package process

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kokistudios/thinker/internal/fault"
	"github.com/kokistudios/thinker/internal/session"
)

func TestFiveWhy_FullChain(t *testing.T) {
	e, reg := newEngine(t)
	res, err := e.Start(session.KindFiveWhy, StartAnalysis{Problem: "The deploy failed"})
	require.NoError(t, err)
	assert.Equal(t, WhyAwaitingAnswer, res.State)
	assert.Empty(t, res.Snapshot.Process.History)
	assert.Equal(t, `Why did "The deploy failed" happen?`, progress[WhyProgress](t, res.Snapshot).CurrentQuestion)

	answers := []string{"tests timed out", "the database was slow", "an index was missing", "the migration was skipped", "no one owns migrations"}
	for i, a := range answers {
		res, err = e.Transition(session.KindFiveWhy, res.SessionID, ActionAddAnswer, AddAnswer{Answer: a, Level: i + 1})
		require.NoError(t, err)
	}
	assert.Equal(t, WhyCompleted, res.State)

	hist := res.Snapshot.Process.History
	require.Len(t, hist, 5)
	for i, r := range hist {
		w := r.Data.(WhyAnswer)
		assert.Equal(t, i+1, w.Level)
		assert.Equal(t, answers[i], w.Answer)
	}
	assert.Equal(t, `Why "tests timed out"?`, hist[1].Data.(WhyAnswer).Question)
	assert.Empty(t, hist[4].Data.(WhyAnswer).NextQuestion)

	pr := progress[WhyProgress](t, res.Snapshot)
	assert.Equal(t, "no one owns migrations", pr.RootCause)
	assert.Empty(t, pr.CurrentQuestion)

	_, err = e.Transition(session.KindFiveWhy, res.SessionID, ActionAddAnswer, AddAnswer{Answer: "more"})
	assert.ErrorIs(t, err, fault.ErrLimit)
	assert.ErrorContains(t, err, "max depth of 5")

	sum, err := reg.Get(res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusCompleted, sum.Status)
}

func TestFiveWhy_RootCauseEndsEarly(t *testing.T) {
	e, _ := newEngine(t)
	res, err := e.Start(session.KindFiveWhy, StartAnalysis{Problem: "p"})
	require.NoError(t, err)
	res, err = e.Transition(session.KindFiveWhy, res.SessionID, ActionAddAnswer, AddAnswer{Answer: "a"})
	require.NoError(t, err)
	res, err = e.Transition(session.KindFiveWhy, res.SessionID, ActionAddAnswer, AddAnswer{Answer: "b", RootCause: true})
	require.NoError(t, err)
	assert.Equal(t, WhyCompleted, res.State)
	assert.Len(t, res.Snapshot.Process.History, 2)

	// Closed by a root cause, not by depth.
	_, err = e.Transition(session.KindFiveWhy, res.SessionID, ActionAddAnswer, AddAnswer{Answer: "c"})
	assert.ErrorIs(t, err, fault.ErrInvalidTransition)
}

func TestFiveWhy_LevelChecks(t *testing.T) {
	e, _ := newEngine(t)
	res, err := e.Start(session.KindFiveWhy, StartAnalysis{Problem: "p", MaxDepth: 3})
	require.NoError(t, err)

	_, err = e.Transition(session.KindFiveWhy, res.SessionID, ActionAddAnswer, AddAnswer{Answer: "a", Level: 4})
	assert.ErrorIs(t, err, fault.ErrLimit)
	_, err = e.Transition(session.KindFiveWhy, res.SessionID, ActionAddAnswer, AddAnswer{Answer: "a", Level: 2})
	assert.ErrorIs(t, err, fault.ErrValidation)

	res, err = e.Transition(session.KindFiveWhy, res.SessionID, ActionAddAnswer, AddAnswer{Answer: "a", Level: 1})
	require.NoError(t, err)
	assert.Len(t, res.Snapshot.Process.History, 1)
}

func TestFiveWhy_MaxDepth(t *testing.T) {
	e, _ := newEngine(t)
	_, err := e.Start(session.KindFiveWhy, StartAnalysis{Problem: "p", MaxDepth: 11})
	assert.ErrorIs(t, err, fault.ErrLimit)

	res, err := e.Start(session.KindFiveWhy, StartAnalysis{Problem: "p"})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Snapshot.Process.Subject.(Analysis).MaxDepth)

	custom := DefaultOptions()
	custom.FiveWhy.DefaultMaxDepth = 3
	e, _ = newEngine(t, custom)
	res, err = e.Start(session.KindFiveWhy, StartAnalysis{Problem: "p"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Snapshot.Process.Subject.(Analysis).MaxDepth)
}

func TestDialectical_Synthesis(t *testing.T) {
	e, _ := newEngine(t)
	res, err := e.Start(session.KindDialectical, StartDialectic{Topic: "remote work"})
	require.NoError(t, err)
	assert.Equal(t, DialecticStarted, res.State)
	id := res.SessionID

	_, err = e.Transition(session.KindDialectical, id, ActionCreateSynthesis, CreateSynthesis{Synthesis: "s"})
	assert.ErrorIs(t, err, fault.ErrInvalidTransition)

	_, err = e.Transition(session.KindDialectical, id, ActionSetThesis, SetThesis{Thesis: "it raises output", Evidence: []string{"survey"}})
	require.NoError(t, err)
	_, err = e.Transition(session.KindDialectical, id, ActionSetThesis, SetThesis{Thesis: "again"})
	assert.ErrorIs(t, err, fault.ErrInvalidTransition)

	_, err = e.Transition(session.KindDialectical, id, ActionSetAntithesis, SetAntithesis{Antithesis: "it weakens teams"})
	require.NoError(t, err)
	res, err = e.Transition(session.KindDialectical, id, ActionCreateSynthesis, CreateSynthesis{Synthesis: "hybrid", Reasoning: "keeps both"})
	require.NoError(t, err)
	assert.Equal(t, DialecticCompleted, res.State)
	assert.True(t, res.Snapshot.Process.Terminal)

	pr := progress[DialecticProgress](t, res.Snapshot)
	require.NotNil(t, pr.Thesis)
	require.NotNil(t, pr.Antithesis)
	require.NotNil(t, pr.Synthesis)
	assert.Equal(t, []string{"survey"}, pr.Thesis.Evidence)
	assert.Equal(t, []string{}, pr.Antithesis.Evidence)
	assert.Equal(t, "hybrid", pr.Synthesis.Statement)
	assert.Nil(t, pr.Contradiction)
}

func TestDialectical_AnalyzeContradictionInOneStep(t *testing.T) {
	e, _ := newEngine(t)
	res, err := e.Start(session.KindDialectical, StartDialectic{Topic: "tabs or spaces"},
		Step{Action: ActionSetThesis, Payload: SetThesis{Thesis: "tabs", Evidence: []string{"a", "b"}}},
		Step{Action: ActionSetAntithesis, Payload: SetAntithesis{Antithesis: "spaces"}},
		Step{Action: ActionAnalyzeContradiction, Payload: AnalyzeContradiction{Focus: "readability"}},
	)
	require.NoError(t, err)
	assert.Equal(t, DialecticCompleted, res.State)
	require.NotNil(t, res.Record)
	assert.Equal(t, ActionAnalyzeContradiction, res.Record.Action)

	c := res.Record.Data.(Contradiction)
	assert.Equal(t, "readability", c.Focus)
	assert.Contains(t, c.Tensions, "Thesis: tabs")
	assert.Contains(t, c.Tensions, "Antithesis: spaces")
	assert.NotEmpty(t, c.IntegrationHints)
	assert.NotEmpty(t, c.Approach)
	assert.Len(t, res.Snapshot.Process.History, 3)
}

func TestStepwise_TemplateCategories(t *testing.T) {
	tests := []struct {
		problem  string
		category string
	}{
		{"Build a REST API in Go", "programming"},
		{"Learn Japanese grammar", "learning"},
		{"Fix the leaking roof", "problem-solving"},
		{"Plan a birthday party", "generic"},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			category, steps := templatePlan(tt.problem)
			assert.Equal(t, tt.category, category)
			require.Len(t, steps, 6)
			for i, s := range steps {
				assert.Equal(t, i+1, s.Number)
				assert.NotEmpty(t, s.Description)
			}
		})
	}
}

func TestStepwise_ExecuteUntilComplete(t *testing.T) {
	e, _ := newEngine(t)
	res, err := e.Start(session.KindStepwise, CreatePlan{
		Problem: "ship it",
		Steps:   []StepInput{{Description: "write"}, {Description: "review"}},
	})
	require.NoError(t, err)
	assert.Equal(t, StepwiseExecuting, res.State)
	assert.Equal(t, "custom", res.Snapshot.Process.Subject.(Plan).Category)
	id := res.SessionID

	_, err = e.Transition(session.KindStepwise, id, ActionExecuteStep, ExecuteStep{StepNumber: 3, Result: "x"})
	assert.ErrorIs(t, err, fault.ErrReference)

	res, err = e.Transition(session.KindStepwise, id, ActionExecuteStep, ExecuteStep{StepNumber: 2, Result: "blocked", Status: StepFailed})
	require.NoError(t, err)
	assert.Equal(t, StepwiseExecuting, res.State)
	pr := progress[PlanProgress](t, res.Snapshot)
	require.NotNil(t, pr.NextStep)
	assert.Equal(t, 1, pr.NextStep.Number)
	assert.Equal(t, StepFailed, pr.Steps[1].Status)

	_, err = e.Transition(session.KindStepwise, id, ActionExecuteStep, ExecuteStep{StepNumber: 1, Result: "done"})
	require.NoError(t, err)
	res, err = e.Transition(session.KindStepwise, id, ActionExecuteStep, ExecuteStep{StepNumber: 2, Result: "done on retry"})
	require.NoError(t, err)
	assert.Equal(t, StepwiseCompleted, res.State)
	ex := res.Record.Data.(StepExecution)
	assert.Equal(t, 2, ex.Completed)
	assert.Equal(t, 2, ex.Total)

	_, err = e.Transition(session.KindStepwise, id, ActionFinish, FinishPlan{})
	assert.ErrorIs(t, err, fault.ErrInvalidTransition)
}

func TestStepwise_FinishEarly(t *testing.T) {
	e, _ := newEngine(t)
	res, err := e.Start(session.KindStepwise, CreatePlan{Problem: "learn piano"})
	require.NoError(t, err)
	_, err = e.Transition(session.KindStepwise, res.SessionID, ActionExecuteStep, ExecuteStep{StepNumber: 1, Result: "goals set"})
	require.NoError(t, err)

	res, err = e.Transition(session.KindStepwise, res.SessionID, ActionFinish, FinishPlan{Summary: "good enough"})
	require.NoError(t, err)
	assert.Equal(t, StepwiseCompleted, res.State)
	assert.Equal(t, PlanFinish{Summary: "good enough", Completed: 1, Total: 6}, res.Record.Data)
}

func TestStepwise_InvalidStatus(t *testing.T) {
	e, _ := newEngine(t)
	res, err := e.Start(session.KindStepwise, CreatePlan{Problem: "p"})
	require.NoError(t, err)
	_, err = e.Transition(session.KindStepwise, res.SessionID, ActionExecuteStep, ExecuteStep{StepNumber: 1, Result: "r", Status: "skipped"})
	require.ErrorIs(t, err, fault.ErrValidation)
	assert.Contains(t, err.Error(), "status must be one of")
}

func TestParseTechnique(t *testing.T) {
	tests := map[string]Technique{
		"Substitute":       Substitute,
		"COMBINE":          Combine,
		"put_to_other_use": PutToOtherUse,
		"Put to other use": PutToOtherUse,
		"put-to-other-use": PutToOtherUse,
		"PutToOtherUse":    PutToOtherUse,
		" eliminate ":      Eliminate,
		"R":                Reverse,
	}
	for in, want := range tests {
		got, err := ParseTechnique(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseTechnique("magnify")
	assert.ErrorIs(t, err, fault.ErrValidation)
}

func TestScamper_ApplyEvaluateComplete(t *testing.T) {
	e, _ := newEngine(t)
	res, err := e.Start(session.KindScamper, StartScamper{Topic: "coffee shop", CurrentSituation: "few customers"})
	require.NoError(t, err)
	id := res.SessionID

	_, err = e.Transition(session.KindScamper, id, ActionEvaluateIdeas, EvaluateIdeas{Evaluations: []EvaluationInput{{Idea: "x"}}})
	assert.ErrorIs(t, err, fault.ErrInvalidTransition)

	res, err = e.Transition(session.KindScamper, id, ActionApplyTechnique, ApplyTechnique{
		Technique: "substitute",
		Ideas:     []IdeaInput{{Idea: "oat milk"}, {Idea: "self service"}},
	})
	require.NoError(t, err)
	app := res.Record.Data.(TechniqueApplication)
	assert.Equal(t, Substitute, app.Technique)
	assert.Len(t, app.Guidance, 3)

	_, err = e.Transition(session.KindScamper, id, ActionApplyTechnique, ApplyTechnique{Technique: "S", Ideas: []IdeaInput{{Idea: "again"}}})
	assert.ErrorIs(t, err, fault.ErrValidation)
	_, err = e.Transition(session.KindScamper, id, ActionApplyTechnique, ApplyTechnique{Technique: "combine"})
	assert.ErrorIs(t, err, fault.ErrValidation)

	_, err = e.Transition(session.KindScamper, id, ActionApplyTechnique, ApplyTechnique{
		Technique: "put to other use",
		Ideas:     []IdeaInput{{Idea: "evening bar"}},
	})
	require.NoError(t, err)

	_, err = e.Transition(session.KindScamper, id, ActionEvaluateIdeas, EvaluateIdeas{Evaluations: []EvaluationInput{{Idea: "drone delivery", Feasibility: 1, Impact: 1}}})
	assert.ErrorIs(t, err, fault.ErrReference)

	res, err = e.Transition(session.KindScamper, id, ActionEvaluateIdeas, EvaluateIdeas{Evaluations: []EvaluationInput{
		{Idea: "oat milk", Feasibility: 9, Impact: 4},
		{Idea: "evening bar", Feasibility: 5, Impact: 9},
		{Idea: "self service", Feasibility: 6, Impact: 2},
	}})
	require.NoError(t, err)
	assert.Equal(t, ScamperEvaluated, res.State)
	ev := res.Record.Data.(IdeaEvaluation)
	require.Len(t, ev.Ranking, 3)
	assert.Equal(t, "evening bar", ev.Ranking[0].Idea)
	assert.Equal(t, 14, ev.Ranking[0].Total)
	assert.Equal(t, []TechniqueAverage{
		{Technique: Substitute, Average: 10.5},
		{Technique: PutToOtherUse, Average: 14},
	}, ev.Averages)

	res, err = e.Transition(session.KindScamper, id, ActionCompleteSession, CompleteScamper{Notes: "try the bar first"})
	require.NoError(t, err)
	assert.Equal(t, ScamperCompleted, res.State)
	done := res.Record.Data.(ScamperCompletion)
	assert.Equal(t, 2, done.TechniquesApplied)
	assert.Equal(t, 3, done.IdeaCount)
	require.NotNil(t, done.TopIdea)
	assert.Equal(t, "evening bar", done.TopIdea.Idea)
}

func TestScamper_ComprehensiveFromStart(t *testing.T) {
	e, _ := newEngine(t)
	res, err := e.Start(session.KindScamper, StartScamper{Topic: "bakery", CurrentSituation: "flat sales"},
		Step{Action: ActionGenerateComprehensive, Payload: GenerateComprehensive{}})
	require.NoError(t, err)
	assert.Equal(t, ScamperTechniqueApplied, res.State)
	require.Len(t, res.Snapshot.Process.History, 1)

	pr := progress[ScamperProgress](t, res.Snapshot)
	assert.Equal(t, Techniques, pr.Applied)
	assert.Empty(t, pr.Remaining)
	assert.Equal(t, 21, pr.IdeaCount)

	c := res.Record.Data.(ComprehensiveIdeas)
	assert.Contains(t, c.Applications[0].Ideas[0].Text, "bakery")

	_, err = e.Transition(session.KindScamper, res.SessionID, ActionGenerateComprehensive, GenerateComprehensive{})
	assert.ErrorIs(t, err, fault.ErrInvalidTransition)
}

func TestScamper_ComprehensiveAfterPartial(t *testing.T) {
	e, _ := newEngine(t)
	res, err := e.Start(session.KindScamper, StartScamper{Topic: "t", CurrentSituation: "s"},
		Step{Action: ActionApplyTechnique, Payload: ApplyTechnique{Technique: "reverse", Ideas: []IdeaInput{{Idea: "i"}}}})
	require.NoError(t, err)
	_, err = e.Transition(session.KindScamper, res.SessionID, ActionGenerateComprehensive, GenerateComprehensive{})
	assert.ErrorIs(t, err, fault.ErrInvalidTransition)

	opts := DefaultOptions()
	opts.Scamper.AllowComprehensiveAfterPartial = true
	e, _ = newEngine(t, opts)
	res, err = e.Start(session.KindScamper, StartScamper{Topic: "t", CurrentSituation: "s"},
		Step{Action: ActionApplyTechnique, Payload: ApplyTechnique{Technique: "reverse", Ideas: []IdeaInput{{Idea: "i"}}}},
		Step{Action: ActionGenerateComprehensive, Payload: GenerateComprehensive{}},
	)
	require.NoError(t, err)
	pr := progress[ScamperProgress](t, res.Snapshot)
	assert.Len(t, pr.Applied, 7)
	assert.Equal(t, 1+6*3, pr.IdeaCount)

	_, err = e.Transition(session.KindScamper, res.SessionID, ActionGenerateComprehensive, GenerateComprehensive{})
	require.ErrorIs(t, err, fault.ErrValidation)
	assert.Contains(t, err.Error(), "already applied")
}

func TestScamper_GuidanceForEveryTechnique(t *testing.T) {
	for _, tech := range Techniques {
		t.Run(string(tech), func(t *testing.T) {
			assert.Len(t, Guidance(tech), 3)
			ideas := templateIdeas(tech, "topic")
			assert.Len(t, ideas, 3)
			assert.Contains(t, ideas[0].Text, "topic", fmt.Sprintf("first %s idea names the topic", tech))
		})
	}
}
