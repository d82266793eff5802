package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kokistudios/thinker/internal/process"
	"github.com/kokistudios/thinker/internal/session"
)

type PlanStepArgs struct {
	Description     string `json:"description,omitempty" jsonschema:"Required. What this step does"`
	ExpectedOutcome string `json:"expected_outcome,omitempty" jsonschema:"What done looks like for this step"`
}

type CreatePlanArgs struct {
	Problem string         `json:"problem,omitempty" jsonschema:"Required. The problem to break into steps"`
	Context string         `json:"context,omitempty" jsonschema:"Constraints, environment, prior attempts"`
	Steps   []PlanStepArgs `json:"steps,omitempty" jsonschema:"Custom steps. Omit to get a six-step template chosen from the problem's category"`
}

type ExecuteStepArgs struct {
	SessionID  string `json:"session_id,omitempty" jsonschema:"Required. Plan session ID"`
	StepNumber int    `json:"step_number,omitempty" jsonschema:"Required. Step to record, starting at 1"`
	Result     string `json:"result,omitempty" jsonschema:"Required. What happened when the step was carried out"`
	Status     string `json:"status,omitempty" jsonschema:"completed (default) or failed. A failed step can be executed again"`
}

type FinishPlanArgs struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"Required. Plan session ID"`
	Summary   string `json:"summary,omitempty" jsonschema:"Closing summary of the work"`
}

func (s *Server) registerStepwiseTools() {
	addTool(s, &mcp.Tool{
		Name: "stepwise_create_plan",
		Description: "Break a problem into numbered steps and start executing them. Supply your own steps or " +
			"let a template for programming, learning or problem-solving work be chosen.",
		Annotations: mutating("Create Plan"),
	}, func(_ context.Context, args CreatePlanArgs) (any, error) {
		payload := process.CreatePlan{Problem: args.Problem, Context: args.Context}
		for _, st := range args.Steps {
			payload.Steps = append(payload.Steps, process.StepInput{
				Description:     st.Description,
				ExpectedOutcome: st.ExpectedOutcome,
			})
		}
		return s.start(session.KindStepwise, payload)
	})

	addTool(s, &mcp.Tool{
		Name:        "stepwise_execute_step",
		Description: "Record the outcome of one plan step. The plan completes once every step has completed.",
		Annotations: mutating("Execute Step"),
	}, func(_ context.Context, args ExecuteStepArgs) (any, error) {
		return s.transition(session.KindStepwise, args.SessionID, process.ActionExecuteStep, process.ExecuteStep{
			StepNumber: args.StepNumber,
			Result:     args.Result,
			Status:     args.Status,
		})
	})

	addTool(s, &mcp.Tool{
		Name:        "stepwise_finish",
		Description: "Close a plan early, whatever steps remain.",
		Annotations: mutating("Finish Plan"),
	}, func(_ context.Context, args FinishPlanArgs) (any, error) {
		return s.transition(session.KindStepwise, args.SessionID, process.ActionFinish, process.FinishPlan{Summary: args.Summary})
	})

	s.addGetTool(session.KindStepwise, "stepwise_get_plan", "plan")
	s.addListTool(session.KindStepwise, "stepwise_list_plans", "plan")
}
