package engine

import "github.com/ziadkadry99/testmorph/internal/strategy"

// PlanStep is one step of the ordered plan the engine assembles before
// prompting the oracle.
type PlanStep struct {
	Step     string `json:"step"`
	Priority string `json:"priority"`
}

// buildPlan returns the conversion plan for a strategy. The base steps
// always run; strategies splice in their own critical steps at the
// point in the sequence where they matter.
func buildPlan(strat strategy.Strategy) []PlanStep {
	plan := []PlanStep{
		{Step: "parse_structure", Priority: "high"},
		{Step: "convert_commands", Priority: "high"},
		{Step: "handle_assertions", Priority: "medium"},
		{Step: "optimize_async", Priority: "medium"},
	}

	switch strat {
	case strategy.CustomCommands:
		plan = insertStep(plan, 1, PlanStep{Step: "identify_custom_commands", Priority: "critical"})
		plan = append(plan, PlanStep{Step: "create_helper_functions", Priority: "high"})
	case strategy.APITesting:
		plan = insertStep(plan, 2, PlanStep{Step: "convert_intercepts", Priority: "critical"})
		plan = append(plan, PlanStep{Step: "add_api_error_handling", Priority: "high"})
	case strategy.FormHeavy:
		plan = append(plan,
			PlanStep{Step: "optimize_form_selectors", Priority: "high"},
			PlanStep{Step: "add_form_validation", Priority: "medium"},
		)
	}
	return plan
}

func insertStep(plan []PlanStep, i int, s PlanStep) []PlanStep {
	plan = append(plan, PlanStep{})
	copy(plan[i+1:], plan[i:])
	plan[i] = s
	return plan
}
