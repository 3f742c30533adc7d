package tools

import (
	"fmt"
	"sort"

	"github.com/ziadkadry99/testmorph/internal/analyzer"
)

// Insights is the aggregate outcome of one orchestration run. OverallSuccess
// is the conjunction of the individual tool results and is informational
// only; it never blocks strategy selection.
type Insights struct {
	Results           []Result `json:"results"`
	FinalCode         string   `json:"final_code,omitempty"`
	ToolsUsed         int      `json:"tools_used"`
	OverallSuccess    bool     `json:"overall_success"`
	SuggestedStrategy string   `json:"suggested_strategy,omitempty"`
}

// Orchestrator scores and sequences tools per conversion. It owns the
// in-memory performance table; construct one per service and share it
// across requests.
type Orchestrator struct {
	tools []Tool
	perf  *perfTable
}

// NewOrchestrator creates an orchestrator over the given registry, or the
// default registry when none is given.
func NewOrchestrator(registry ...Tool) *Orchestrator {
	if len(registry) == 0 {
		registry = DefaultTools()
	}
	return &Orchestrator{tools: registry, perf: newPerfTable()}
}

// Run selects tools for the input and executes them in order, chaining any
// transformed code from one tool into the next. A tool failure is recorded
// and the chain continues.
func (o *Orchestrator) Run(inputCode string, tctx analyzer.Context) *Insights {
	bucket := tctx.Bucket()
	selected := o.selectTools(inputCode, tctx, bucket)

	insights := &Insights{OverallSuccess: true}
	current := inputCode

	for _, tool := range selected {
		res := o.executeSafe(tool, current, tctx)
		o.perf.record(tool.Kind(), bucket, res.Success)

		insights.Results = append(insights.Results, *res)
		insights.OverallSuccess = insights.OverallSuccess && res.Success

		if res.ConvertedCode != "" {
			current = res.ConvertedCode
			insights.FinalCode = res.ConvertedCode
		}
		if res.Kind == KindPatternAnalyzer {
			if s, ok := res.Payload["suggested_strategy"].(string); ok {
				insights.SuggestedStrategy = s
			}
		}
	}

	insights.ToolsUsed = len(insights.Results)
	return insights
}

// selectTools scores every registered tool as 0.7*confidence + 0.3*history
// and picks the top scorer above 0.5, then complementary kinds above 0.6 up
// to three tools. A validator is always appended if none was selected.
func (o *Orchestrator) selectTools(inputCode string, tctx analyzer.Context, bucket string) []Tool {
	type scoredTool struct {
		tool  Tool
		score float64
	}

	scored := make([]scoredTool, 0, len(o.tools))
	for _, tool := range o.tools {
		confidence := tool.CanHandle(inputCode, tctx)
		historical := o.perf.successRate(tool.Kind(), bucket)
		scored = append(scored, scoredTool{
			tool:  tool,
			score: 0.7*confidence + 0.3*historical,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].tool.Kind() < scored[j].tool.Kind()
	})

	var selected []Tool
	if len(scored) > 0 && scored[0].score > 0.5 {
		selected = append(selected, scored[0].tool)
	}
	for _, st := range scored[1:] {
		if len(selected) >= 3 {
			break
		}
		if st.score <= 0.6 || hasKind(selected, st.tool.Kind()) {
			continue
		}
		selected = append(selected, st.tool)
	}

	if !hasKind(selected, KindSyntaxValidator) {
		for _, tool := range o.tools {
			if tool.Kind() == KindSyntaxValidator {
				selected = append(selected, tool)
				break
			}
		}
	}

	return selected
}

// executeSafe runs one tool, converting an error or panic into a failed
// Result so a single tool can never abort the chain.
func (o *Orchestrator) executeSafe(tool Tool, inputCode string, tctx analyzer.Context) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			res = &Result{
				Kind:    tool.Kind(),
				Success: false,
				Error:   fmt.Sprintf("tool panicked: %v", r),
			}
		}
	}()

	result, err := tool.Execute(inputCode, tctx)
	if err != nil {
		return &Result{Kind: tool.Kind(), Success: false, Error: err.Error()}
	}
	if result == nil {
		return &Result{Kind: tool.Kind(), Success: false, Error: "tool returned no result"}
	}
	return result
}

// Performance returns a snapshot of the per-tool performance table, keyed
// "kind|bucket".
func (o *Orchestrator) Performance() map[string]Performance {
	return o.perf.snapshot()
}

func hasKind(selected []Tool, kind Kind) bool {
	for _, t := range selected {
		if t.Kind() == kind {
			return true
		}
	}
	return false
}
