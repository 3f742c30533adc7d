package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show engine performance and learning state",
	Long:  `Prints accumulated conversion statistics: success rates, per-strategy performance, learned patterns, and reflection state.`,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().Bool("json", false, "print the raw status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng, cleanup, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	status, err := eng.Status(context.Background())
	if err != nil {
		return fmt.Errorf("collecting status: %w", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding status: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println("Engine Status")
	fmt.Println("=============")
	fmt.Printf("  Agent type:      %s\n", status.AgentType)
	fmt.Printf("  Autonomy level:  %.2f\n", status.AutonomyLevel)
	fmt.Printf("  Model:           %s\n", cfg.Model)
	fmt.Println()

	perf := status.Performance
	fmt.Println("  Performance:")
	fmt.Printf("    Stored cases:     %d\n", perf.TotalCases)
	fmt.Printf("    Success rate:     %.1f%%\n", perf.SuccessRate*100)
	fmt.Printf("    Avg confidence:   %.2f\n", perf.AvgConfidence)
	fmt.Printf("    Avg exec time:    %.2fs\n", perf.AvgExecutionTime)
	if perf.FeedbackCount > 0 {
		fmt.Printf("    Avg feedback:     %.1f/5 (%d rating(s))\n", perf.AvgFeedback, perf.FeedbackCount)
	}
	fmt.Println()

	if len(status.Strategies) > 0 {
		fmt.Println("  Strategies:")
		sort.Slice(status.Strategies, func(i, j int) bool {
			return status.Strategies[i].Attempts > status.Strategies[j].Attempts
		})
		for _, s := range status.Strategies {
			fmt.Printf("    %-28s %3d attempt(s)  %.1f%% success  [%s]\n",
				s.Strategy, s.Attempts, s.SuccessRate*100, s.ContextBucket)
		}
		fmt.Println()
	}

	fmt.Println("  Learning:")
	fmt.Printf("    Learned patterns: %d\n", status.Learning.LearnedPatterns)
	fmt.Printf("    Knowledge items:  %d\n", status.Learning.KnowledgeItems)
	fmt.Println()

	refl := status.Reflection
	fmt.Println("  Reflection:")
	fmt.Printf("    Total:            %d\n", refl.TotalReflections)
	fmt.Printf("    Planned actions:  %d\n", refl.PlannedActions)
	fmt.Printf("    Completed:        %d\n", refl.CompletedActions)
	if refl.LastCause != "" {
		fmt.Printf("    Last cause:       %s\n", refl.LastCause)
	}

	return nil
}
