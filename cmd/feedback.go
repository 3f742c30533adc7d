package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/testmorph/internal/memory"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <input_hash> <score>",
	Short: "Rate a past conversion from 1 to 5",
	Long: `Records a quality score for a stored conversion. Scores feed strategy
selection and reflection, so rating conversions improves later runs.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputHash := args[0]
		score, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid score %q: expected a number between 1 and 5", args[1])
		}
		if score < 1 || score > 5 {
			return fmt.Errorf("score must be between 1 and 5, got %g", score)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		eng, cleanup, err := openEngine(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := eng.Feedback(context.Background(), inputHash, score); err != nil {
			if errors.Is(err, memory.ErrCaseNotFound) {
				return fmt.Errorf("no conversion found with input hash %q", inputHash)
			}
			return fmt.Errorf("recording feedback: %w", err)
		}

		fmt.Printf("Feedback recorded for %s (score %.1f)\n", inputHash, score)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(feedbackCmd)
}
