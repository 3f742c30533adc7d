package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/testmorph/internal/batch"
	"github.com/ziadkadry99/testmorph/internal/config"
	"github.com/ziadkadry99/testmorph/internal/engine"
	"github.com/ziadkadry99/testmorph/internal/progress"
	"github.com/ziadkadry99/testmorph/internal/report"
	"github.com/ziadkadry99/testmorph/internal/walker"
)

var convertCmd = &cobra.Command{
	Use:   "convert [path]",
	Short: "Convert Cypress tests to Playwright",
	Long: `Converts a single Cypress spec, or every spec under a directory, to
Playwright. Directory runs skip unchanged files and write *.spec.ts
outputs mirroring the source tree.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("out", "", "output directory (overrides config)")
	convertCmd.Flags().String("report", "", "write an HTML run report to this path")
	convertCmd.Flags().Int("concurrency", 0, "max parallel conversions (overrides config)")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	if concurrency > 0 {
		cfg.MaxConcurrency = concurrency
	}
	outDir, _ := cmd.Flags().GetString("out")
	if outDir == "" {
		outDir = cfg.OutputDir
	}
	reportPath, _ := cmd.Flags().GetString("report")

	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stating %s: %w", target, err)
	}

	eng, cleanup, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var run *batch.RunResult
	if info.IsDir() {
		run, err = convertTree(ctx, eng, cfg, target, outDir)
	} else {
		run, err = convertFile(ctx, eng, target, outDir)
	}
	if err != nil {
		return err
	}

	// Persist the knowledge base so later runs retrieve this run's
	// exemplars.
	if kb := eng.Knowledge(); kb != nil && run.FilesConverted > 0 {
		if err := kb.Persist(cfg.KnowledgeDir()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not persist knowledge base: %v\n", err)
		}
	}

	if reportPath != "" {
		gen := report.NewGenerator(projectName(target))
		if err := gen.WriteHTML(run, reportPath); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}

	if info.IsDir() {
		printRunSummary(run, outDir, reportPath)
	}

	if run.FilesConverted == 0 && run.FilesFailed > 0 {
		return fmt.Errorf("all %d conversion(s) failed", run.FilesFailed)
	}
	return nil
}

// convertTree converts every changed Cypress spec under rootDir.
func convertTree(ctx context.Context, eng *engine.Engine, cfg *config.Config, rootDir, outDir string) (*batch.RunResult, error) {
	if verbose {
		fmt.Fprintf(os.Stderr, "Scanning specs in %s...\n", rootDir)
	}

	files, err := walker.Walk(walker.WalkerConfig{
		RootDir: rootDir,
		Include: cfg.Include,
		Exclude: cfg.Exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", rootDir, err)
	}

	cypress := 0
	for _, f := range files {
		if f.Dialect == walker.DialectCypress {
			cypress++
		}
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Found %d files, %d Cypress specs\n", len(files), cypress)
	}
	if cypress == 0 {
		fmt.Println("No Cypress specs found to convert.")
		return &batch.RunResult{}, nil
	}

	pipeline := batch.NewPipeline(eng, rootDir, outDir, cfg.MaxConcurrency)

	// The pipeline drops unchanged files before converting, so the bar
	// total comes from its first callback.
	reporter := progress.NewReporter()
	var startOnce sync.Once
	started := false
	pipeline.SetProgressFunc(func(processed, total int, currentFile string) {
		startOnce.Do(func() {
			reporter.Start(total)
			started = true
		})
		reporter.Update(processed, currentFile)
	})

	run, err := pipeline.Run(ctx, files)
	if started {
		reporter.Finish()
	}
	if err != nil {
		return nil, fmt.Errorf("conversion failed: %w", err)
	}
	return run, nil
}

// convertFile converts one spec and writes the output under outDir.
func convertFile(ctx context.Context, eng *engine.Engine, path, outDir string) (*batch.RunResult, error) {
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if d := walker.DetectDialect(string(data)); d != walker.DialectCypress {
		fmt.Fprintf(os.Stderr, "Warning: %s does not look like a Cypress spec (detected: %s)\n", path, d)
	}

	res := eng.Convert(ctx, string(data))
	if !res.Success {
		return nil, fmt.Errorf("converting %s: %s", path, strings.Join(res.Issues, "; "))
	}

	outRel := batch.OutputRelPath(filepath.Base(path))
	outPath := filepath.Join(outDir, outRel)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	code := res.Code
	if !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	if err := os.WriteFile(outPath, []byte(code), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", outPath, err)
	}

	fmt.Printf("Converted %s -> %s\n", path, outPath)
	fmt.Printf("  Strategy:   %s\n", res.Strategy)
	fmt.Printf("  Confidence: %.2f\n", res.Confidence)

	return &batch.RunResult{
		FilesConverted: 1,
		Duration:       time.Since(start),
		Outcomes: []batch.FileOutcome{{
			InputPath:  path,
			OutputPath: outRel,
			Strategy:   string(res.Strategy),
			Confidence: res.Confidence,
			Success:    true,
			Code:       res.Code,
			Duration:   time.Duration(res.ExecutionTime * float64(time.Second)),
		}},
	}, nil
}

func printRunSummary(run *batch.RunResult, outDir, reportPath string) {
	fmt.Println()
	fmt.Println("Conversion complete!")
	fmt.Printf("  Files converted: %d\n", run.FilesConverted)
	fmt.Printf("  Files skipped:   %d (unchanged)\n", run.FilesSkipped)
	fmt.Printf("  Files failed:    %d\n", run.FilesFailed)
	fmt.Printf("  Duration:        %s\n", run.Duration.Round(time.Millisecond))
	fmt.Printf("  Output:          %s\n", outDir)
	if reportPath != "" {
		fmt.Printf("  Report:          %s\n", reportPath)
	}

	if len(run.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "\nWarnings (%d):\n", len(run.Errors))
		for _, e := range run.Errors {
			fmt.Fprintf(os.Stderr, "  - %v\n", e)
		}
	}
}

// projectName derives a human-readable name for reports from the
// conversion target.
func projectName(target string) string {
	abs, err := filepath.Abs(target)
	if err != nil {
		return filepath.Base(target)
	}
	return filepath.Base(abs)
}
