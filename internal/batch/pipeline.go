package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ziadkadry99/testmorph/internal/walker"
)

// Pipeline orchestrates a batch run: filter -> convert -> write -> record.
type Pipeline struct {
	converter   Converter
	rootDir     string
	outDir      string
	concurrency int
	onProgress  ProgressFunc
}

// NewPipeline creates a new Pipeline. Converted specs are written under
// outDir, mirroring the input tree; if outDir is empty they are written
// next to their sources.
func NewPipeline(converter Converter, rootDir, outDir string, concurrency int) *Pipeline {
	if outDir == "" {
		outDir = rootDir
	}
	if concurrency < 1 {
		concurrency = 4
	}
	return &Pipeline{
		converter:   converter,
		rootDir:     rootDir,
		outDir:      outDir,
		concurrency: concurrency,
	}
}

// SetProgressFunc sets the progress callback.
func (p *Pipeline) SetProgressFunc(fn ProgressFunc) {
	p.onProgress = fn
}

// Run converts every changed Cypress spec among the walked files.
func (p *Pipeline) Run(ctx context.Context, files []walker.FileInfo) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{}

	state, err := LoadState(p.rootDir)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	// Only Cypress files are conversion candidates; unchanged ones are
	// skipped.
	var changed []walker.FileInfo
	for _, f := range files {
		if f.Dialect != walker.DialectCypress {
			continue
		}
		if !state.IsFileChanged(f.RelPath, f.ContentHash) {
			result.FilesSkipped++
			result.Outcomes = append(result.Outcomes, FileOutcome{
				InputPath:  f.RelPath,
				OutputPath: OutputRelPath(f.RelPath),
				Skipped:    true,
			})
			continue
		}
		changed = append(changed, f)
	}

	if len(changed) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	hashes := make(map[string]string, len(changed))
	for _, f := range changed {
		hashes[f.RelPath] = f.ContentHash
	}

	batcher := NewBatcher(p.concurrency, p.converter, p.onProgress)
	outcomes := batcher.ConvertFiles(ctx, changed)

	for i := range outcomes {
		o := &outcomes[i]
		if !o.Success {
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Errorf("%s", o.Error))
			continue
		}

		if err := p.writeOutput(*o); err != nil {
			o.Success = false
			o.Error = fmt.Sprintf("write %s: %v", o.OutputPath, err)
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Errorf("write %s: %w", o.OutputPath, err))
			continue
		}

		state.FileHashes[o.InputPath] = hashes[o.InputPath]
		result.FilesConverted++
	}

	result.Outcomes = append(result.Outcomes, outcomes...)
	sort.Slice(result.Outcomes, func(i, j int) bool {
		return result.Outcomes[i].InputPath < result.Outcomes[j].InputPath
	})

	if err := state.SaveState(p.rootDir); err != nil {
		return result, fmt.Errorf("save state: %w", err)
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (p *Pipeline) writeOutput(o FileOutcome) error {
	path := filepath.Join(p.outDir, filepath.FromSlash(o.OutputPath))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	code := o.Code
	if !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	return os.WriteFile(path, []byte(code), 0o644)
}
