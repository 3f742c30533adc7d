package batch

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ziadkadry99/testmorph/internal/engine"
	"github.com/ziadkadry99/testmorph/internal/walker"
)

// Converter is the engine surface the batch pipeline depends on.
// *engine.Engine satisfies it.
type Converter interface {
	Convert(ctx context.Context, inputCode string) *engine.Result
}

// Batcher converts files concurrently with configurable parallelism.
type Batcher struct {
	concurrency int
	converter   Converter
	onProgress  ProgressFunc
}

// NewBatcher creates a new Batcher with the given concurrency limit.
func NewBatcher(concurrency int, converter Converter, onProgress ProgressFunc) *Batcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Batcher{
		concurrency: concurrency,
		converter:   converter,
		onProgress:  onProgress,
	}
}

// ConvertFiles converts a list of specs concurrently and returns one
// outcome per file.
func (b *Batcher) ConvertFiles(ctx context.Context, files []walker.FileInfo) []FileOutcome {
	total := len(files)
	if total == 0 {
		return nil
	}

	sem := make(chan struct{}, b.concurrency)
	var mu sync.Mutex
	var processed int64
	var outcomes []FileOutcome

	var wg sync.WaitGroup
	for _, file := range files {
		select {
		case <-ctx.Done():
			mu.Lock()
			outcomes = append(outcomes, FileOutcome{
				InputPath: file.RelPath,
				Error:     fmt.Sprintf("convert %s: %v", file.RelPath, ctx.Err()),
			})
			mu.Unlock()
			count := atomic.AddInt64(&processed, 1)
			if b.onProgress != nil {
				b.onProgress(int(count), total, file.RelPath)
			}
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(f walker.FileInfo) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := b.convertOne(ctx, f)

			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()

			count := atomic.AddInt64(&processed, 1)
			if b.onProgress != nil {
				b.onProgress(int(count), total, f.RelPath)
			}
		}(file)
	}

	wg.Wait()
	return outcomes
}

func (b *Batcher) convertOne(ctx context.Context, f walker.FileInfo) FileOutcome {
	content, err := os.ReadFile(f.Path)
	if err != nil {
		return FileOutcome{
			InputPath: f.RelPath,
			Error:     fmt.Sprintf("read %s: %v", f.RelPath, err),
		}
	}

	res := b.converter.Convert(ctx, string(content))

	outcome := FileOutcome{
		InputPath:  f.RelPath,
		OutputPath: OutputRelPath(f.RelPath),
		Strategy:   string(res.Strategy),
		Confidence: res.Confidence,
		Success:    res.Success,
		Code:       res.Code,
		Duration:   time.Duration(res.ExecutionTime * float64(time.Second)),
	}
	if !res.Success {
		outcome.Error = fmt.Sprintf("convert %s: %s", f.RelPath, strings.Join(res.Issues, "; "))
	}
	return outcome
}
