// Package batch fans candidates out to a fixed worker pool and aggregates the
// outcomes into a Summary. Workers return results by value; a single
// collector goroutine owns the Summary and is the only caller of the Sink.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"webpify/internal/optimizer"
)

func Run(ctx context.Context, candidates []string, proc Processor, opts Options, sink Sink) (Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if sink == nil {
		sink = SinkFunc(func(Event) {})
	}

	started := time.Now()
	summary := Summary{RunID: opts.RunID, Total: len(candidates)}
	emit := func(ev Event) {
		ev.Time = time.Now()
		ev.RunID = opts.RunID
		ev.Total = summary.Total
		ev.Summary = summary
		sink.Emit(ev)
	}

	emit(Event{
		Kind:    EventStart,
		Level:   LevelInfo,
		Message: fmt.Sprintf("Found %d images to process", len(candidates)),
	})

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if n := len(candidates); n > 0 && workers > n {
		workers = n
	}

	jobs := make(chan Job)
	results := make(chan Result)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			worker(ctx, proc, opts, jobs, results)
		}()
	}

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for res := range results {
			summary.add(res)

			level := LevelInfo
			if res.Outcome.Status != optimizer.StatusConverted && res.Outcome.Status != optimizer.StatusSkipped {
				level = LevelWarn
			}
			ev := Event{
				Kind:    EventProgress,
				Level:   level,
				Index:   res.Index,
				File:    res.Display,
				Outcome: res.Outcome,
			}
			ev.Message = FormatProgress(ev.Index, summary.Total, ev.File, res.Outcome)
			emit(ev)

			if res.RemoveErr != nil {
				emit(Event{
					Kind:    EventWarning,
					Level:   LevelWarn,
					Index:   res.Index,
					File:    res.Display,
					Outcome: res.Outcome,
					Message: fmt.Sprintf("kept original %s: %v", res.Display, res.RemoveErr),
				})
			}
		}
	}()

	producerErr := make(chan error, 1)
	go func() {
		defer close(jobs)

		claimed := make(map[string]string, len(candidates))
		for i, path := range candidates {
			if err := ctx.Err(); err != nil {
				producerErr <- err
				return
			}

			job := Job{Index: i + 1, Path: path, Display: display(opts.Root, path)}
			out := optimizer.OutputPath(path)
			key := outputKey(out)
			if _, taken := claimed[key]; taken {
				results <- Result{Job: job, Outcome: optimizer.Conflict(path, out)}
				continue
			}
			claimed[key] = path

			select {
			case jobs <- job:
			case <-ctx.Done():
				producerErr <- ctx.Err()
				return
			}
		}
		producerErr <- nil
	}()

	wg.Wait()
	close(results)
	<-collectorDone

	summary.Unprocessed = summary.Total - summary.Processed
	summary.Elapsed = time.Since(started)
	emit(Event{
		Kind:    EventSummary,
		Level:   LevelInfo,
		Message: FormatSummary(summary),
	})

	if err := <-producerErr; err != nil {
		return summary, err
	}
	return summary, nil
}

func worker(ctx context.Context, proc Processor, opts Options, jobs <-chan Job, results chan<- Result) {
	for job := range jobs {
		results <- process(ctx, proc, opts, job)
	}
}

// process runs one candidate to completion and, for a converted candidate
// whose output is confirmed on disk, removes the original.
func process(ctx context.Context, proc Processor, opts Options, job Job) (res Result) {
	res = Result{Job: job}
	defer func() {
		if r := recover(); r != nil {
			res.Outcome = optimizer.Failed(job.Path, fmt.Errorf("panic: %v", r))
			res.OriginalRemoved = false
			res.RemoveErr = nil
		}
	}()

	jobCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	res.Outcome = proc.Optimize(jobCtx, job.Path)
	if res.Outcome.SourcePath == "" {
		res.Outcome.SourcePath = job.Path
	}

	if res.Outcome.Status == optimizer.StatusConverted && res.Outcome.Written && !opts.KeepOriginals {
		res.RemoveErr = removeOriginal(res.Outcome)
		res.OriginalRemoved = res.RemoveErr == nil
	}
	return res
}

// removeOriginal deletes the source only once the WebP file is present with
// the size the optimizer reported.
func removeOriginal(out optimizer.Outcome) error {
	if out.OutputPath == "" || filepath.Clean(out.OutputPath) == filepath.Clean(out.SourcePath) {
		return fmt.Errorf("refusing to remove %s: no separate output", out.SourcePath)
	}

	info, err := os.Stat(out.OutputPath)
	if err != nil {
		return fmt.Errorf("confirm output: %w", err)
	}
	if !info.Mode().IsRegular() || info.Size() != out.ConvertedSize {
		return fmt.Errorf("confirm output: %s is %d bytes, expected %d", out.OutputPath, info.Size(), out.ConvertedSize)
	}

	return os.Remove(out.SourcePath)
}

// caseInsensitiveFS reports whether the default filesystems of this platform
// treat names differing only in case as the same file.
var caseInsensitiveFS = runtime.GOOS == "darwin" || runtime.GOOS == "windows"

// outputKey identifies the file an output path resolves to on disk.
func outputKey(out string) string {
	key := filepath.Clean(out)
	if caseInsensitiveFS {
		key = strings.ToLower(key)
	}
	return key
}

func display(root, path string) string {
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if rel, err := filepath.Rel(root, path); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	return filepath.Base(path)
}
