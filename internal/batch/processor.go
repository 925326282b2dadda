// Package batch runs many independent unwrap-or-cache-hit jobs across a
// bounded worker pool. Job failures are isolated: one bad input never aborts
// or blocks the rest of the batch.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/astitvaaryan/uvwrap/internal/cache"
	"github.com/astitvaaryan/uvwrap/internal/model"
	"github.com/astitvaaryan/uvwrap/internal/quality"
	"github.com/astitvaaryan/uvwrap/internal/solver"
	"github.com/astitvaaryan/uvwrap/internal/telemetry"
)

// ProgressFunc receives a notification after each job finishes, success or
// failure. Invocations are serialized on a dedicated goroutine, never under
// the scheduler's internal locks, so a slow callback cannot stall workers.
type ProgressFunc func(completed, total int, name string)

// Options configures a Processor.
type Options struct {
	// Workers bounds the pool size; <= 0 selects the host's available
	// parallelism.
	Workers int
	// Logger receives per-job diagnostics. Nil disables logging.
	Logger *zap.Logger
}

// Processor drives batches of unwrap jobs through the cache and the solver.
type Processor struct {
	engine  solver.Engine
	store   *cache.Store
	workers int
	logger  *zap.Logger
}

// New creates a processor over the given engine and cache store.
func New(engine solver.Engine, store *cache.Store, opts Options) *Processor {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{engine: engine, store: store, workers: workers, logger: logger}
}

// ProcessBatch unwraps every input mesh into outputDir under the shared
// parameters and returns the per-job results in completion order plus the
// derived summary. The summary is always produced, even under partial
// failure; only invalid parameters or an unwritable output directory abort
// the whole batch.
//
// Cancelling ctx is cooperative: running jobs finish, jobs not yet started
// are recorded as failures carrying the context error, and the report still
// covers all submitted jobs.
func (p *Processor) ProcessBatch(ctx context.Context, inputs []string, outputDir string, params model.UnwrapParameters, onProgress ProgressFunc) (*model.BatchReport, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	jobs := make([]model.BatchJob, len(inputs))
	for i, input := range inputs {
		jobs[i] = model.NewBatchJob(input, filepath.Join(outputDir, filepath.Base(input)))
	}

	p.logger.Info("batch started",
		zap.Int("jobs", len(jobs)),
		zap.Int("workers", p.workers),
		zap.String("output_dir", outputDir))

	start := time.Now()

	var (
		mu      sync.Mutex
		results = make([]model.BatchResult, 0, len(jobs))
	)
	var completed atomic.Int64

	// Progress events flow through a buffered channel drained by a single
	// goroutine; the callback never runs while the results lock is held.
	events := make(chan model.Progress, len(jobs))
	var drain sync.WaitGroup
	drain.Add(1)
	go func() {
		defer drain.Done()
		for ev := range events {
			if onProgress != nil {
				onProgress(ev.Completed, ev.Total, ev.Name)
			}
		}
	}()

	jobCh := make(chan model.BatchJob)
	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				var res model.BatchResult
				if err := ctx.Err(); err != nil {
					res = failureResult(job, err)
				} else {
					res = p.runJob(job, params)
				}

				mu.Lock()
				results = append(results, res)
				mu.Unlock()

				done := int(completed.Add(1))
				events <- model.Progress{
					Completed: done,
					Total:     len(jobs),
					Name:      filepath.Base(job.InputPath),
				}
			}
		}()
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)
	wg.Wait()
	close(events)
	drain.Wait()

	report := &model.BatchReport{
		Results: results,
		Summary: summarize(results, time.Since(start)),
	}

	p.logger.Info("batch finished",
		zap.Int("success", report.Summary.Success),
		zap.Int("failed", report.Summary.Failed),
		zap.Duration("total_time", report.Summary.TotalTime))

	return report, ctx.Err()
}

// runJob executes one job end to end. Any error is captured in the result;
// nothing escapes to the batch level.
func (p *Processor) runJob(job model.BatchJob, params model.UnwrapParameters) model.BatchResult {
	start := time.Now()

	mesh, err := p.engine.Load(job.InputPath)
	if err != nil {
		return failureResult(job, fmt.Errorf("load: %w", err))
	}

	key := cache.ComputeKey(mesh, params)

	// The advisory lock collapses concurrent misses for identical
	// fingerprints into one computation; late arrivals find the entry on
	// their re-check.
	unlock := p.store.LockKey(key)
	var (
		uvs     model.UVMap
		engineM model.EngineMetrics
		scores  model.QualityScores
		hit     bool
	)
	if entry, ok := p.store.Load(key); ok {
		uvs, engineM, scores, hit = entry.UVs, entry.Engine, entry.Quality, true
	} else {
		unwrapStart := time.Now()
		uvs, engineM, err = p.engine.Unwrap(mesh, params)
		if err != nil {
			unlock()
			return failureResult(job, fmt.Errorf("unwrap: %w", err))
		}
		telemetry.UnwrapDuration.Observe(time.Since(unwrapStart).Seconds())

		scores = quality.Score(mesh, uvs)
		if err = p.store.Put(key, uvs, engineM, scores); err != nil {
			unlock()
			return failureResult(job, fmt.Errorf("cache: %w", err))
		}
	}
	unlock()

	if err := p.engine.Save(mesh, uvs, job.OutputPath); err != nil {
		return failureResult(job, fmt.Errorf("save: %w", err))
	}

	p.logger.Debug("job finished",
		zap.String("job", job.ID),
		zap.String("input", job.InputPath),
		zap.Bool("cache_hit", hit),
		zap.Duration("elapsed", time.Since(start)))
	telemetry.JobsTotal.WithLabelValues(telemetry.StatusSuccess).Inc()

	return model.BatchResult{
		Job:       job,
		Vertices:  mesh.NumVertices(),
		Triangles: mesh.NumTriangles(),
		Elapsed:   time.Since(start),
		CacheHit:  hit,
		Engine:    engineM,
		Quality:   scores,
	}
}

func failureResult(job model.BatchJob, err error) model.BatchResult {
	telemetry.JobsTotal.WithLabelValues(telemetry.StatusFailed).Inc()
	return model.BatchResult{Job: job, Error: err.Error()}
}

// summarize derives the batch summary. AvgTime divides the wall-clock span
// by the job count; quality means cover successful jobs only and are zero
// when nothing succeeded.
func summarize(results []model.BatchResult, totalTime time.Duration) model.BatchSummary {
	s := model.BatchSummary{
		Total:     len(results),
		TotalTime: totalTime,
	}

	var sumStretch, sumCoverage float64
	for _, r := range results {
		if r.Failed() {
			s.Failed++
			continue
		}
		s.Success++
		sumStretch += r.Quality.Stretch
		sumCoverage += r.Quality.Coverage
	}

	if s.Total > 0 {
		s.AvgTime = totalTime / time.Duration(s.Total)
	}
	if s.Success > 0 {
		s.AvgStretch = sumStretch / float64(s.Success)
		s.AvgCoverage = sumCoverage / float64(s.Success)
	}
	return s
}
