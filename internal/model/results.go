package model

import (
	"time"

	"github.com/google/uuid"
)

// EngineMetrics is the quality summary reported by the unwrap solver itself.
// It is kept separate from QualityScores, which this module recomputes
// locally from the produced UVs; the two families must not be mixed up.
type EngineMetrics struct {
	NumIslands int     `json:"num_islands"`
	AvgStretch float64 `json:"avg_stretch"`
	MaxStretch float64 `json:"max_stretch"`
	Coverage   float64 `json:"coverage"`
}

// QualityScores holds the locally recomputed quality measures used for
// scoring and batch aggregation.
type QualityScores struct {
	Stretch         float64 `json:"stretch"`
	Coverage        float64 `json:"coverage"`
	AngleDistortion float64 `json:"angle_distortion"`
}

// BatchJob is a single unit of batch work: unwrap one input mesh into one
// output mesh under the batch's shared parameters. A job is created at
// submission, consumed by exactly one worker, and discarded once its result
// is recorded.
type BatchJob struct {
	ID         string `json:"id"`
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`
}

// NewBatchJob creates a job with a fresh short ID.
func NewBatchJob(inputPath, outputPath string) BatchJob {
	return BatchJob{
		ID:         uuid.New().String()[:8],
		InputPath:  inputPath,
		OutputPath: outputPath,
	}
}

// BatchResult records the outcome of one job. Error is empty on success.
type BatchResult struct {
	Job       BatchJob      `json:"job"`
	Vertices  int           `json:"vertices"`
	Triangles int           `json:"triangles"`
	Elapsed   time.Duration `json:"elapsed"`
	CacheHit  bool          `json:"cache_hit"`
	Engine    EngineMetrics `json:"engine_metrics"`
	Quality   QualityScores `json:"quality"`
	Error     string        `json:"error,omitempty"`
}

// Failed reports whether the job ended in an error.
func (r BatchResult) Failed() bool { return r.Error != "" }

// BatchSummary aggregates a finished batch.
//
// AvgTime is TotalTime divided by the job count, i.e. wall-clock throughput
// of the batch as a whole, not the mean of individual job durations. Callers
// that want mean per-job latency can average BatchResult.Elapsed instead.
type BatchSummary struct {
	Total       int           `json:"total"`
	Success     int           `json:"success"`
	Failed      int           `json:"failed"`
	TotalTime   time.Duration `json:"total_time"`
	AvgTime     time.Duration `json:"avg_time"`
	AvgStretch  float64       `json:"avg_stretch"`
	AvgCoverage float64       `json:"avg_coverage"`
}

// BatchReport is the full outcome of a batch run: the per-job results in
// completion order plus the derived summary.
type BatchReport struct {
	Results []BatchResult `json:"results"`
	Summary BatchSummary  `json:"summary"`
}

// Progress is a single progress notification emitted while a batch runs.
type Progress struct {
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Name      string `json:"name"`
}

// OptimizationTrial records one evaluated parameter combination during a
// grid search. Improved marks trials that replaced the running best.
type OptimizationTrial struct {
	Params   UnwrapParameters `json:"params"`
	Value    float64          `json:"value"`
	Improved bool             `json:"improved"`
	Error    string           `json:"error,omitempty"`
}

// Failed reports whether the trial's engine call errored.
func (t OptimizationTrial) Failed() bool { return t.Error != "" }
