// Package search implements exhaustive grid search over unwrap parameter
// candidates. It runs combinations sequentially: the optimizer exists for
// interactive exploration, not throughput.
package search

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/astitvaaryan/uvwrap/internal/model"
	"github.com/astitvaaryan/uvwrap/internal/quality"
	"github.com/astitvaaryan/uvwrap/internal/solver"
	"github.com/astitvaaryan/uvwrap/internal/telemetry"
)

// Metric selects the score to optimize.
type Metric string

const (
	// MetricStretch minimizes the locally recomputed stretch.
	MetricStretch Metric = "stretch"
	// MetricCoverage maximizes the locally recomputed coverage.
	MetricCoverage Metric = "coverage"
)

// ParseMetric validates a metric name. Unknown names fail before any work
// is performed.
func ParseMetric(name string) (Metric, error) {
	switch Metric(name) {
	case MetricStretch, MetricCoverage:
		return Metric(name), nil
	}
	return "", fmt.Errorf("unknown metric %q (want %q or %q)", name, MetricStretch, MetricCoverage)
}

// ErrAllTrialsFailed is returned when every combination's engine call failed.
var ErrAllTrialsFailed = errors.New("search: all parameter combinations failed")

// Ranges lists candidate values per recognized parameter. An empty slice
// holds that parameter at its base value. There is no open-ended name→values
// map: a parameter this record does not know cannot be searched.
type Ranges struct {
	AngleThreshold []float64
	MinIslandFaces []int
	PackIslands    []bool
	IslandMargin   []float64
}

// combinations enumerates the Cartesian product over base, first field
// outermost, last innermost.
func (r Ranges) combinations(base model.UnwrapParameters) []model.UnwrapParameters {
	angles := r.AngleThreshold
	if len(angles) == 0 {
		angles = []float64{base.AngleThreshold}
	}
	faces := r.MinIslandFaces
	if len(faces) == 0 {
		faces = []int{base.MinIslandFaces}
	}
	packs := r.PackIslands
	if len(packs) == 0 {
		packs = []bool{base.PackIslands}
	}
	margins := r.IslandMargin
	if len(margins) == 0 {
		margins = []float64{base.IslandMargin}
	}

	combos := make([]model.UnwrapParameters, 0, len(angles)*len(faces)*len(packs)*len(margins))
	for _, angle := range angles {
		for _, face := range faces {
			for _, pack := range packs {
				for _, margin := range margins {
					combos = append(combos, model.UnwrapParameters{
						AngleThreshold: angle,
						MinIslandFaces: face,
						PackIslands:    pack,
						IslandMargin:   margin,
					})
				}
			}
		}
	}
	return combos
}

// Result is the outcome of a grid search: the winning combination, its
// score, and the full trial log in evaluation order.
type Result struct {
	BestParams model.UnwrapParameters
	BestValue  float64
	Trials     []model.OptimizationTrial
}

// Optimizer scores parameter combinations through the solver boundary and
// the quality engine.
type Optimizer struct {
	engine solver.Engine
	logger *zap.Logger
}

// New creates an optimizer over the given engine. A nil logger disables
// logging.
func New(engine solver.Engine, logger *zap.Logger) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimizer{engine: engine, logger: logger}
}

// Optimize evaluates every combination of ranges over the default
// parameters and returns the best one under metric (stretch is minimized,
// coverage maximized). Configuration problems — an unknown metric or a
// combination that fails parameter validation — abort before any engine
// call. A per-combination engine failure is recorded in the trial log and
// skipped; ties keep the earliest combination, and only strict improvement
// replaces the running best.
func (o *Optimizer) Optimize(mesh *model.MeshGeometry, ranges Ranges, metric Metric) (*Result, error) {
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}

	combos := ranges.combinations(model.DefaultParameters())
	for _, params := range combos {
		if err := params.Validate(); err != nil {
			return nil, fmt.Errorf("invalid parameter range: %w", err)
		}
	}

	res := &Result{Trials: make([]model.OptimizationTrial, 0, len(combos))}
	found := false

	for _, params := range combos {
		uvs, _, err := o.engine.Unwrap(mesh, params)
		if err != nil {
			o.logger.Warn("trial failed",
				zap.Float64("angle_threshold", params.AngleThreshold),
				zap.Int("min_island_faces", params.MinIslandFaces),
				zap.Error(err))
			telemetry.OptimizerTrials.WithLabelValues(telemetry.StatusFailed).Inc()
			res.Trials = append(res.Trials, model.OptimizationTrial{Params: params, Error: err.Error()})
			continue
		}

		var value float64
		switch metric {
		case MetricStretch:
			value = quality.Stretch(mesh, uvs)
		case MetricCoverage:
			value = quality.Coverage(uvs, mesh.Triangles, quality.DefaultCoverageResolution)
		}
		telemetry.OptimizerTrials.WithLabelValues(telemetry.StatusSuccess).Inc()

		improved := !found || better(metric, value, res.BestValue)
		if improved {
			found = true
			res.BestParams = params
			res.BestValue = value
		}
		res.Trials = append(res.Trials, model.OptimizationTrial{
			Params:   params,
			Value:    value,
			Improved: improved,
		})

		o.logger.Debug("trial evaluated",
			zap.Float64("angle_threshold", params.AngleThreshold),
			zap.Int("min_island_faces", params.MinIslandFaces),
			zap.Float64("value", value),
			zap.Bool("improved", improved))
	}

	if !found {
		return nil, ErrAllTrialsFailed
	}
	return res, nil
}

// better reports strict improvement of value over best under metric.
func better(metric Metric, value, best float64) bool {
	if metric == MetricStretch {
		return value < best
	}
	return value > best
}
