package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astitvaaryan/uvwrap/internal/cache"
	"github.com/astitvaaryan/uvwrap/internal/model"
)

// stubEngine serves meshes from an in-memory map and unwraps by projecting
// vertices onto the XY plane, which is an exact isometry for flat meshes.
type stubEngine struct {
	mu          sync.Mutex
	meshes      map[string]*model.MeshGeometry
	unwrapCalls int
	failUnwrap  map[string]bool // input meshes that fail to unwrap, keyed by path
}

func newStubEngine() *stubEngine {
	return &stubEngine{
		meshes:     make(map[string]*model.MeshGeometry),
		failUnwrap: make(map[string]bool),
	}
}

func (e *stubEngine) addMesh(path string, offset float64) {
	e.meshes[path] = &model.MeshGeometry{
		Vertices: []model.Vec3{
			{X: offset, Y: 0, Z: 0}, {X: offset + 1, Y: 0, Z: 0}, {X: offset, Y: 1, Z: 0},
		},
		Triangles: [][3]int{{0, 1, 2}},
	}
}

func (e *stubEngine) Load(path string) (*model.MeshGeometry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	mesh, ok := e.meshes[path]
	if !ok {
		return nil, fmt.Errorf("open %s: no such file", path)
	}
	return mesh.Clone(), nil
}

func (e *stubEngine) Unwrap(mesh *model.MeshGeometry, params model.UnwrapParameters) (model.UVMap, model.EngineMetrics, error) {
	e.mu.Lock()
	e.unwrapCalls++
	fail := false
	for path, m := range e.meshes {
		if e.failUnwrap[path] && len(m.Vertices) > 0 && m.Vertices[0] == mesh.Vertices[0] {
			fail = true
		}
	}
	e.mu.Unlock()

	if fail {
		return nil, model.EngineMetrics{}, fmt.Errorf("solver rejected mesh")
	}

	uvs := make(model.UVMap, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		uvs[i] = model.Vec2{U: v.X, V: v.Y}
	}
	return uvs, model.EngineMetrics{NumIslands: 1, AvgStretch: 1, MaxStretch: 1, Coverage: 0.5}, nil
}

func (e *stubEngine) Save(mesh *model.MeshGeometry, uvs model.UVMap, path string) error {
	return os.WriteFile(path, []byte("mesh"), 0o644)
}

func testProcessor(t *testing.T, engine *stubEngine, workers int) (*Processor, *cache.Store) {
	t.Helper()
	store, err := cache.Open(t.TempDir(), nil)
	require.NoError(t, err)
	return New(engine, store, Options{Workers: workers}), store
}

func TestProcessBatchAllSucceed(t *testing.T) {
	engine := newStubEngine()
	var inputs []string
	for i := 0; i < 4; i++ {
		path := fmt.Sprintf("/meshes/m%d.obj", i)
		engine.addMesh(path, float64(i))
		inputs = append(inputs, path)
	}
	proc, _ := testProcessor(t, engine, 2)
	outDir := t.TempDir()

	report, err := proc.ProcessBatch(context.Background(), inputs, outDir, model.DefaultParameters(), nil)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Summary.Total)
	assert.Equal(t, 4, report.Summary.Success)
	assert.Equal(t, 0, report.Summary.Failed)
	assert.Len(t, report.Results, 4)
	for _, r := range report.Results {
		assert.False(t, r.Failed())
		assert.Equal(t, 3, r.Vertices)
		assert.Equal(t, 1, r.Triangles)
		assert.FileExists(t, r.Job.OutputPath)
	}
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	engine := newStubEngine()
	inputs := []string{
		"/meshes/good1.obj",
		"/meshes/missing1.obj",
		"/meshes/good2.obj",
		"/meshes/missing2.obj",
		"/meshes/good3.obj",
	}
	engine.addMesh("/meshes/good1.obj", 0)
	engine.addMesh("/meshes/good2.obj", 1)
	engine.addMesh("/meshes/good3.obj", 2)

	proc, _ := testProcessor(t, engine, 3)
	report, err := proc.ProcessBatch(context.Background(), inputs, t.TempDir(), model.DefaultParameters(), nil)
	require.NoError(t, err)

	s := report.Summary
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 3, s.Success)
	assert.Equal(t, 2, s.Failed)

	// Quality means cover the successes only; the stub's flat projection is
	// an exact isometry, so the mean stretch over successes is exactly 1.
	assert.Equal(t, 1.0, s.AvgStretch)
	assert.Greater(t, s.AvgCoverage, 0.0)

	failed := 0
	for _, r := range report.Results {
		if r.Failed() {
			failed++
			assert.Contains(t, r.Error, "no such file")
		}
	}
	assert.Equal(t, 2, failed)
}

func TestProcessBatchNoSuccesses(t *testing.T) {
	engine := newStubEngine()
	proc, _ := testProcessor(t, engine, 2)

	report, err := proc.ProcessBatch(context.Background(),
		[]string{"/meshes/a.obj", "/meshes/b.obj"}, t.TempDir(), model.DefaultParameters(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.Failed)
	assert.Equal(t, 0.0, report.Summary.AvgStretch)
	assert.Equal(t, 0.0, report.Summary.AvgCoverage)
}

func TestProcessBatchProgress(t *testing.T) {
	engine := newStubEngine()
	var inputs []string
	for i := 0; i < 6; i++ {
		path := fmt.Sprintf("/meshes/m%d.obj", i)
		engine.addMesh(path, float64(i))
		inputs = append(inputs, path)
	}
	proc, _ := testProcessor(t, engine, 3)

	var mu sync.Mutex
	var completions []int
	_, err := proc.ProcessBatch(context.Background(), inputs, t.TempDir(), model.DefaultParameters(),
		func(completed, total int, name string) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 6, total)
			assert.NotEmpty(t, name)
			completions = append(completions, completed)
		})
	require.NoError(t, err)

	// One notification per job, carrying each completion count exactly once.
	require.Len(t, completions, 6)
	sort.Ints(completions)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, completions)
}

func TestProcessBatchCacheHitOnSecondRun(t *testing.T) {
	engine := newStubEngine()
	engine.addMesh("/meshes/m.obj", 0)
	proc, _ := testProcessor(t, engine, 1)
	params := model.DefaultParameters()

	first, err := proc.ProcessBatch(context.Background(), []string{"/meshes/m.obj"}, t.TempDir(), params, nil)
	require.NoError(t, err)
	require.False(t, first.Results[0].CacheHit)
	require.Equal(t, 1, engine.unwrapCalls)

	second, err := proc.ProcessBatch(context.Background(), []string{"/meshes/m.obj"}, t.TempDir(), params, nil)
	require.NoError(t, err)
	assert.True(t, second.Results[0].CacheHit)
	assert.Equal(t, 1, engine.unwrapCalls, "cache hit must not reach the solver")
	assert.Equal(t, first.Results[0].Quality, second.Results[0].Quality)
}

func TestProcessBatchParameterChangeMissesCache(t *testing.T) {
	engine := newStubEngine()
	engine.addMesh("/meshes/m.obj", 0)
	proc, _ := testProcessor(t, engine, 1)

	_, err := proc.ProcessBatch(context.Background(), []string{"/meshes/m.obj"}, t.TempDir(), model.DefaultParameters(), nil)
	require.NoError(t, err)

	params := model.DefaultParameters()
	params.AngleThreshold = 45
	report, err := proc.ProcessBatch(context.Background(), []string{"/meshes/m.obj"}, t.TempDir(), params, nil)
	require.NoError(t, err)
	assert.False(t, report.Results[0].CacheHit)
	assert.Equal(t, 2, engine.unwrapCalls)
}

func TestProcessBatchDeduplicatesIdenticalRequests(t *testing.T) {
	// Eight jobs over the same mesh and parameters, run concurrently: the
	// per-fingerprint lock must collapse them into one solver call.
	engine := newStubEngine()
	engine.addMesh("/meshes/m.obj", 0)
	proc, _ := testProcessor(t, engine, 8)

	inputs := make([]string, 8)
	for i := range inputs {
		inputs[i] = "/meshes/m.obj"
	}
	report, err := proc.ProcessBatch(context.Background(), inputs, t.TempDir(), model.DefaultParameters(), nil)
	require.NoError(t, err)

	assert.Equal(t, 8, report.Summary.Success)
	assert.Equal(t, 1, engine.unwrapCalls, "identical concurrent misses must compute once")

	hits := 0
	for _, r := range report.Results {
		if r.CacheHit {
			hits++
		}
	}
	assert.Equal(t, 7, hits)
}

func TestProcessBatchUnwrapFailure(t *testing.T) {
	engine := newStubEngine()
	engine.addMesh("/meshes/good.obj", 0)
	engine.addMesh("/meshes/bad.obj", 5)
	engine.failUnwrap["/meshes/bad.obj"] = true

	proc, _ := testProcessor(t, engine, 2)
	report, err := proc.ProcessBatch(context.Background(),
		[]string{"/meshes/good.obj", "/meshes/bad.obj"}, t.TempDir(), model.DefaultParameters(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Success)
	assert.Equal(t, 1, report.Summary.Failed)
	for _, r := range report.Results {
		if r.Failed() {
			assert.Contains(t, r.Error, "unwrap")
		}
	}
}

func TestProcessBatchInvalidParameters(t *testing.T) {
	engine := newStubEngine()
	proc, _ := testProcessor(t, engine, 1)

	params := model.DefaultParameters()
	params.MinIslandFaces = 0
	_, err := proc.ProcessBatch(context.Background(), []string{"/meshes/m.obj"}, t.TempDir(), params, nil)
	assert.Error(t, err)
	assert.Equal(t, 0, engine.unwrapCalls, "invalid configuration fails before any work")
}

func TestProcessBatchCancelledContext(t *testing.T) {
	engine := newStubEngine()
	var inputs []string
	for i := 0; i < 4; i++ {
		path := fmt.Sprintf("/meshes/m%d.obj", i)
		engine.addMesh(path, float64(i))
		inputs = append(inputs, path)
	}
	proc, _ := testProcessor(t, engine, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := proc.ProcessBatch(ctx, inputs, t.TempDir(), model.DefaultParameters(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report, "summary is still flushed on cancellation")
	assert.Equal(t, 4, report.Summary.Total)
	assert.Equal(t, 4, report.Summary.Failed)
	for _, r := range report.Results {
		assert.Contains(t, r.Error, "context canceled")
	}
}

func TestProcessBatchOutputNaming(t *testing.T) {
	engine := newStubEngine()
	engine.addMesh("/meshes/torus.obj", 0)
	proc, _ := testProcessor(t, engine, 1)
	outDir := t.TempDir()

	report, err := proc.ProcessBatch(context.Background(), []string{"/meshes/torus.obj"}, outDir, model.DefaultParameters(), nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "torus.obj"), report.Results[0].Job.OutputPath)
}
