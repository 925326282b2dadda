package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astitvaaryan/uvwrap/internal/model"
)

type fakeEngine struct{ name string }

func (e *fakeEngine) Load(path string) (*model.MeshGeometry, error) { return nil, nil }
func (e *fakeEngine) Unwrap(mesh *model.MeshGeometry, params model.UnwrapParameters) (model.UVMap, model.EngineMetrics, error) {
	return nil, model.EngineMetrics{}, nil
}
func (e *fakeEngine) Save(mesh *model.MeshGeometry, uvs model.UVMap, path string) error { return nil }

func register(t *testing.T, name string) {
	t.Helper()
	Register(name, func() (Engine, error) { return &fakeEngine{name: name}, nil })
	t.Cleanup(func() { Unregister(name) })
}

func TestOpenRegisteredBackend(t *testing.T) {
	register(t, "fake")

	engine, err := Open("fake")
	require.NoError(t, err)
	assert.Equal(t, "fake", engine.(*fakeEngine).name)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("no-such-backend")
	assert.ErrorIs(t, err, ErrNoEngine)
}

func TestAvailableSorted(t *testing.T) {
	register(t, "zeta")
	register(t, "alpha")

	names := Available()
	assert.Contains(t, names, "alpha")
	assert.Contains(t, names, "zeta")
	assert.IsIncreasing(t, names)
}

func TestDefaultPrefersNative(t *testing.T) {
	register(t, "fake")
	register(t, "native")

	engine, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "native", engine.(*fakeEngine).name)
}

func TestDefaultFallsBack(t *testing.T) {
	register(t, "fake")

	engine, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "fake", engine.(*fakeEngine).name)
}

func TestDefaultEmpty(t *testing.T) {
	_, err := Default()
	assert.ErrorIs(t, err, ErrNoEngine)
}
