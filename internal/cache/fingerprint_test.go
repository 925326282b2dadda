package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astitvaaryan/uvwrap/internal/model"
)

func testMesh() *model.MeshGeometry {
	return &model.MeshGeometry{
		Vertices:  []model.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 1}},
		Triangles: [][3]int{{0, 1, 2}, {1, 3, 2}},
	}
}

func TestComputeKeyDeterministic(t *testing.T) {
	mesh := testMesh()
	params := model.DefaultParameters()

	k1 := ComputeKey(mesh, params)
	k2 := ComputeKey(mesh, params)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64, "sha256 hex key")

	// Field assignment order must not matter.
	var p2 model.UnwrapParameters
	p2.IslandMargin = params.IslandMargin
	p2.PackIslands = params.PackIslands
	p2.MinIslandFaces = params.MinIslandFaces
	p2.AngleThreshold = params.AngleThreshold
	assert.Equal(t, k1, ComputeKey(mesh, p2))

	// Identical content in a distinct allocation hashes identically.
	assert.Equal(t, k1, ComputeKey(mesh.Clone(), params))
}

func TestComputeKeySensitivity(t *testing.T) {
	base := ComputeKey(testMesh(), model.DefaultParameters())

	t.Run("vertex coordinate", func(t *testing.T) {
		mesh := testMesh()
		mesh.Vertices[2].Y += 1e-9
		assert.NotEqual(t, base, ComputeKey(mesh, model.DefaultParameters()))
	})

	t.Run("triangle index", func(t *testing.T) {
		mesh := testMesh()
		mesh.Triangles[1][0] = 0
		assert.NotEqual(t, base, ComputeKey(mesh, model.DefaultParameters()))
	})

	t.Run("each parameter field", func(t *testing.T) {
		mutations := []func(*model.UnwrapParameters){
			func(p *model.UnwrapParameters) { p.AngleThreshold = 45.0 },
			func(p *model.UnwrapParameters) { p.MinIslandFaces = 7 },
			func(p *model.UnwrapParameters) { p.PackIslands = false },
			func(p *model.UnwrapParameters) { p.IslandMargin = 0.03 },
		}
		seen := map[string]bool{base: true}
		for i, mutate := range mutations {
			params := model.DefaultParameters()
			mutate(&params)
			key := ComputeKey(testMesh(), params)
			require.False(t, seen[key], "mutation %d produced a duplicate key", i)
			seen[key] = true
		}
	})
}

func TestComputeKeyGeometryVsParams(t *testing.T) {
	// Appending a vertex must not collide with any parameter change.
	mesh := testMesh()
	mesh.Vertices = append(mesh.Vertices, model.Vec3{X: 2, Y: 2, Z: 2})
	assert.NotEqual(t,
		ComputeKey(testMesh(), model.DefaultParameters()),
		ComputeKey(mesh, model.DefaultParameters()))
}
