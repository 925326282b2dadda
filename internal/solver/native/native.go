//go:build uvnative

// Package native binds the C unwrap library (libuvwrap) to the solver
// contract. It is compiled only with the uvnative build tag so plain
// library builds never link against the native library; importing the
// package registers the backend under the name "native".
package native

/*
#cgo LDFLAGS: -luvwrap

#include <stdlib.h>

typedef struct {
    float* vertices;
    int    num_vertices;
    int*   triangles;
    int    num_triangles;
    float* uvs;
} Mesh;

typedef struct {
    float angle_threshold;
    int   min_island_faces;
    int   pack_islands;
    float island_margin;
} UnwrapParams;

typedef struct {
    int    num_islands;
    int*   face_island_ids;
    float  avg_stretch;
    float  max_stretch;
    float  coverage;
} UnwrapResult;

Mesh* unwrap_mesh(const Mesh* mesh, const UnwrapParams* params, UnwrapResult** result_out);
void  free_unwrap_result(UnwrapResult* result);
void  free_mesh(Mesh* mesh);
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/astitvaaryan/uvwrap/internal/meshio"
	"github.com/astitvaaryan/uvwrap/internal/model"
	"github.com/astitvaaryan/uvwrap/internal/solver"
)

func init() {
	solver.Register("native", func() (solver.Engine, error) {
		return &engine{}, nil
	})
}

// engine implements solver.Engine on top of the C library. Every call owns
// its input and output buffers, so concurrent use from multiple workers is
// safe as long as the native library itself is re-entrant.
type engine struct{}

func (e *engine) Load(path string) (*model.MeshGeometry, error) {
	mesh, _, err := meshio.ReadOBJ(path)
	return mesh, err
}

func (e *engine) Save(mesh *model.MeshGeometry, uvs model.UVMap, path string) error {
	return meshio.WriteOBJ(path, mesh, uvs)
}

func (e *engine) Unwrap(mesh *model.MeshGeometry, params model.UnwrapParameters) (model.UVMap, model.EngineMetrics, error) {
	if len(mesh.Vertices) == 0 || len(mesh.Triangles) == 0 {
		return nil, model.EngineMetrics{}, fmt.Errorf("%w: empty mesh", solver.ErrUnwrapFailed)
	}

	cMesh, release := marshalMesh(mesh)
	defer release()

	packIslands := C.int(0)
	if params.PackIslands {
		packIslands = 1
	}
	cParams := C.UnwrapParams{
		angle_threshold:  C.float(params.AngleThreshold),
		min_island_faces: C.int(params.MinIslandFaces),
		pack_islands:     packIslands,
		island_margin:    C.float(params.IslandMargin),
	}

	var cResult *C.UnwrapResult
	cOut := C.unwrap_mesh(cMesh, &cParams, &cResult)
	// The library transfers ownership of both allocations to the caller;
	// release them on every exit path.
	defer func() {
		if cResult != nil {
			C.free_unwrap_result(cResult)
		}
		if cOut != nil {
			C.free_mesh(cOut)
		}
	}()

	if cOut == nil || cResult == nil {
		return nil, model.EngineMetrics{}, fmt.Errorf("%w: solver returned no mapping", solver.ErrUnwrapFailed)
	}
	if cOut.uvs == nil {
		return nil, model.EngineMetrics{}, fmt.Errorf("%w: solver returned no UV buffer", solver.ErrUnwrapFailed)
	}

	n := len(mesh.Vertices)
	cUVs := unsafe.Slice((*C.float)(cOut.uvs), 2*n)
	uvs := make(model.UVMap, n)
	for i := 0; i < n; i++ {
		uvs[i] = model.Vec2{
			U: float64(cUVs[2*i]),
			V: float64(cUVs[2*i+1]),
		}
	}

	metrics := model.EngineMetrics{
		NumIslands: int(cResult.num_islands),
		AvgStretch: float64(cResult.avg_stretch),
		MaxStretch: float64(cResult.max_stretch),
		Coverage:   float64(cResult.coverage),
	}
	return uvs, metrics, nil
}

// marshalMesh copies the geometry into C-owned buffers and returns the
// release function for them.
func marshalMesh(mesh *model.MeshGeometry) (*C.Mesh, func()) {
	nv := len(mesh.Vertices)
	nt := len(mesh.Triangles)

	verts := (*C.float)(C.malloc(C.size_t(3 * nv * C.sizeof_float)))
	tris := (*C.int)(C.malloc(C.size_t(3 * nt * C.sizeof_int)))

	vs := unsafe.Slice(verts, 3*nv)
	for i, v := range mesh.Vertices {
		vs[3*i] = C.float(v.X)
		vs[3*i+1] = C.float(v.Y)
		vs[3*i+2] = C.float(v.Z)
	}
	ts := unsafe.Slice(tris, 3*nt)
	for i, tri := range mesh.Triangles {
		ts[3*i] = C.int(tri[0])
		ts[3*i+1] = C.int(tri[1])
		ts[3*i+2] = C.int(tri[2])
	}

	cMesh := (*C.Mesh)(C.malloc(C.sizeof_Mesh))
	cMesh.vertices = verts
	cMesh.num_vertices = C.int(nv)
	cMesh.triangles = tris
	cMesh.num_triangles = C.int(nt)
	cMesh.uvs = nil

	return cMesh, func() {
		C.free(unsafe.Pointer(verts))
		C.free(unsafe.Pointer(tris))
		C.free(unsafe.Pointer(cMesh))
	}
}
