// Package solver defines the boundary contract to the external conformal
// unwrap engine. The engine's numerics are a foreign collaborator: this
// package only fixes the call contract and manages which backend provides it.
package solver

import (
	"errors"

	"github.com/astitvaaryan/uvwrap/internal/model"
)

// Engine is the external solver contract. Implementations must be safely
// callable from multiple goroutines as long as each call works on
// independently owned buffers; the engine performs no caching of its own.
type Engine interface {
	// Load reads a mesh from path. It fails if the path is unreadable or
	// the file is malformed.
	Load(path string) (*model.MeshGeometry, error)

	// Unwrap computes a UV map for the mesh under the given parameters,
	// returning the coordinates and the solver's own quality summary. It
	// fails if the solver cannot produce a valid mapping.
	Unwrap(mesh *model.MeshGeometry, params model.UnwrapParameters) (model.UVMap, model.EngineMetrics, error)

	// Save writes the mesh together with its UV map to path.
	Save(mesh *model.MeshGeometry, uvs model.UVMap, path string) error
}

// ErrNoEngine is returned by Default and Open when no matching backend has
// been compiled into the binary.
var ErrNoEngine = errors.New("solver: no unwrap engine registered (build with -tags uvnative)")

// ErrUnwrapFailed wraps backend failures to produce a mapping.
var ErrUnwrapFailed = errors.New("solver: unwrap failed")
