package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math"

	"github.com/astitvaaryan/uvwrap/internal/model"
)

// ComputeKey derives the content-addressed cache key for an unwrap request.
// It is a SHA-256 over, in fixed order: the vertex position buffer, the
// triangle index buffer, and a canonical parameter encoding. Bit-identical
// geometry with semantically identical parameters always yields the same
// key; any change to a coordinate, an index, or a parameter field yields a
// different one.
func ComputeKey(mesh *model.MeshGeometry, params model.UnwrapParameters) string {
	h := sha256.New()
	var buf [8]byte

	for _, v := range mesh.Vertices {
		for _, c := range [3]float64{v.X, v.Y, v.Z} {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(c))
			h.Write(buf[:])
		}
	}

	for _, tri := range mesh.Triangles {
		for _, idx := range tri {
			binary.LittleEndian.PutUint32(buf[:4], uint32(idx))
			h.Write(buf[:4])
		}
	}

	h.Write(canonicalParams(params))

	return hex.EncodeToString(h.Sum(nil))
}

// canonicalParams encodes the parameters keyed by field name, sorted.
// Marshaling through a map makes encoding/json emit keys in sorted order,
// so the encoding is independent of how the record was constructed.
func canonicalParams(p model.UnwrapParameters) []byte {
	b, err := json.Marshal(map[string]any{
		"angle_threshold":  p.AngleThreshold,
		"min_island_faces": p.MinIslandFaces,
		"pack_islands":     p.PackIslands,
		"island_margin":    p.IslandMargin,
	})
	if err != nil {
		// Plain floats, ints and bools cannot fail to marshal.
		panic(err)
	}
	return b
}
