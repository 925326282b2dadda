// Package meshio reads and writes Wavefront OBJ meshes. It is a thin text
// adapter around the geometry model: tolerant on input (unknown record types
// are skipped, polygon faces are fan-triangulated) and minimal on output
// (v, vt and f records only).
package meshio

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/astitvaaryan/uvwrap/internal/model"
)

// ReadOBJ parses the mesh at path. Texture coordinates are returned when the
// file carries a vt record per vertex; otherwise the returned UV map is nil.
func ReadOBJ(path string) (*model.MeshGeometry, model.UVMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open mesh: %w", err)
	}
	defer f.Close()

	mesh := &model.MeshGeometry{}
	var uvs model.UVMap

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, nil, fmt.Errorf("line %d: vertex needs 3 coordinates", lineNo)
			}
			var coords [3]float64
			for i := 0; i < 3; i++ {
				coords[i], err = strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, nil, fmt.Errorf("line %d: bad vertex coordinate %q", lineNo, fields[i+1])
				}
			}
			mesh.Vertices = append(mesh.Vertices, model.Vec3{X: coords[0], Y: coords[1], Z: coords[2]})

		case "vt":
			if len(fields) < 3 {
				return nil, nil, fmt.Errorf("line %d: texture coordinate needs 2 components", lineNo)
			}
			u, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: bad texture coordinate %q", lineNo, fields[1])
			}
			v, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: bad texture coordinate %q", lineNo, fields[2])
			}
			uvs = append(uvs, model.Vec2{U: u, V: v})

		case "f":
			if len(fields) < 4 {
				return nil, nil, fmt.Errorf("line %d: face needs at least 3 vertices", lineNo)
			}
			indices := make([]int, 0, len(fields)-1)
			for _, spec := range fields[1:] {
				idx, err := parseFaceVertex(spec, len(mesh.Vertices))
				if err != nil {
					return nil, nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				indices = append(indices, idx)
			}
			// Fan-triangulate polygons with more than three vertices.
			for i := 1; i+1 < len(indices); i++ {
				mesh.Triangles = append(mesh.Triangles, [3]int{indices[0], indices[i], indices[i+1]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read mesh: %w", err)
	}

	if err := mesh.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid mesh %s: %w", path, err)
	}
	if len(uvs) > 0 && len(uvs) != len(mesh.Vertices) {
		// Per-corner UV layouts are not representable in the per-vertex
		// model; drop them rather than misalign the map.
		uvs = nil
	}

	return mesh, uvs, nil
}

// parseFaceVertex resolves the vertex index of one face corner spec such as
// "3", "3/1" or "3//2". OBJ indices are 1-based; negative values count back
// from the current end of the vertex list.
func parseFaceVertex(spec string, numVertices int) (int, error) {
	if i := strings.IndexByte(spec, '/'); i >= 0 {
		spec = spec[:i]
	}
	idx, err := strconv.Atoi(spec)
	if err != nil {
		return 0, fmt.Errorf("bad face vertex %q", spec)
	}
	switch {
	case idx > 0:
		idx--
	case idx < 0:
		idx += numVertices
	default:
		return 0, fmt.Errorf("face vertex index must not be 0")
	}
	if idx < 0 || idx >= numVertices {
		return 0, fmt.Errorf("face vertex %d out of range (mesh has %d vertices)", idx, numVertices)
	}
	return idx, nil
}

// WriteOBJ writes the mesh to path. When uvs is non-nil it must be parallel
// to the vertex array; one vt record is emitted per vertex and faces
// reference both with v/vt indices.
func WriteOBJ(path string, mesh *model.MeshGeometry, uvs model.UVMap) error {
	if uvs != nil && len(uvs) != len(mesh.Vertices) {
		return fmt.Errorf("uv map has %d entries for %d vertices", len(uvs), len(mesh.Vertices))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create mesh: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, v := range mesh.Vertices {
		fmt.Fprintf(w, "v %g %g %g\n", v.X, v.Y, v.Z)
	}
	for _, uv := range uvs {
		fmt.Fprintf(w, "vt %g %g\n", uv.U, uv.V)
	}
	for _, tri := range mesh.Triangles {
		if uvs != nil {
			fmt.Fprintf(w, "f %d/%d %d/%d %d/%d\n",
				tri[0]+1, tri[0]+1, tri[1]+1, tri[1]+1, tri[2]+1, tri[2]+1)
		} else {
			fmt.Fprintf(w, "f %d %d %d\n", tri[0]+1, tri[1]+1, tri[2]+1)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write mesh: %w", err)
	}
	return f.Close()
}
