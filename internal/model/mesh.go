package model

import (
	"fmt"
	"math"
)

// Vec3 represents a 3D vertex position.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Length returns the Euclidean length of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Vec2 represents a 2D texture coordinate.
type Vec2 struct {
	U float64 `json:"u"`
	V float64 `json:"v"`
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{U: v.U - o.U, V: v.V - o.V}
}

// Dot returns the dot product of v and o.
func (v Vec2) Dot(o Vec2) float64 {
	return v.U*o.U + v.V*o.V
}

// Length returns the Euclidean length of v.
func (v Vec2) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// MeshGeometry holds an ordered vertex array and an ordered triangle array.
// Triangle entries index into Vertices. A geometry is treated as immutable
// once loaded; components that need to modify buffers work on a Clone.
type MeshGeometry struct {
	Vertices  []Vec3   `json:"vertices"`
	Triangles [][3]int `json:"triangles"`
}

// NumVertices returns the vertex count.
func (m *MeshGeometry) NumVertices() int { return len(m.Vertices) }

// NumTriangles returns the triangle count.
func (m *MeshGeometry) NumTriangles() int { return len(m.Triangles) }

// Validate checks that every triangle index is within vertex bounds.
func (m *MeshGeometry) Validate() error {
	n := len(m.Vertices)
	for i, tri := range m.Triangles {
		for _, idx := range tri {
			if idx < 0 || idx >= n {
				return fmt.Errorf("triangle %d references vertex %d, mesh has %d vertices", i, idx, n)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the geometry.
func (m *MeshGeometry) Clone() *MeshGeometry {
	c := &MeshGeometry{
		Vertices:  make([]Vec3, len(m.Vertices)),
		Triangles: make([][3]int, len(m.Triangles)),
	}
	copy(c.Vertices, m.Vertices)
	copy(c.Triangles, m.Triangles)
	return c
}

// UVMap holds one texture coordinate per vertex, parallel to the vertex
// array of the geometry it was computed for.
type UVMap []Vec2

// Clone returns a copy of the UV map.
func (u UVMap) Clone() UVMap {
	c := make(UVMap, len(u))
	copy(c, u)
	return c
}
