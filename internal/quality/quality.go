// Package quality computes distortion and coverage measures for a UV
// mapping, purely from the mesh geometry and the produced coordinates.
// All functions are stateless and safe for concurrent use.
package quality

import (
	"math"

	"github.com/astitvaaryan/uvwrap/internal/model"
)

// DefaultCoverageResolution is the rasterization grid size used when no
// explicit resolution is given.
const DefaultCoverageResolution = 256

// epsilon guards divisions by near-zero UV areas and edge lengths.
const epsilon = 1e-9

// Stretch returns the worst per-triangle stretch ratio of the mapping,
// floored at 1.0. For each triangle the 3x2 Jacobian J mapping UV-space edge
// vectors to 3D edge vectors is solved from J * [duv1 duv2] = [dp1 dp2];
// the stretch is the ratio of its two singular values. Triangles with a
// singular UV edge matrix (zero UV area) are skipped, as are triangles whose
// smaller singular value vanishes. A perfectly isometric mapping scores 1.0.
func Stretch(mesh *model.MeshGeometry, uvs model.UVMap) float64 {
	maxStretch := 1.0

	for _, tri := range mesh.Triangles {
		a, b, c := tri[0], tri[1], tri[2]

		duv1 := uvs[b].Sub(uvs[a])
		duv2 := uvs[c].Sub(uvs[a])

		// Determinant of the 2x2 UV edge matrix [duv1 duv2].
		det := duv1.U*duv2.V - duv2.U*duv1.V
		if math.Abs(det) < epsilon {
			// Degenerate or unmapped triangle.
			continue
		}

		dp1 := mesh.Vertices[b].Sub(mesh.Vertices[a])
		dp2 := mesh.Vertices[c].Sub(mesh.Vertices[a])

		// J = [dp1 dp2] * inverse([duv1 duv2]), columns j1, j2.
		inv00, inv01 := duv2.V/det, -duv2.U/det
		inv10, inv11 := -duv1.V/det, duv1.U/det
		j1 := model.Vec3{
			X: dp1.X*inv00 + dp2.X*inv10,
			Y: dp1.Y*inv00 + dp2.Y*inv10,
			Z: dp1.Z*inv00 + dp2.Z*inv10,
		}
		j2 := model.Vec3{
			X: dp1.X*inv01 + dp2.X*inv11,
			Y: dp1.Y*inv01 + dp2.Y*inv11,
			Z: dp1.Z*inv01 + dp2.Z*inv11,
		}

		// Singular values of J via the eigenvalues of the 2x2 Gram matrix
		// J^T J = [[g00 g01] [g01 g11]].
		g00 := j1.Dot(j1)
		g01 := j1.Dot(j2)
		g11 := j2.Dot(j2)

		trace := g00 + g11
		detG := g00*g11 - g01*g01
		disc := math.Sqrt(math.Max(0, trace*trace-4*detG))

		sigma1 := math.Sqrt(math.Max(0, (trace+disc)/2))
		sigma2 := math.Sqrt(math.Max(0, (trace-disc)/2))
		if sigma2 < epsilon {
			continue
		}

		if s := sigma1 / sigma2; s > maxStretch {
			maxStretch = s
		}
	}

	return maxStretch
}

// Coverage returns the fraction of a resolution x resolution grid over the
// UV unit square touched by at least one triangle, in [0, 1]. Each triangle
// occupies the cells of its axis-aligned bounding box rather than an exact
// fill, which overestimates true coverage for skewed triangles; the
// approximation is deliberate and cheap. Coordinates outside the unit square
// are clamped to the grid bounds. A non-positive resolution selects
// DefaultCoverageResolution.
func Coverage(uvs model.UVMap, triangles [][3]int, resolution int) float64 {
	if resolution <= 0 {
		resolution = DefaultCoverageResolution
	}

	occupied := make([]bool, resolution*resolution)
	for _, tri := range triangles {
		u0, v0 := uvs[tri[0]].U, uvs[tri[0]].V
		minU, maxU := u0, u0
		minV, maxV := v0, v0
		for _, idx := range tri[1:] {
			p := uvs[idx]
			minU = math.Min(minU, p.U)
			maxU = math.Max(maxU, p.U)
			minV = math.Min(minV, p.V)
			maxV = math.Max(maxV, p.V)
		}

		x0 := clampCell(minU, resolution)
		x1 := clampCell(maxU, resolution)
		y0 := clampCell(minV, resolution)
		y1 := clampCell(maxV, resolution)

		for y := y0; y <= y1; y++ {
			row := y * resolution
			for x := x0; x <= x1; x++ {
				occupied[row+x] = true
			}
		}
	}

	count := 0
	for _, c := range occupied {
		if c {
			count++
		}
	}
	return float64(count) / float64(resolution*resolution)
}

// AngleDistortion returns the worst absolute difference, over all triangles,
// between the angle at the triangle's first vertex measured in 3D and the
// same angle measured in UV space. Triangles with degenerate edges in either
// space are skipped; an empty mesh scores 0.
func AngleDistortion(mesh *model.MeshGeometry, uvs model.UVMap) float64 {
	maxDiff := 0.0

	for _, tri := range mesh.Triangles {
		a, b, c := tri[0], tri[1], tri[2]

		e1 := mesh.Vertices[b].Sub(mesh.Vertices[a])
		e2 := mesh.Vertices[c].Sub(mesh.Vertices[a])
		l1, l2 := e1.Length(), e2.Length()
		if l1 < epsilon || l2 < epsilon {
			continue
		}
		angle3D := math.Acos(clampUnit(e1.Dot(e2) / (l1 * l2)))

		u1 := uvs[b].Sub(uvs[a])
		u2 := uvs[c].Sub(uvs[a])
		m1, m2 := u1.Length(), u2.Length()
		if m1 < epsilon || m2 < epsilon {
			continue
		}
		angleUV := math.Acos(clampUnit(u1.Dot(u2) / (m1 * m2)))

		if d := math.Abs(angle3D - angleUV); d > maxDiff {
			maxDiff = d
		}
	}

	return maxDiff
}

// Score bundles all three measures into the record used for batch
// aggregation and optimization, at the default coverage resolution.
func Score(mesh *model.MeshGeometry, uvs model.UVMap) model.QualityScores {
	return model.QualityScores{
		Stretch:         Stretch(mesh, uvs),
		Coverage:        Coverage(uvs, mesh.Triangles, DefaultCoverageResolution),
		AngleDistortion: AngleDistortion(mesh, uvs),
	}
}

// clampCell maps a UV coordinate to a grid cell index, clamped to bounds.
func clampCell(v float64, resolution int) int {
	i := int(v * float64(resolution))
	if i < 0 {
		return 0
	}
	if i >= resolution {
		return resolution - 1
	}
	return i
}

// clampUnit clamps x into [-1, 1] before acos.
func clampUnit(x float64) float64 {
	if x < -1 {
		return -1
	}
	if x > 1 {
		return 1
	}
	return x
}
