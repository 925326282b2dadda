package model

import "fmt"

// UnwrapParameters is the full set of knobs accepted by the unwrap solver.
// Every recognized field is listed here; there is no open-ended parameter
// dictionary, so an unknown parameter cannot slip through silently.
type UnwrapParameters struct {
	// AngleThreshold is the seam detection dihedral angle in degrees.
	AngleThreshold float64 `json:"angle_threshold"`
	// MinIslandFaces is the minimum number of faces for an island to be
	// parameterized on its own.
	MinIslandFaces int `json:"min_island_faces"`
	// PackIslands controls whether islands are packed into the unit square.
	PackIslands bool `json:"pack_islands"`
	// IslandMargin is the packing margin between islands in UV units.
	IslandMargin float64 `json:"island_margin"`
}

// DefaultParameters returns the solver defaults.
func DefaultParameters() UnwrapParameters {
	return UnwrapParameters{
		AngleThreshold: 30.0,
		MinIslandFaces: 5,
		PackIslands:    true,
		IslandMargin:   0.02,
	}
}

// Validate checks that the parameters are within their accepted ranges.
func (p UnwrapParameters) Validate() error {
	if p.AngleThreshold <= 0 || p.AngleThreshold >= 180 {
		return fmt.Errorf("angle_threshold %.2f out of range (0, 180)", p.AngleThreshold)
	}
	if p.MinIslandFaces < 1 {
		return fmt.Errorf("min_island_faces %d must be >= 1", p.MinIslandFaces)
	}
	if p.IslandMargin < 0 {
		return fmt.Errorf("island_margin %.4f must be >= 0", p.IslandMargin)
	}
	return nil
}
