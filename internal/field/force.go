package field

import (
	"fmt"

	"github.com/san-kum/quadfield/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// distanceFloor clamps the vehicle-to-obstacle distance before division so
// near-coincident points keep a large finite magnitude instead of overflowing.
// An exactly coincident point has no defined push direction and is skipped.
// Deliberate numeric clamp, never surfaced as an error.
const distanceFloor = 1e-6

// Params is the potential-field configuration: one influence radius serves
// both as the neighborhood query radius and as the force cutoff. The two are
// the same value by construction, so a point returned by the query always
// contributes (and vice versa).
type Params struct {
	VoxelSize       float64
	InfluenceRadius float64
	Gain            float64
}

func (p Params) Validate() error {
	if p.VoxelSize <= 0 {
		return fmt.Errorf("%w: voxel size must be positive, got %g", dynamo.ErrInvalidConfig, p.VoxelSize)
	}
	if p.InfluenceRadius <= 0 {
		return fmt.Errorf("%w: influence radius must be positive, got %g", dynamo.ErrInvalidConfig, p.InfluenceRadius)
	}
	if p.Gain < 0 {
		return fmt.Errorf("%w: repulsive gain must be non-negative, got %g", dynamo.ErrInvalidConfig, p.Gain)
	}
	return nil
}

// ComputeForce sums the repulsive contributions of the active obstacle
// points at the vehicle position. Each point at distance d contributes
//
//	gain * (1/d - 1/R) * (1/d^2)
//
// along the unit vector from the point toward the vehicle; points at or
// beyond the influence radius R contribute nothing. Contributions are summed
// without normalizing by point count: a denser cluster legitimately pushes
// harder. Recomputed from scratch every step; never accumulated.
func ComputeForce(active []r3.Vec, pos r3.Vec, gain, influenceRadius float64) r3.Vec {
	var total r3.Vec
	if influenceRadius <= 0 {
		return total
	}

	for _, p := range active {
		away := r3.Sub(pos, p)
		d0 := r3.Norm(away)
		if d0 >= influenceRadius {
			continue
		}
		d := d0
		if d < distanceFloor {
			d = distanceFloor
		}
		mag := gain * (1.0/d - 1.0/influenceRadius) / (d * d)
		if d0 > 0 {
			total = r3.Add(total, r3.Scale(mag/d0, away))
		}
	}
	return total
}
