package field

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Query returns every representative point within radius of center, by
// scanning only the voxel indices within ceil(radius/voxelSize) cells of the
// center's index and exact-distance filtering the candidates. Cost scales
// with the queried volume, not with the grid size.
//
// The result order follows the cell scan (x, then y, then z) and is
// deterministic. A zero radius returns at most a point exactly colocated
// with center. Pure: no side effects on the grid.
func (g *VoxelGrid) Query(center r3.Vec, radius float64) []r3.Vec {
	if radius < 0 || len(g.cells) == 0 {
		return nil
	}

	c := g.keyOf(center)
	reach := int(math.Ceil(radius / g.voxelSize))
	r2 := radius * radius

	var out []r3.Vec
	for kx := c.X - reach; kx <= c.X+reach; kx++ {
		for ky := c.Y - reach; ky <= c.Y+reach; ky++ {
			for kz := c.Z - reach; kz <= c.Z+reach; kz++ {
				p, ok := g.cells[Key{kx, ky, kz}]
				if !ok {
					continue
				}
				d := r3.Sub(p, center)
				if r3.Norm2(d) <= r2 {
					out = append(out, p)
				}
			}
		}
	}
	return out
}

// queryBrute is the exhaustive fallback used as the oracle in tests. It
// exists to document the contract, not for production queries.
func (g *VoxelGrid) queryBrute(center r3.Vec, radius float64) []r3.Vec {
	var out []r3.Vec
	r2 := radius * radius
	for _, p := range g.Points() {
		if r3.Norm2(r3.Sub(p, center)) <= r2 {
			out = append(out, p)
		}
	}
	return out
}
