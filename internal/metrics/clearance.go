package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/quadfield/internal/dynamo"
	"github.com/san-kum/quadfield/internal/field"
	"github.com/san-kum/quadfield/internal/quad"
)

// Clearance tracks the closest approach to any occupied voxel. Value reports
// -1 when no obstacle ever entered the query radius; a +Inf sentinel would
// not survive JSON export.
type Clearance struct {
	name   string
	grid   *field.VoxelGrid
	radius float64
	min    float64
}

func NewClearance(grid *field.VoxelGrid, radius float64) *Clearance {
	return &Clearance{
		name:   "clearance",
		grid:   grid,
		radius: radius,
		min:    math.Inf(1),
	}
}

func (c *Clearance) Name() string { return c.name }

func (c *Clearance) Observe(x dynamo.State, u dynamo.Control, t float64) {
	pos := quad.Decode(x).Pos
	for _, p := range c.grid.Query(pos, c.radius) {
		if d := r3.Norm(r3.Sub(pos, p)); d < c.min {
			c.min = d
		}
	}
}

func (c *Clearance) Value() float64 {
	if math.IsInf(c.min, 1) {
		return -1
	}
	return c.min
}

func (c *Clearance) Reset() {
	c.min = math.Inf(1)
}
