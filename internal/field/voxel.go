package field

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/quadfield/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Key is the integer voxel index of a point: the elementwise floor of
// coordinate / voxel size.
type Key struct {
	X, Y, Z int
}

// VoxelGrid discretizes a fine obstacle point cloud onto a coarse regular
// grid, keeping at most one representative point per occupied voxel. Built
// once at environment-load time and read-only afterwards, so it may be shared
// across concurrent runs without locking.
type VoxelGrid struct {
	voxelSize float64
	cells     map[Key]r3.Vec
}

// Build voxelizes a fine point cloud. The representative of each occupied
// voxel is the first point of the input sequence that lands in it; with a
// fixed input order the result is fully deterministic, and every occupied
// voxel keeps exactly one point so a contiguous fine cloud stays gap-free
// after voxelization.
//
// An empty cloud yields an empty (but queryable) grid. A non-positive voxel
// size is a configuration error.
func Build(cloud []r3.Vec, voxelSize float64) (*VoxelGrid, error) {
	if voxelSize <= 0 {
		return nil, fmt.Errorf("%w: voxel size must be positive, got %g", dynamo.ErrInvalidConfig, voxelSize)
	}

	g := &VoxelGrid{
		voxelSize: voxelSize,
		cells:     make(map[Key]r3.Vec, len(cloud)/4+1),
	}

	for _, p := range cloud {
		k := g.keyOf(p)
		if _, ok := g.cells[k]; !ok {
			g.cells[k] = p
		}
	}

	return g, nil
}

func (g *VoxelGrid) keyOf(p r3.Vec) Key {
	return Key{
		X: int(math.Floor(p.X / g.voxelSize)),
		Y: int(math.Floor(p.Y / g.voxelSize)),
		Z: int(math.Floor(p.Z / g.voxelSize)),
	}
}

func (g *VoxelGrid) Len() int {
	return len(g.cells)
}

func (g *VoxelGrid) VoxelSize() float64 {
	return g.voxelSize
}

// Occupied reports whether the voxel containing p holds a representative.
func (g *VoxelGrid) Occupied(p r3.Vec) bool {
	_, ok := g.cells[g.keyOf(p)]
	return ok
}

// Points returns a snapshot of every representative point, sorted by voxel
// index so the order is reproducible across runs. The caller owns the slice;
// the grid itself is never exposed for mutation.
func (g *VoxelGrid) Points() []r3.Vec {
	keys := make([]Key, 0, len(g.cells))
	for k := range g.cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].X != keys[j].X {
			return keys[i].X < keys[j].X
		}
		if keys[i].Y != keys[j].Y {
			return keys[i].Y < keys[j].Y
		}
		return keys[i].Z < keys[j].Z
	})

	pts := make([]r3.Vec, len(keys))
	for i, k := range keys {
		pts[i] = g.cells[k]
	}
	return pts
}
