package field

import (
	"errors"
	"testing"

	"github.com/san-kum/quadfield/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// cube fills [0,1]^3 with points at the given spacing.
func cube(spacing float64) []r3.Vec {
	var pts []r3.Vec
	for x := 0.0; x <= 1.0; x += spacing {
		for y := 0.0; y <= 1.0; y += spacing {
			for z := 0.0; z <= 1.0; z += spacing {
				pts = append(pts, r3.Vec{X: x, Y: y, Z: z})
			}
		}
	}
	return pts
}

func TestBuildRejectsBadVoxelSize(t *testing.T) {
	for _, size := range []float64{0, -0.25} {
		_, err := Build([]r3.Vec{{X: 1}}, size)
		require.Error(t, err)
		assert.True(t, errors.Is(err, dynamo.ErrInvalidConfig))
	}
}

func TestBuildEmptyCloud(t *testing.T) {
	g, err := Build(nil, 0.25)
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.Query(r3.Vec{}, 10.0))
	assert.Empty(t, g.Points())
}

func TestBuildDeduplicatesPerVoxel(t *testing.T) {
	cloud := []r3.Vec{
		{X: 0.01, Y: 0.01, Z: 0.01},
		{X: 0.02, Y: 0.02, Z: 0.02}, // same voxel as above
		{X: 0.30, Y: 0.01, Z: 0.01}, // next voxel in x
	}
	g, err := Build(cloud, 0.25)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())

	// First-seen point is the representative.
	pts := g.Points()
	assert.Contains(t, pts, cloud[0])
	assert.NotContains(t, pts, cloud[1])
}

func TestVoxelizationIdempotent(t *testing.T) {
	fine := cube(0.05)
	g1, err := Build(fine, 0.25)
	require.NoError(t, err)

	g2, err := Build(g1.Points(), 0.25)
	require.NoError(t, err)

	assert.Equal(t, g1.Len(), g2.Len())
	assert.Equal(t, g1.Points(), g2.Points())
}

func TestGapFreeCubeCoverage(t *testing.T) {
	// A cloud denser than the voxel size must leave no unoccupied voxel
	// strictly interior to the cube.
	voxel := 0.25
	g, err := Build(cube(0.1), voxel)
	require.NoError(t, err)

	for x := voxel / 2; x < 1.0; x += voxel {
		for y := voxel / 2; y < 1.0; y += voxel {
			for z := voxel / 2; z < 1.0; z += voxel {
				center := r3.Vec{X: x, Y: y, Z: z}
				assert.True(t, g.Occupied(center), "hole at voxel containing %v", center)
			}
		}
	}
}

func TestKeyOfNegativeCoordinates(t *testing.T) {
	g, err := Build([]r3.Vec{{X: -0.1, Y: -0.1, Z: -0.1}}, 0.25)
	require.NoError(t, err)

	// Floor, not truncation: -0.1/0.25 lands in voxel -1, not 0.
	assert.Equal(t, Key{-1, -1, -1}, g.keyOf(r3.Vec{X: -0.1, Y: -0.1, Z: -0.1}))
	assert.True(t, g.Occupied(r3.Vec{X: -0.2, Y: -0.2, Z: -0.2}))
	assert.False(t, g.Occupied(r3.Vec{X: 0.1, Y: 0.1, Z: 0.1}))
}
