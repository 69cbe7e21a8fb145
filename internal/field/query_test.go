package field

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func sortPoints(pts []r3.Vec) {
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		if pts[i].Y != pts[j].Y {
			return pts[i].Y < pts[j].Y
		}
		return pts[i].Z < pts[j].Z
	})
}

func TestQueryMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cloud := make([]r3.Vec, 2000)
	for i := range cloud {
		cloud[i] = r3.Vec{
			X: rng.Float64()*10 - 5,
			Y: rng.Float64()*10 - 5,
			Z: rng.Float64()*10 - 5,
		}
	}
	g, err := Build(cloud, 0.25)
	require.NoError(t, err)

	centers := []r3.Vec{{}, {X: 1.3, Y: -2.1, Z: 0.4}, {X: -4.9, Y: 4.9, Z: -4.9}}
	for _, center := range centers {
		for _, radius := range []float64{0.3, 1.0, 2.5} {
			got := g.Query(center, radius)
			want := g.queryBrute(center, radius)

			// Soundness: everything returned is in range.
			for _, p := range got {
				assert.LessOrEqual(t, r3.Norm(r3.Sub(p, center)), radius)
			}

			// Completeness: same set as the exhaustive scan.
			sortPoints(got)
			sortPoints(want)
			assert.Equal(t, want, got, "center %v radius %g", center, radius)
		}
	}
}

func TestQueryZeroRadius(t *testing.T) {
	p := r3.Vec{X: 1, Y: 2, Z: 3}
	g, err := Build([]r3.Vec{p, {X: 1.1, Y: 2, Z: 3}}, 0.5)
	require.NoError(t, err)

	// Only an exactly colocated point survives radius 0.
	assert.Equal(t, []r3.Vec{p}, g.Query(p, 0))
	assert.Empty(t, g.Query(r3.Vec{X: 5, Y: 5, Z: 5}, 0))
}

func TestQueryNegativeRadius(t *testing.T) {
	g, err := Build([]r3.Vec{{X: 1}}, 0.5)
	require.NoError(t, err)
	assert.Empty(t, g.Query(r3.Vec{}, -1))
}

func TestQueryFarFromCloud(t *testing.T) {
	g, err := Build(cube(0.1), 0.25)
	require.NoError(t, err)

	// Nearest obstacle at distance ~5, radius 1: empty active set.
	assert.Empty(t, g.Query(r3.Vec{X: 6, Y: 0.5, Z: 0.5}, 1.0))
}
