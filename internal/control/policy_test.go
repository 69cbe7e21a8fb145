package control

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/quadfield/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in   string
		want Policy
		ok   bool
	}{
		{"velocity", PolicyVelocity, true},
		{"force-pre", PolicyForcePre, true},
		{"force-post", PolicyForcePost, true},
		{"", 0, false},
		{"Velocity", 0, false},
		{"postforce", 0, false},
	}

	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if tt.ok {
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		} else {
			assert.True(t, errors.Is(err, dynamo.ErrInvalidConfig), "input %q", tt.in)
		}
	}
}

func TestPoliciesListsTypedValues(t *testing.T) {
	ps := Policies()
	assert.Equal(t, []Policy{PolicyVelocity, PolicyForcePre, PolicyForcePost}, ps)

	// Every listed policy carries a parseable name; callers range over the
	// typed values and stringify for display.
	for _, p := range ps {
		got, err := ParsePolicy(p.String())
		assert.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestApplySaturationBound(t *testing.T) {
	// Under velocity and force-pre policies the merged command never
	// exceeds the limit, whatever the inputs.
	limit := 5.0
	sat := func(v r3.Vec) r3.Vec { return ClampMag(v, limit) }
	rng := rand.New(rand.NewSource(99))

	for i := 0; i < 200; i++ {
		base := r3.Vec{X: rng.NormFloat64() * 10, Y: rng.NormFloat64() * 10, Z: rng.NormFloat64() * 10}
		rep := r3.Vec{X: rng.NormFloat64() * 10, Y: rng.NormFloat64() * 10, Z: rng.NormFloat64() * 10}

		for _, p := range []Policy{PolicyVelocity, PolicyForcePre} {
			out := Apply(p, base, rep, sat)
			assert.LessOrEqual(t, r3.Norm(out), limit+1e-9, "policy %s", p)
		}
	}
}

func TestApplyForcePostCanExceedLimit(t *testing.T) {
	limit := 5.0
	sat := func(v r3.Vec) r3.Vec { return ClampMag(v, limit) }

	base := r3.Vec{X: 100}
	rep := r3.Vec{X: 3}
	out := Apply(PolicyForcePost, base, rep, sat)

	// Base is clamped to the limit first, then the raw repulsive vector is
	// added on top.
	assert.InDelta(t, 8.0, out.X, 1e-12)
	assert.Greater(t, r3.Norm(out), limit)
}

func TestApplyZeroForceIsPassthrough(t *testing.T) {
	sat := func(v r3.Vec) r3.Vec { return ClampMag(v, 5) }
	base := r3.Vec{X: 1, Y: 2, Z: -1}

	for _, p := range []Policy{PolicyVelocity, PolicyForcePre, PolicyForcePost} {
		out := Apply(p, base, r3.Vec{}, sat)
		assert.Equal(t, base, out, "policy %s", p)
	}
}

func TestApplySingleObstaclePolicyV(t *testing.T) {
	// Base desired velocity (0.5,0,0), repulsion along -x: result is the
	// plain sum when within the limit, the clamped sum when not.
	limit := 1.0
	sat := func(v r3.Vec) r3.Vec { return ClampMag(v, limit) }

	base := r3.Vec{X: 0.5}
	rep := r3.Vec{X: -0.2}
	out := Apply(PolicyVelocity, base, rep, sat)
	assert.InDelta(t, 0.3, out.X, 1e-12)

	strong := r3.Vec{X: -4}
	out = Apply(PolicyVelocity, base, strong, sat)
	assert.InDelta(t, -1.0, out.X, 1e-12)
	assert.InDelta(t, 1.0, math.Abs(r3.Norm(out)), 1e-12)
}
