package control

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestClampMagPreservesDirection(t *testing.T) {
	v := r3.Vec{X: 3, Y: 4, Z: 0}
	clamped := ClampMag(v, 1.0)

	assert.InDelta(t, 1.0, r3.Norm(clamped), 1e-12)
	assert.InDelta(t, 0.6, clamped.X, 1e-12)
	assert.InDelta(t, 0.8, clamped.Y, 1e-12)
}

func TestClampMagNoOpWithinLimit(t *testing.T) {
	v := r3.Vec{X: 0.1, Y: 0.2, Z: -0.1}
	assert.Equal(t, v, ClampMag(v, 1.0))
}

func TestClampMagNonPositiveLimit(t *testing.T) {
	assert.Equal(t, r3.Vec{}, ClampMag(r3.Vec{X: 1}, 0))
}

func TestClampThrustVerticalBounds(t *testing.T) {
	l := Limits{VelMax: 5, ThrustMax: 40, ThrustMin: 1, TiltMax: 50 * math.Pi / 180}

	out := l.ClampThrust(r3.Vec{Z: 100})
	assert.Equal(t, 40.0, out.Z)

	out = l.ClampThrust(r3.Vec{Z: -5})
	assert.Equal(t, 1.0, out.Z)
}

func TestClampThrustTiltEnvelope(t *testing.T) {
	l := Limits{VelMax: 5, ThrustMax: 40, ThrustMin: 1, TiltMax: 45 * math.Pi / 180}

	// At 45 degrees max tilt, lateral thrust may not exceed |Tz|.
	out := l.ClampThrust(r3.Vec{X: 30, Y: 0, Z: 10})
	assert.InDelta(t, 10.0, math.Hypot(out.X, out.Y), 1e-9)
	assert.Equal(t, 10.0, out.Z)

	// Lateral direction preserved.
	out = l.ClampThrust(r3.Vec{X: 30, Y: 30, Z: 10})
	assert.InDelta(t, out.X, out.Y, 1e-9)
}

func TestClampThrustExcessBound(t *testing.T) {
	// With Tz close to ThrustMax, the excess bound, not the tilt bound,
	// caps lateral thrust.
	l := Limits{VelMax: 5, ThrustMax: 10, ThrustMin: 1, TiltMax: 80 * math.Pi / 180}

	out := l.ClampThrust(r3.Vec{X: 50, Z: 8})
	wantXY := math.Sqrt(10*10 - 8*8)
	assert.InDelta(t, wantXY, math.Hypot(out.X, out.Y), 1e-9)
}
