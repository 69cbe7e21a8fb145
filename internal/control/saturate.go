package control

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Limits is the command saturation surface: total velocity magnitude, thrust
// magnitude bounds, and the maximum tilt angle that caps lateral thrust.
type Limits struct {
	VelMax    float64
	ThrustMax float64
	ThrustMin float64
	TiltMax   float64 // radians
}

// ClampMag rescales v onto the sphere of radius max when it exceeds it,
// preserving direction. Per-axis clipping would skew the commanded heading.
func ClampMag(v r3.Vec, max float64) r3.Vec {
	if max <= 0 {
		return r3.Vec{}
	}
	n := r3.Norm(v)
	if n <= max {
		return v
	}
	return r3.Scale(max/n, v)
}

// ClampThrust saturates a world thrust setpoint against the envelope: the
// vertical component is clipped to [ThrustMin, ThrustMax], and the lateral
// component to the smaller of the tilt-derived bound tan(tiltMax)*|Tz| and
// the excess-thrust bound sqrt(ThrustMax^2 - Tz^2). Lateral direction is
// preserved.
func (l Limits) ClampThrust(t r3.Vec) r3.Vec {
	tz := math.Min(math.Max(t.Z, l.ThrustMin), l.ThrustMax)

	maxTilt := math.Abs(tz) * math.Tan(l.TiltMax)
	excess := l.ThrustMax*l.ThrustMax - tz*tz
	maxXY := 0.0
	if excess > 0 {
		maxXY = math.Sqrt(excess)
	}
	if maxTilt < maxXY {
		maxXY = maxTilt
	}

	lat := r3.Vec{X: t.X, Y: t.Y}
	if n := math.Hypot(lat.X, lat.Y); n > maxXY && n > 0 {
		lat = r3.Scale(maxXY/n, lat)
	}

	return r3.Vec{X: lat.X, Y: lat.Y, Z: tz}
}
