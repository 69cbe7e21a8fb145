// Package quad models quadrotor rigid-body motion as a dynamo.System. The
// control input is the world-frame thrust vector produced by the cascade
// controller; motor-level dynamics and mixing sit outside the interface
// boundary, so attitude tracks the commanded thrust direction through a
// first-order alignment model.
package quad

import (
	"fmt"
	"math"

	"github.com/san-kum/quadfield/internal/dynamo"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// State layout: pos(3), vel(3), attitude quaternion wxyz(4), angular rate(3).
const (
	StateDim   = 13
	ControlDim = 3
)

const (
	DefaultMass    = 1.2
	DefaultGravity = 9.81
	DefaultDrag    = 0.25
)

type Quadrotor struct {
	Mass      float64
	Gravity   float64
	DragCoeff float64
	AlignGain float64 // attitude alignment stiffness toward commanded thrust
	RateTau   float64 // first-order time constant of the body rate response
}

func New() *Quadrotor {
	return &Quadrotor{
		Mass:      DefaultMass,
		Gravity:   DefaultGravity,
		DragCoeff: DefaultDrag,
		AlignGain: 8.0,
		RateTau:   0.05,
	}
}

func (q *Quadrotor) StateDim() int   { return StateDim }
func (q *Quadrotor) ControlDim() int { return ControlDim }

// HoverThrust is the feed-forward thrust magnitude balancing gravity.
func (q *Quadrotor) HoverThrust() float64 {
	return q.Mass * q.Gravity
}

func (q *Quadrotor) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	v := Decode(x)

	thrust := r3.Vec{}
	if len(u) >= 3 {
		thrust = r3.Vec{X: u[0], Y: u[1], Z: u[2]}
	}

	// Translational: thrust, gravity, linear drag.
	acc := r3.Add(r3.Scale(1.0/q.Mass, thrust), r3.Vec{Z: -q.Gravity})
	acc = r3.Sub(acc, r3.Scale(q.DragCoeff/q.Mass, v.Vel))

	// Attitude: align body z with the commanded thrust direction. Near-zero
	// thrust keeps the vehicle level.
	dir := r3.Vec{Z: 1}
	if n := r3.Norm(thrust); n > 1e-9 {
		dir = r3.Scale(1.0/n, thrust)
	}
	bz := rotate(v.Quat, r3.Vec{Z: 1})
	omegaCmd := r3.Scale(q.AlignGain, r3.Cross(bz, dir))
	domega := r3.Scale(1.0/q.RateTau, r3.Sub(omegaCmd, v.Omega))

	// Quaternion kinematics, world-frame angular velocity.
	dq := quat.Scale(0.5, quat.Mul(quat.Number{Imag: v.Omega.X, Jmag: v.Omega.Y, Kmag: v.Omega.Z}, v.Quat))

	return dynamo.State{
		v.Vel.X, v.Vel.Y, v.Vel.Z,
		acc.X, acc.Y, acc.Z,
		dq.Real, dq.Imag, dq.Jmag, dq.Kmag,
		domega.X, domega.Y, domega.Z,
	}
}

// Normalize renormalizes the attitude quaternion after integration; drift
// would otherwise accumulate and skew the body axes.
func (q *Quadrotor) Normalize(x dynamo.State) dynamo.State {
	if len(x) < StateDim {
		return x
	}
	n := math.Sqrt(x[6]*x[6] + x[7]*x[7] + x[8]*x[8] + x[9]*x[9])
	out := x.Clone()
	if n < 1e-12 {
		out[6], out[7], out[8], out[9] = 1, 0, 0, 0
		return out
	}
	for i := 6; i < 10; i++ {
		out[i] /= n
	}
	return out
}

func (q *Quadrotor) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":       q.Mass,
		"gravity":    q.Gravity,
		"drag":       q.DragCoeff,
		"align_gain": q.AlignGain,
		"rate_tau":   q.RateTau,
	}
}

func (q *Quadrotor) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		q.Mass = value
	case "gravity":
		q.Gravity = value
	case "drag":
		q.DragCoeff = value
	case "align_gain":
		q.AlignGain = value
	case "rate_tau":
		q.RateTau = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}

func rotate(q quat.Number, p r3.Vec) r3.Vec {
	pp := quat.Number{Imag: p.X, Jmag: p.Y, Kmag: p.Z}
	r := quat.Mul(quat.Mul(q, pp), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}
