// Package control implements the cascaded flight controller and the command
// injection policies that merge the repulsive field into it. The cascade
// follows the PX4-style position -> velocity -> thrust structure: a
// proportional position loop feeds a velocity PID with hover feed-forward,
// producing a world-frame thrust setpoint that is saturated against the
// tilt-derived envelope.
package control

import (
	"github.com/san-kum/quadfield/internal/quad"
	"github.com/san-kum/quadfield/internal/traj"
	"gonum.org/v1/gonum/spatial/r3"
)

type Gains struct {
	PosP r3.Vec
	VelP r3.Vec
	VelI r3.Vec
	VelD r3.Vec
}

func DefaultGains() Gains {
	return Gains{
		PosP: r3.Vec{X: 2.0, Y: 2.0, Z: 1.0},
		VelP: r3.Vec{X: 5.0, Y: 5.0, Z: 4.0},
		VelI: r3.Vec{X: 5.0, Y: 5.0, Z: 5.0},
		VelD: r3.Vec{X: 0.5, Y: 0.5, Z: 0.5},
	}
}

// Command carries the intermediate and final values of one control cycle,
// exposed for telemetry.
type Command struct {
	VelSP  r3.Vec // velocity setpoint after saturation (and V-policy merge)
	Base   r3.Vec // thrust setpoint before injection/saturation
	Thrust r3.Vec // final world thrust command
}

// Cascade holds the controller gains and the per-run integrator state. Not
// safe for concurrent use; each simulation run owns its own instance.
type Cascade struct {
	gains  Gains
	limits Limits
	policy Policy
	mass   float64
	grav   float64

	thrInt  r3.Vec
	prevVel r3.Vec
	first   bool
}

func NewCascade(gains Gains, limits Limits, policy Policy, mass, gravity float64) *Cascade {
	return &Cascade{
		gains:  gains,
		limits: limits,
		policy: policy,
		mass:   mass,
		grav:   gravity,
		first:  true,
	}
}

func (c *Cascade) Policy() Policy { return c.policy }
func (c *Cascade) Limits() Limits { return c.limits }

// Reset clears the integrator and derivative memory.
func (c *Cascade) Reset() {
	c.thrInt = r3.Vec{}
	c.prevVel = r3.Vec{}
	c.first = true
}

// Command runs one control cycle: position error to velocity setpoint,
// velocity saturation, repulsive injection at the configured stage, velocity
// PID to a thrust setpoint, envelope saturation. The repulsive vector is
// whatever the field computed for this step; it is consumed here and not
// retained.
func (c *Cascade) Command(veh quad.Vehicle, sp traj.Setpoint, repulse r3.Vec, dt float64) Command {
	var out Command

	// Position P loop with velocity feed-forward, then magnitude-preserving
	// saturation.
	velSP := r3.Add(sp.Vel, mulElem(c.gains.PosP, r3.Sub(sp.Pos, veh.Pos)))
	velSP = ClampMag(velSP, c.limits.VelMax)
	if c.policy == PolicyVelocity {
		velSP = Apply(PolicyVelocity, velSP, repulse, func(v r3.Vec) r3.Vec {
			return ClampMag(v, c.limits.VelMax)
		})
	}
	out.VelSP = velSP

	// Velocity PID. The derivative term acts on the measured acceleration
	// estimate, not the error, to avoid setpoint kick.
	velErr := r3.Sub(velSP, veh.Vel)
	var accEst r3.Vec
	if !c.first && dt > 0 {
		accEst = r3.Scale(1.0/dt, r3.Sub(veh.Vel, c.prevVel))
	}

	base := mulElem(c.gains.VelP, velErr)
	base = r3.Sub(base, mulElem(c.gains.VelD, accEst))
	base = r3.Add(base, c.thrInt)
	base = r3.Add(base, r3.Vec{Z: c.mass * c.grav}) // hover feed-forward
	out.Base = base

	sat := c.limits.ClampThrust
	switch c.policy {
	case PolicyForcePre, PolicyForcePost:
		out.Thrust = Apply(c.policy, base, repulse, sat)
	default:
		out.Thrust = sat(base)
	}

	// Anti-windup: freeze the integrator while the envelope is clipping the
	// base setpoint.
	if r3.Norm(r3.Sub(sat(base), base)) < 1e-9 && dt > 0 {
		c.thrInt = ClampMag(r3.Add(c.thrInt, mulElem(c.gains.VelI, r3.Scale(dt, velErr))), c.limits.ThrustMax)
	}

	c.prevVel = veh.Vel
	c.first = false
	return out
}

func mulElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: a.X * b.X, Y: a.Y * b.Y, Z: a.Z * b.Z}
}
