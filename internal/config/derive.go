package config

import (
	"math"

	"github.com/san-kum/quadfield/internal/control"
	"github.com/san-kum/quadfield/internal/field"
	"gonum.org/v1/gonum/spatial/r3"
)

// FieldParams converts the field section into runtime parameters.
func (c *Config) FieldParams() field.Params {
	return field.Params{
		VoxelSize:       c.Field.VoxelSize,
		InfluenceRadius: c.Field.InfluenceRadius,
		Gain:            c.Field.Gain,
	}
}

// ControlLimits converts the limit section, degrees to radians.
func (c *Config) ControlLimits() control.Limits {
	return control.Limits{
		VelMax:    c.Limits.VelMax,
		ThrustMax: c.Limits.ThrustMax,
		ThrustMin: c.Limits.ThrustMin,
		TiltMax:   c.Limits.TiltMaxDeg * math.Pi / 180,
	}
}

// ControlGains fills any unset gain triple from the defaults.
func (c *Config) ControlGains() control.Gains {
	g := control.DefaultGains()
	if v := c.Gains.PosP; len(v) == 3 {
		g.PosP = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
	}
	if v := c.Gains.VelP; len(v) == 3 {
		g.VelP = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
	}
	if v := c.Gains.VelI; len(v) == 3 {
		g.VelI = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
	}
	if v := c.Gains.VelD; len(v) == 3 {
		g.VelD = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
	}
	return g
}

// Route returns the waypoint list as vectors. Call after Validate.
func (c *Config) Route() []r3.Vec {
	wps := make([]r3.Vec, len(c.Waypoints))
	for i, wp := range c.Waypoints {
		wps[i] = r3.Vec{X: wp[0], Y: wp[1], Z: wp[2]}
	}
	return wps
}

// InitPos and InitVel expose the initial vehicle pose.
func (c *Config) InitPos() r3.Vec {
	return r3.Vec{X: c.Init.X, Y: c.Init.Y, Z: c.Init.Z}
}

func (c *Config) InitVel() r3.Vec {
	return r3.Vec{X: c.Init.VX, Y: c.Init.VY, Z: c.Init.VZ}
}
