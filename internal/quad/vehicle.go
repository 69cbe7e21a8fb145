package quad

import (
	"github.com/san-kum/quadfield/internal/dynamo"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vehicle is the structured view of the flat simulation state. The dynamics
// integrator owns and mutates the flat state; everything downstream reads
// through this decode and never writes back.
type Vehicle struct {
	Pos   r3.Vec
	Vel   r3.Vec
	Quat  quat.Number
	Omega r3.Vec
}

// InitialState encodes a level, rate-free vehicle at the given pose.
func InitialState(pos, vel r3.Vec) dynamo.State {
	return Vehicle{Pos: pos, Vel: vel, Quat: quat.Number{Real: 1}}.Encode()
}

func Decode(x dynamo.State) Vehicle {
	if len(x) < StateDim {
		return Vehicle{Quat: quat.Number{Real: 1}}
	}
	return Vehicle{
		Pos:   r3.Vec{X: x[0], Y: x[1], Z: x[2]},
		Vel:   r3.Vec{X: x[3], Y: x[4], Z: x[5]},
		Quat:  quat.Number{Real: x[6], Imag: x[7], Jmag: x[8], Kmag: x[9]},
		Omega: r3.Vec{X: x[10], Y: x[11], Z: x[12]},
	}
}

func (v Vehicle) Encode() dynamo.State {
	return dynamo.State{
		v.Pos.X, v.Pos.Y, v.Pos.Z,
		v.Vel.X, v.Vel.Y, v.Vel.Z,
		v.Quat.Real, v.Quat.Imag, v.Quat.Jmag, v.Quat.Kmag,
		v.Omega.X, v.Omega.Y, v.Omega.Z,
	}
}
