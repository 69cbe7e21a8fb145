// Package traj provides waypoint trajectories for the navigation goal. The
// route advances to the next waypoint once the vehicle is within the arrival
// radius of the current one; attraction toward the active waypoint is
// entirely the flight controller's job.
package traj

import (
	"fmt"

	"github.com/san-kum/quadfield/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Setpoint is the desired state handed to the controller each cycle.
type Setpoint struct {
	Pos r3.Vec
	Vel r3.Vec // feed-forward, zero in waypoint-arrival mode
}

type Route struct {
	wps          []r3.Vec
	arriveRadius float64
	idx          int
}

func NewRoute(wps []r3.Vec, arriveRadius float64) (*Route, error) {
	if len(wps) == 0 {
		return nil, dynamo.ErrRouteEmpty
	}
	if arriveRadius <= 0 {
		return nil, fmt.Errorf("%w: arrival radius must be positive, got %g", dynamo.ErrInvalidConfig, arriveRadius)
	}
	return &Route{wps: wps, arriveRadius: arriveRadius}, nil
}

// Target returns the current setpoint, advancing past any waypoint the
// vehicle has already reached.
func (r *Route) Target(pos r3.Vec) Setpoint {
	for r.idx < len(r.wps)-1 && r3.Norm(r3.Sub(r.wps[r.idx], pos)) <= r.arriveRadius {
		r.idx++
	}
	return Setpoint{Pos: r.wps[r.idx]}
}

// Reset rewinds the route to its first waypoint so the same instance can
// serve repeated runs.
func (r *Route) Reset() {
	r.idx = 0
}

// Done reports arrival at the final waypoint.
func (r *Route) Done(pos r3.Vec) bool {
	return r.idx == len(r.wps)-1 && r3.Norm(r3.Sub(r.wps[r.idx], pos)) <= r.arriveRadius
}

func (r *Route) Index() int         { return r.idx }
func (r *Route) Len() int           { return len(r.wps) }
func (r *Route) Waypoints() []r3.Vec {
	out := make([]r3.Vec, len(r.wps))
	copy(out, r.wps)
	return out
}
