package sim

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/quadfield/internal/config"
	"github.com/san-kum/quadfield/internal/control"
	"github.com/san-kum/quadfield/internal/dynamo"
	"github.com/san-kum/quadfield/internal/field"
	"github.com/san-kum/quadfield/internal/integrators"
	"github.com/san-kum/quadfield/internal/quad"
	"github.com/san-kum/quadfield/internal/traj"
)

// FromConfig assembles a ready-to-run simulator from a validated config and
// an obstacle cloud. The cloud is voxelized here; callers that run several
// simulations over the same cloud should build once and use New directly.
func FromConfig(cfg *config.Config, cloud []r3.Vec) (*Simulator, dynamo.State, Config, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, Config{}, err
	}

	grid, err := field.Build(cloud, cfg.Field.VoxelSize)
	if err != nil {
		return nil, nil, Config{}, err
	}

	dyn := quad.New()
	dyn.Mass = cfg.Vehicle.Mass
	dyn.Gravity = cfg.Vehicle.Gravity
	dyn.DragCoeff = cfg.Vehicle.Drag

	var integ dynamo.Integrator
	switch cfg.Integrator {
	case "euler":
		integ = integrators.NewEuler()
	case "rk4":
		integ = integrators.NewRK4()
	default:
		return nil, nil, Config{}, fmt.Errorf("%w: unknown integrator %q",
			dynamo.ErrInvalidConfig, cfg.Integrator)
	}

	policy, err := control.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, nil, Config{}, err
	}

	cas := control.NewCascade(cfg.ControlGains(), cfg.ControlLimits(), policy, dyn.Mass, dyn.Gravity)

	route, err := traj.NewRoute(cfg.Route(), cfg.ArriveRadius)
	if err != nil {
		return nil, nil, Config{}, err
	}

	s := New(dyn, integ, cas, route, grid, cfg.FieldParams())
	x0 := quad.InitialState(cfg.InitPos(), cfg.InitVel())
	runCfg := Config{Dt: cfg.Dt, Duration: cfg.Duration, Seed: cfg.Seed}
	return s, x0, runCfg, nil
}
