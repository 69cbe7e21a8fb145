// Package sim runs the fixed-timestep avoidance loop: integrate the previous
// command, read the route, query the field, and close the control cascade.
package sim

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/quadfield/internal/control"
	"github.com/san-kum/quadfield/internal/dynamo"
	"github.com/san-kum/quadfield/internal/field"
	"github.com/san-kum/quadfield/internal/quad"
	"github.com/san-kum/quadfield/internal/traj"
)

type Config struct {
	Dt       float64
	Duration float64
	Seed     int64
}

func (c Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrInvalidConfig, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", dynamo.ErrInvalidConfig, c.Duration)
	}
	return nil
}

// Result holds the full telemetry of one run. States has one more entry than
// the step-indexed slices because the initial state is recorded.
type Result struct {
	States       []dynamo.State
	Commands     []control.Command
	Forces       []r3.Vec
	ActiveCounts []int
	Times        []float64

	Metrics    map[string]float64
	StepsTaken int
	Completed  bool // route finished before the duration ran out
}

// FinalVehicle decodes the last recorded state.
func (r *Result) FinalVehicle() quad.Vehicle {
	return quad.Decode(r.States[len(r.States)-1])
}

type Simulator struct {
	dyn        *quad.Quadrotor
	integrator dynamo.Integrator
	cascade    *control.Cascade
	route      *traj.Route
	grid       *field.VoxelGrid
	fp         field.Params

	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

func New(dyn *quad.Quadrotor, integ dynamo.Integrator, cas *control.Cascade, route *traj.Route, grid *field.VoxelGrid, fp field.Params) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integ,
		cascade:    cas,
		route:      route,
		grid:       grid,
		fp:         fp,
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Grid() *field.VoxelGrid   { return s.grid }
func (s *Simulator) Route() *traj.Route       { return s.route }
func (s *Simulator) Cascade() *control.Cascade { return s.cascade }

// Run executes the loop from x0. Each step first integrates the dynamics under
// the command computed at the end of the previous step, then recomputes the
// setpoint, the repulsive force, and the next command from the new state. The
// run ends when the route completes, the duration elapses, or the state
// diverges.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(x0) != s.dyn.StateDim() {
		return nil, fmt.Errorf("%w: state has %d entries, want %d",
			dynamo.ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}

	steps := int(cfg.Duration / cfg.Dt)
	result := &Result{
		States:       make([]dynamo.State, 0, steps+1),
		Commands:     make([]control.Command, 0, steps),
		Forces:       make([]r3.Vec, 0, steps),
		ActiveCounts: make([]int, 0, steps),
		Times:        make([]float64, 0, steps+1),
		Metrics:      make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	s.cascade.Reset()
	s.route.Reset()

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt

	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	// Prime the command from the initial state so the first integration step
	// has something to act on.
	cmd, force, active := s.compute(x, dt)
	result.Commands = append(result.Commands, cmd)
	result.Forces = append(result.Forces, force)
	result.ActiveCounts = append(result.ActiveCounts, len(active))
	s.observe(x, cmd, t)

	var meanForce, maxForce float64

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.finalize(result, meanForce, maxForce)
			return result, ctx.Err()
		default:
		}

		u := thrustControl(cmd.Thrust)
		if !u.IsValid() {
			s.finalize(result, meanForce, maxForce)
			return result, &dynamo.SimulationError{Step: i, Time: t, Wrapped: dynamo.ErrDiverged}
		}

		x = s.integrator.Step(s.dyn, x, u, t, dt)
		x = s.dyn.Normalize(x)
		t += dt
		result.StepsTaken++

		if !x.IsValid() {
			s.finalize(result, meanForce, maxForce)
			return result, &dynamo.SimulationError{Step: i, Time: t, Wrapped: dynamo.ErrDiverged}
		}

		result.States = append(result.States, x.Clone())
		result.Times = append(result.Times, t)

		if s.route.Done(quad.Decode(x).Pos) {
			result.Completed = true
			break
		}

		cmd, force, active = s.compute(x, dt)
		result.Commands = append(result.Commands, cmd)
		result.Forces = append(result.Forces, force)
		result.ActiveCounts = append(result.ActiveCounts, len(active))
		s.observe(x, cmd, t)

		f := r3.Norm(force)
		meanForce += f
		if f > maxForce {
			maxForce = f
		}
	}

	s.finalize(result, meanForce, maxForce)
	return result, nil
}

// Prime resets the controller and route and computes the command for the
// current state before any integration. Interactive frontends drive
// Prime/Step directly instead of Run. The returned slice is the in-range
// point set for this step, a read-only snapshot for highlighting.
func (s *Simulator) Prime(x dynamo.State, dt float64) (control.Command, r3.Vec, []r3.Vec) {
	s.cascade.Reset()
	s.route.Reset()
	return s.compute(x, dt)
}

// Step advances one timestep under cmd and computes the follow-up command
// from the new state.
func (s *Simulator) Step(x dynamo.State, cmd control.Command, t, dt float64) (dynamo.State, control.Command, r3.Vec, []r3.Vec, error) {
	u := thrustControl(cmd.Thrust)
	if !u.IsValid() {
		return x, cmd, r3.Vec{}, nil, &dynamo.SimulationError{Time: t, Wrapped: dynamo.ErrDiverged}
	}
	nx := s.integrator.Step(s.dyn, x, u, t, dt)
	nx = s.dyn.Normalize(nx)
	if !nx.IsValid() {
		return x, cmd, r3.Vec{}, nil, &dynamo.SimulationError{Time: t + dt, Wrapped: dynamo.ErrDiverged}
	}
	ncmd, force, active := s.compute(nx, dt)
	return nx, ncmd, force, active, nil
}

// compute runs the sense-and-decide half of a step: route target, field
// query, repulsive sum, control cascade.
func (s *Simulator) compute(x dynamo.State, dt float64) (control.Command, r3.Vec, []r3.Vec) {
	veh := quad.Decode(x)
	sp := s.route.Target(veh.Pos)
	active := s.grid.Query(veh.Pos, s.fp.InfluenceRadius)
	force := field.ComputeForce(active, veh.Pos, s.fp.Gain, s.fp.InfluenceRadius)
	cmd := s.cascade.Command(veh, sp, force, dt)
	return cmd, force, active
}

func (s *Simulator) observe(x dynamo.State, cmd control.Command, t float64) {
	u := thrustControl(cmd.Thrust)
	for _, m := range s.metrics {
		m.Observe(x, u, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, u, t)
	}
}

func (s *Simulator) finalize(result *Result, meanForce, maxForce float64) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	if result.StepsTaken > 0 {
		result.Metrics["repulse_mean"] = meanForce / float64(result.StepsTaken)
	} else {
		result.Metrics["repulse_mean"] = 0
	}
	result.Metrics["repulse_max"] = maxForce
}

func thrustControl(t r3.Vec) dynamo.Control {
	return dynamo.Control{t.X, t.Y, t.Z}
}

// MeanActive reports the average neighborhood size over the run.
func (r *Result) MeanActive() float64 {
	if len(r.ActiveCounts) == 0 {
		return 0
	}
	sum := 0
	for _, n := range r.ActiveCounts {
		sum += n
	}
	return float64(sum) / float64(len(r.ActiveCounts))
}

// PeakForce reports the largest repulsive magnitude seen during the run.
func (r *Result) PeakForce() float64 {
	peak := 0.0
	for _, f := range r.Forces {
		if n := r3.Norm(f); n > peak {
			peak = n
		}
	}
	return peak
}

// MinDistance reports the closest approach to any occupied voxel, or -1 when
// no obstacle ever entered the influence radius. Math is over the recorded
// states, not a live query, so it works on loaded runs too.
func MinDistance(states []dynamo.State, grid *field.VoxelGrid, radius float64) float64 {
	min := math.Inf(1)
	for _, x := range states {
		pos := quad.Decode(x).Pos
		for _, p := range grid.Query(pos, radius) {
			if d := r3.Norm(r3.Sub(pos, p)); d < min {
				min = d
			}
		}
	}
	if math.IsInf(min, 1) {
		return -1
	}
	return min
}
