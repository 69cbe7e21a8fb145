package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/quadfield/internal/cloud"
	"github.com/san-kum/quadfield/internal/config"
	"github.com/san-kum/quadfield/internal/dynamo"
	"github.com/san-kum/quadfield/internal/quad"
)

func openConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Cloud.WallPoints = 0
	cfg.Duration = 30
	return cfg
}

func TestRunOpenSpaceCompletesRoute(t *testing.T) {
	cfg := openConfig()

	s, x0, runCfg, err := FromConfig(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	result, err := s.Run(context.Background(), x0, runCfg)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Completed {
		t.Fatal("expected the route to complete in open space")
	}

	final := result.FinalVehicle()
	goal := r3.Vec{X: 0, Y: 4, Z: 2}
	if d := r3.Norm(r3.Sub(final.Pos, goal)); d > cfg.ArriveRadius {
		t.Errorf("final position %.3f from goal, arrive radius %g", d, cfg.ArriveRadius)
	}
}

func TestRunOpenSpaceHasNoRepulsion(t *testing.T) {
	cfg := openConfig()

	s, x0, runCfg, err := FromConfig(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	result, err := s.Run(context.Background(), x0, runCfg)
	if err != nil {
		t.Fatal(err)
	}

	for i, f := range result.Forces {
		if r3.Norm(f) != 0 {
			t.Fatalf("step %d: nonzero repulsion %v with no obstacles", i, f)
		}
	}
	for i, n := range result.ActiveCounts {
		if n != 0 {
			t.Fatalf("step %d: %d active points with no obstacles", i, n)
		}
	}
	if result.MeanActive() != 0 {
		t.Errorf("mean active should be zero, got %g", result.MeanActive())
	}
}

func TestRunWallActivatesField(t *testing.T) {
	cfg := config.GetPreset("wall")
	cfg.Duration = 20
	pts := cloud.Wall(cfg.Cloud.WallPoints, cfg.Seed)

	s, x0, runCfg, err := FromConfig(cfg, pts)
	if err != nil {
		t.Fatal(err)
	}

	result, err := s.Run(context.Background(), x0, runCfg)
	if err != nil {
		t.Fatal(err)
	}

	touched := false
	for _, n := range result.ActiveCounts {
		if n > 0 {
			touched = true
			break
		}
	}
	if !touched {
		t.Fatal("vehicle crossed the wall's influence region but the field never activated")
	}
	if result.PeakForce() <= 0 {
		t.Error("expected a positive peak repulsive force near the wall")
	}

	min := MinDistance(result.States, s.Grid(), cfg.Field.InfluenceRadius)
	if min <= 0 {
		t.Errorf("expected a positive closest approach, got %g", min)
	}
}

func TestRunTwiceReplaysRoute(t *testing.T) {
	cfg := openConfig()
	cfg.Waypoints = [][]float64{
		{0, 0, 2},
		{0, 4, 2},
	}

	s, x0, runCfg, err := FromConfig(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	first, err := s.Run(context.Background(), x0, runCfg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Run(context.Background(), x0, runCfg)
	if err != nil {
		t.Fatal(err)
	}

	if !first.Completed || !second.Completed {
		t.Fatal("both runs should complete the route in open space")
	}
	// A stale waypoint index would make the second run skip ahead and
	// finish in a different number of steps.
	if first.StepsTaken != second.StepsTaken {
		t.Errorf("reused simulator took %d steps, first run took %d", second.StepsTaken, first.StepsTaken)
	}
}

func TestPrimeReturnsActivePoints(t *testing.T) {
	cfg := openConfig()
	obstacle := r3.Vec{X: 0, Y: -3, Z: 2}

	s, x0, runCfg, err := FromConfig(cfg, []r3.Vec{obstacle})
	if err != nil {
		t.Fatal(err)
	}

	_, force, active := s.Prime(x0, runCfg.Dt)
	if len(active) != 1 {
		t.Fatalf("expected 1 point inside the influence radius, got %d", len(active))
	}
	if active[0] != obstacle {
		t.Errorf("active point %v, expected %v", active[0], obstacle)
	}
	if r3.Norm(force) == 0 {
		t.Error("expected a nonzero repulsion from the nearby point")
	}
}

func TestRunTelemetryShape(t *testing.T) {
	cfg := openConfig()
	cfg.Duration = 1

	s, x0, runCfg, err := FromConfig(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	result, err := s.Run(context.Background(), x0, runCfg)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.States) != len(result.Times) {
		t.Errorf("states (%d) and times (%d) out of sync", len(result.States), len(result.Times))
	}
	if len(result.Commands) != len(result.Forces) || len(result.Commands) != len(result.ActiveCounts) {
		t.Error("per-step telemetry slices out of sync")
	}
	if result.StepsTaken == 0 {
		t.Error("expected at least one step")
	}
	if _, ok := result.Metrics["repulse_mean"]; !ok {
		t.Error("missing repulse_mean metric")
	}
}

func TestRunDivergenceCarriesStep(t *testing.T) {
	cfg := openConfig()

	s, x0, runCfg, err := FromConfig(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	x0[0] = math.NaN() // poisoned position, first command is NaN
	_, err = s.Run(context.Background(), x0, runCfg)
	if err == nil {
		t.Fatal("expected divergence error")
	}
	if !errors.Is(err, dynamo.ErrDiverged) {
		t.Fatalf("error should wrap ErrDiverged, got %v", err)
	}
	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected *SimulationError, got %T", err)
	}
	if simErr.Step != 0 {
		t.Errorf("divergence at step %d, expected 0", simErr.Step)
	}
}

func TestRunContextCancel(t *testing.T) {
	cfg := openConfig()

	s, x0, runCfg, err := FromConfig(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.Run(ctx, x0, runCfg)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil {
		t.Fatal("partial result should still be returned")
	}
}

func TestRunRejectsBadDimensions(t *testing.T) {
	cfg := openConfig()

	s, _, runCfg, err := FromConfig(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.Run(context.Background(), dynamo.State{1, 2, 3}, runCfg)
	if !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	cfg := openConfig()

	s, x0, runCfg, err := FromConfig(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	runCfg.Dt = 0
	if _, err := s.Run(context.Background(), x0, runCfg); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestEnsembleRuns(t *testing.T) {
	cfg := openConfig()
	cfg.Duration = 5

	ens, err := NewEnsemble(cfg, nil, 4, 0.1)
	if err != nil {
		t.Fatal(err)
	}

	results, errs := ens.Run(context.Background())
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, runErr := range errs {
		if runErr != nil {
			t.Errorf("run %d failed: %v", i, runErr)
		}
	}

	// Perturbed starts must differ between members.
	a := quad.Decode(results[0].States[0]).Pos
	b := quad.Decode(results[1].States[0]).Pos
	if r3.Norm(r3.Sub(a, b)) == 0 {
		t.Error("ensemble members share the same initial position despite jitter")
	}
}

func TestEnsembleRejectsBadSize(t *testing.T) {
	cfg := openConfig()
	if _, err := NewEnsemble(cfg, nil, 0, 0.1); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
