package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfig indicates a configuration rejected at setup, before
	// the simulation loop starts: non-positive voxel size or timestep,
	// negative gain, unknown injection policy, and the like.
	ErrInvalidConfig = errors.New("quadfield: invalid configuration")

	// ErrDiverged indicates non-finite values appeared in the vehicle state
	// or a command vector mid-run. Fatal: there is no checkpoint to roll
	// back to, the run terminates and is reported.
	ErrDiverged = errors.New("quadfield: simulation diverged (NaN or Inf)")

	// ErrDimensionMismatch indicates mismatched state/control dimensions.
	ErrDimensionMismatch = errors.New("quadfield: dimension mismatch between state and system")

	// ErrRouteEmpty indicates a trajectory with no waypoints.
	ErrRouteEmpty = errors.New("quadfield: route has no waypoints")
)

// SimulationError wraps an error with the step at which it occurred.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
