package control

import (
	"fmt"

	"github.com/san-kum/quadfield/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Policy selects the pipeline stage that receives the repulsive vector.
// Exactly one policy is active per run; it is resolved from configuration
// before the loop starts and never switched mid-flight.
type Policy int

const (
	// PolicyVelocity adds the repulsive vector to the saturated velocity
	// setpoint and re-saturates the sum. Default.
	PolicyVelocity Policy = iota

	// PolicyForcePre adds the repulsive vector to the thrust setpoint
	// before the envelope clamp; the combined vector is clamped once.
	PolicyForcePre

	// PolicyForcePost adds the repulsive vector after the envelope clamp
	// with no further saturation. The command can exceed the nominal
	// envelope; that excursion is the documented trade-off of this policy.
	PolicyForcePost
)

var policyNames = map[Policy]string{
	PolicyVelocity:  "velocity",
	PolicyForcePre:  "force-pre",
	PolicyForcePost: "force-post",
}

func (p Policy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// Policies lists the recognized policies in definition order.
func Policies() []Policy {
	return []Policy{PolicyVelocity, PolicyForcePre, PolicyForcePost}
}

func ParsePolicy(s string) (Policy, error) {
	for p, name := range policyNames {
		if s == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown injection policy %q (have %v)", dynamo.ErrInvalidConfig, s, Policies())
}

// Apply merges the repulsive vector into a base command according to the
// policy, with sat the saturation of the current pipeline stage. Pure
// function of its inputs.
func Apply(p Policy, base, repulse r3.Vec, sat func(r3.Vec) r3.Vec) r3.Vec {
	switch p {
	case PolicyForcePost:
		return r3.Add(sat(base), repulse)
	default: // PolicyVelocity, PolicyForcePre: sum first, saturate once
		return sat(r3.Add(base, repulse))
	}
}
