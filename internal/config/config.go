// Package config defines the yaml configuration surface of a simulation run
// and validates it before the loop starts. Every recognized option lives
// here; lower components receive explicit values and never read
// configuration implicitly.
package config

import (
	"fmt"
	"os"

	"github.com/san-kum/quadfield/internal/control"
	"github.com/san-kum/quadfield/internal/dynamo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt              = 0.005
	DefaultDuration        = 60.0
	DefaultVoxelSize       = 0.25
	DefaultInfluenceRadius = 2.0
	DefaultGain            = 1.0
	DefaultVelMax          = 5.0
	DefaultThrustMax       = 40.0
	DefaultThrustMin       = 1.0
	DefaultTiltMaxDeg      = 50.0
	DefaultArriveRadius    = 0.5
)

type Config struct {
	Dt         float64 `yaml:"dt"`
	Duration   float64 `yaml:"duration"`
	Seed       int64   `yaml:"seed"`
	Integrator string  `yaml:"integrator"`
	Policy     string  `yaml:"policy"`

	Field   FieldConfig   `yaml:"field"`
	Limits  LimitsConfig  `yaml:"limits"`
	Vehicle VehicleConfig `yaml:"vehicle"`
	Gains   GainsConfig   `yaml:"gains"`

	Init         InitConfig  `yaml:"init"`
	Waypoints    [][]float64 `yaml:"waypoints"`
	ArriveRadius float64     `yaml:"arrive_radius"`

	Cloud CloudConfig `yaml:"cloud"`
}

type FieldConfig struct {
	VoxelSize       float64 `yaml:"voxel_size"`
	InfluenceRadius float64 `yaml:"influence_radius"`
	Gain            float64 `yaml:"gain"`
}

type LimitsConfig struct {
	VelMax     float64 `yaml:"vel_max"`
	ThrustMax  float64 `yaml:"thrust_max"`
	ThrustMin  float64 `yaml:"thrust_min"`
	TiltMaxDeg float64 `yaml:"tilt_max_deg"`
}

type VehicleConfig struct {
	Mass    float64 `yaml:"mass"`
	Gravity float64 `yaml:"gravity"`
	Drag    float64 `yaml:"drag"`
}

type GainsConfig struct {
	PosP []float64 `yaml:"pos_p"`
	VelP []float64 `yaml:"vel_p"`
	VelI []float64 `yaml:"vel_i"`
	VelD []float64 `yaml:"vel_d"`
}

type InitConfig struct {
	X  float64 `yaml:"x"`
	Y  float64 `yaml:"y"`
	Z  float64 `yaml:"z"`
	VX float64 `yaml:"vx"`
	VY float64 `yaml:"vy"`
	VZ float64 `yaml:"vz"`
}

// CloudConfig selects the obstacle source: a CSV file, or the built-in
// seeded wall when no file is given.
type CloudConfig struct {
	File       string `yaml:"file"`
	WallPoints int    `yaml:"wall_points"`
}

func DefaultConfig() *Config {
	return &Config{
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Integrator: "rk4",
		Policy:     control.PolicyVelocity.String(),
		Field: FieldConfig{
			VoxelSize:       DefaultVoxelSize,
			InfluenceRadius: DefaultInfluenceRadius,
			Gain:            DefaultGain,
		},
		Limits: LimitsConfig{
			VelMax:     DefaultVelMax,
			ThrustMax:  DefaultThrustMax,
			ThrustMin:  DefaultThrustMin,
			TiltMaxDeg: DefaultTiltMaxDeg,
		},
		Vehicle: VehicleConfig{
			Mass:    1.2,
			Gravity: 9.81,
			Drag:    0.25,
		},
		Init: InitConfig{X: 0, Y: -4, Z: 2},
		Waypoints: [][]float64{
			{0, 4, 2},
		},
		ArriveRadius: DefaultArriveRadius,
		Cloud:        CloudConfig{WallPoints: 500},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects every configuration the simulation cannot run with.
// All failures wrap dynamo.ErrInvalidConfig and abort before the loop.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrInvalidConfig, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", dynamo.ErrInvalidConfig, c.Duration)
	}
	if c.Integrator != "euler" && c.Integrator != "rk4" {
		return fmt.Errorf("%w: unknown integrator %q", dynamo.ErrInvalidConfig, c.Integrator)
	}
	if _, err := control.ParsePolicy(c.Policy); err != nil {
		return err
	}
	if err := c.FieldParams().Validate(); err != nil {
		return err
	}
	if c.Limits.VelMax <= 0 || c.Limits.ThrustMax <= 0 {
		return fmt.Errorf("%w: saturation limits must be positive", dynamo.ErrInvalidConfig)
	}
	if c.Limits.ThrustMin < 0 || c.Limits.ThrustMin >= c.Limits.ThrustMax {
		return fmt.Errorf("%w: thrust_min must be in [0, thrust_max)", dynamo.ErrInvalidConfig)
	}
	if c.Limits.TiltMaxDeg <= 0 || c.Limits.TiltMaxDeg >= 90 {
		return fmt.Errorf("%w: tilt_max_deg must be in (0, 90), got %g", dynamo.ErrInvalidConfig, c.Limits.TiltMaxDeg)
	}
	if c.Vehicle.Mass <= 0 {
		return fmt.Errorf("%w: vehicle mass must be positive, got %g", dynamo.ErrInvalidConfig, c.Vehicle.Mass)
	}
	if len(c.Waypoints) == 0 {
		return fmt.Errorf("%w: at least one waypoint required", dynamo.ErrInvalidConfig)
	}
	for i, wp := range c.Waypoints {
		if len(wp) != 3 {
			return fmt.Errorf("%w: waypoint %d has %d coordinates, want 3", dynamo.ErrInvalidConfig, i, len(wp))
		}
	}
	if c.ArriveRadius <= 0 {
		return fmt.Errorf("%w: arrive_radius must be positive, got %g", dynamo.ErrInvalidConfig, c.ArriveRadius)
	}
	for name, g := range map[string][]float64{
		"pos_p": c.Gains.PosP, "vel_p": c.Gains.VelP,
		"vel_i": c.Gains.VelI, "vel_d": c.Gains.VelD,
	} {
		if len(g) != 0 && len(g) != 3 {
			return fmt.Errorf("%w: gains.%s needs 3 values, got %d", dynamo.ErrInvalidConfig, name, len(g))
		}
	}
	return nil
}
