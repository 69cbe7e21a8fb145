package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/quadfield/internal/dynamo"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Field.VoxelSize != 0.25 {
		t.Errorf("expected default voxel size 0.25, got %g", cfg.Field.VoxelSize)
	}
	if cfg.Policy != "velocity" {
		t.Errorf("expected default policy velocity, got %s", cfg.Policy)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"unknown integrator", func(c *Config) { c.Integrator = "rk45" }},
		{"unknown policy", func(c *Config) { c.Policy = "hybrid" }},
		{"zero voxel size", func(c *Config) { c.Field.VoxelSize = 0 }},
		{"negative gain", func(c *Config) { c.Field.Gain = -1 }},
		{"zero influence radius", func(c *Config) { c.Field.InfluenceRadius = 0 }},
		{"zero vel max", func(c *Config) { c.Limits.VelMax = 0 }},
		{"inverted thrust bounds", func(c *Config) { c.Limits.ThrustMin = 50 }},
		{"flat tilt", func(c *Config) { c.Limits.TiltMaxDeg = 90 }},
		{"zero mass", func(c *Config) { c.Vehicle.Mass = 0 }},
		{"no waypoints", func(c *Config) { c.Waypoints = nil }},
		{"short waypoint", func(c *Config) { c.Waypoints = [][]float64{{1, 2}} }},
		{"zero arrive radius", func(c *Config) { c.ArriveRadius = 0 }},
		{"short gain triple", func(c *Config) { c.Gains.VelP = []float64{1} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("error should wrap ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.Policy = "force-pre"
	cfg.Field.Gain = 3.5
	cfg.Waypoints = [][]float64{{1, 2, 3}, {4, 5, 6}}

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Policy != "force-pre" {
		t.Errorf("policy lost in round trip: %s", got.Policy)
	}
	if got.Field.Gain != 3.5 {
		t.Errorf("gain lost in round trip: %g", got.Field.Gain)
	}
	if len(got.Waypoints) != 2 {
		t.Errorf("waypoints lost in round trip: %v", got.Waypoints)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("wall-force-pre")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Policy != "force-pre" {
		t.Errorf("expected force-pre policy, got %s", cfg.Policy)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("preset should validate: %v", err)
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for unknown preset")
	}
}

func TestAllPresetsValidate(t *testing.T) {
	names := ListPresets()
	if len(names) == 0 {
		t.Fatal("expected presets")
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestControlGainsFallback(t *testing.T) {
	cfg := DefaultConfig()
	g := cfg.ControlGains()
	if g.PosP.X != 2.0 {
		t.Errorf("expected default PosP.X 2.0, got %g", g.PosP.X)
	}

	cfg.Gains.PosP = []float64{7, 8, 9}
	g = cfg.ControlGains()
	if g.PosP.X != 7 || g.PosP.Z != 9 {
		t.Errorf("explicit gains not applied: %+v", g.PosP)
	}
}
