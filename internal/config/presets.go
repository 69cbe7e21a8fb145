package config

import "sort"

// Presets are named ready-to-run scenarios. Each returns a fresh Config so
// callers may mutate freely.
var presets = map[string]func() *Config{
	"wall": func() *Config {
		// Default scenario: cross a random vertical wall at y=0.
		return DefaultConfig()
	},
	"wall-force-pre": func() *Config {
		cfg := DefaultConfig()
		cfg.Policy = "force-pre"
		cfg.Field.Gain = 8.0
		return cfg
	},
	"wall-force-post": func() *Config {
		cfg := DefaultConfig()
		cfg.Policy = "force-post"
		cfg.Field.Gain = 8.0
		return cfg
	},
	"open": func() *Config {
		// No obstacles: APF must be an exact no-op.
		cfg := DefaultConfig()
		cfg.Cloud.WallPoints = 0
		return cfg
	},
	"slalom": func() *Config {
		cfg := DefaultConfig()
		cfg.Init = InitConfig{X: -3, Y: -4, Z: 2}
		cfg.Waypoints = [][]float64{
			{3, -2, 2},
			{-3, 0, 2},
			{3, 2, 2},
			{0, 4, 2},
		}
		return cfg
	},
}

// GetPreset returns a copy of the named preset, or nil when unknown.
func GetPreset(name string) *Config {
	fn, ok := presets[name]
	if !ok {
		return nil
	}
	return fn()
}

// ListPresets returns the known preset names, sorted.
func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
