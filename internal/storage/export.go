package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/quadfield/internal/sim"
)

type ExportData struct {
	Label        string             `json:"label"`
	Policy       string             `json:"policy"`
	Integrator   string             `json:"integrator"`
	Dt           float64            `json:"dt"`
	Duration     float64            `json:"duration"`
	Steps        int                `json:"steps"`
	Completed    bool               `json:"completed"`
	Times        []float64          `json:"times"`
	States       [][]float64        `json:"states"`
	Thrusts      [][3]float64       `json:"thrusts"`
	Forces       [][3]float64       `json:"forces"`
	ActiveCounts []int              `json:"active_counts"`
	Metrics      map[string]float64 `json:"metrics"`
}

func exportData(label, policy, integrator string, dt, duration float64, result *sim.Result) ExportData {
	data := ExportData{
		Label:        label,
		Policy:       policy,
		Integrator:   integrator,
		Dt:           dt,
		Duration:     duration,
		Steps:        result.StepsTaken,
		Completed:    result.Completed,
		Times:        result.Times,
		States:       make([][]float64, len(result.States)),
		Thrusts:      make([][3]float64, len(result.Commands)),
		Forces:       make([][3]float64, len(result.Forces)),
		ActiveCounts: result.ActiveCounts,
		Metrics:      result.Metrics,
	}
	for i, s := range result.States {
		data.States[i] = s
	}
	for i, c := range result.Commands {
		data.Thrusts[i] = [3]float64{c.Thrust.X, c.Thrust.Y, c.Thrust.Z}
	}
	for i, f := range result.Forces {
		data.Forces[i] = [3]float64{f.X, f.Y, f.Z}
	}
	return data
}

func exportTo(w io.Writer, label, policy, integrator string, dt, duration float64, result *sim.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(exportData(label, policy, integrator, dt, duration, result))
}

func ExportJSON(path, label, policy, integrator string, dt, duration float64, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return exportTo(f, label, policy, integrator, dt, duration, result)
}

func ExportJSONStdout(label, policy, integrator string, dt, duration float64, result *sim.Result) error {
	return exportTo(os.Stdout, label, policy, integrator, dt, duration, result)
}
