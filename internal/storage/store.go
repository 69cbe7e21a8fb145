// Package storage persists simulation runs. Each run gets a directory with
// metadata.json and states.csv; a sqlite index at the base dir makes listing
// and lookup cheap without scanning directories.
package storage

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/san-kum/quadfield/internal/sim"
)

type Store struct {
	baseDir string
	db      *sql.DB
}

func Open(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", filepath.Join(baseDir, "runs.db"))
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			label TEXT,
			policy TEXT,
			integrator TEXT,
			dt DOUBLE,
			duration DOUBLE,
			seed BIGINT,
			steps INTEGER,
			completed INTEGER,
			metrics TEXT,
			created TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{baseDir: baseDir, db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Label      string             `json:"label"`
	Policy     string             `json:"policy"`
	Integrator string             `json:"integrator"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Steps      int                `json:"steps"`
	Completed  bool               `json:"completed"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes the run to its own directory and indexes it. The returned run
// ID is a uuid; the label is a human handle (preset or config name) and need
// not be unique.
func (s *Store) Save(label, policy, integrator string, dt, duration float64, seed int64, result *sim.Result) (string, error) {
	runID := uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Label:      label,
		Policy:     policy,
		Integrator: integrator,
		Timestamp:  time.Now(),
		Seed:       seed,
		Dt:         dt,
		Duration:   duration,
		Steps:      result.StepsTaken,
		Completed:  result.Completed,
		Metrics:    result.Metrics,
	}

	if err := writeMetadata(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, "states.csv"), result); err != nil {
		return "", err
	}

	metricsJSON, err := json.Marshal(result.Metrics)
	if err != nil {
		return "", err
	}
	_, err = s.db.Exec(
		`INSERT INTO runs (id, label, policy, integrator, dt, duration, seed, steps, completed, metrics)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, label, policy, integrator, dt, duration, seed,
		result.StepsTaken, boolInt(result.Completed), string(metricsJSON))
	if err != nil {
		return "", err
	}

	return runID, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeStates(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if len(result.States) == 0 {
		return nil
	}

	header := []string{"time"}
	for i := range result.States[0] {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	header = append(header, "ux", "uy", "uz", "fx", "fy", "fz", "active")
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range result.States {
		row := []string{strconv.FormatFloat(result.Times[i], 'f', 6, 64)}
		for _, val := range result.States[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}

		if i < len(result.Commands) {
			th := result.Commands[i].Thrust
			fo := result.Forces[i]
			row = append(row,
				strconv.FormatFloat(th.X, 'f', 6, 64),
				strconv.FormatFloat(th.Y, 'f', 6, 64),
				strconv.FormatFloat(th.Z, 'f', 6, 64),
				strconv.FormatFloat(fo.X, 'f', 6, 64),
				strconv.FormatFloat(fo.Y, 'f', 6, 64),
				strconv.FormatFloat(fo.Z, 'f', 6, 64),
				strconv.Itoa(result.ActiveCounts[i]))
		} else {
			row = append(row, "0", "0", "0", "0", "0", "0", "0")
		}

		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// List returns all indexed runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	rows, err := s.db.Query(
		`SELECT id, label, policy, integrator, dt, duration, seed, steps, completed, metrics, created
		 FROM runs ORDER BY created DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunMetadata
	for rows.Next() {
		var m RunMetadata
		var completed int
		var metricsJSON string
		if err := rows.Scan(&m.ID, &m.Label, &m.Policy, &m.Integrator, &m.Dt, &m.Duration,
			&m.Seed, &m.Steps, &completed, &metricsJSON, &m.Timestamp); err != nil {
			return nil, err
		}
		m.Completed = completed != 0
		if err := json.Unmarshal([]byte(metricsJSON), &m.Metrics); err != nil {
			return nil, err
		}
		runs = append(runs, m)
	}
	return runs, rows.Err()
}

// Load reads a run's metadata from its directory. The sqlite index is not
// consulted so runs copied between stores remain loadable.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTable reads a run's states.csv into column names and numeric rows.
func (s *Store) LoadTable(runID string) ([]string, [][]float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("run %s: empty states table", runID)
	}

	cols := records[0]
	rowsOut := make([][]float64, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]float64, len(rec))
		for j, cell := range rec {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("run %s: bad cell %q: %w", runID, cell, err)
			}
			row[j] = v
		}
		rowsOut = append(rowsOut, row)
	}
	return cols, rowsOut, nil
}

// Delete removes a run's directory and its index row.
func (s *Store) Delete(runID string) error {
	if _, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, runID); err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(s.baseDir, runID))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
