// Package cloud handles obstacle point clouds at the interface boundary: an
// ordered sequence of (x, y, z) coordinates, loaded from CSV or synthesized
// in-process for demos and tests.
package cloud

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"
)

// Cloud is an ordered fine-resolution obstacle point cloud. Order matters:
// voxelization picks the first point seen per voxel.
type Cloud []r3.Vec

// LoadCSV reads a cloud from a CSV file of x,y,z rows. A single header row
// is tolerated and skipped.
func LoadCSV(path string) (Cloud, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	pts := make(Cloud, 0, len(records))
	for i, record := range records {
		if len(record) < 3 {
			return nil, fmt.Errorf("cloud %s: row %d has %d fields, want 3", path, i+1, len(record))
		}
		x, errX := strconv.ParseFloat(record[0], 64)
		y, errY := strconv.ParseFloat(record[1], 64)
		z, errZ := strconv.ParseFloat(record[2], 64)
		if errX != nil || errY != nil || errZ != nil {
			if i == 0 {
				continue // header row
			}
			return nil, fmt.Errorf("cloud %s: row %d is not numeric", path, i+1)
		}
		pts = append(pts, r3.Vec{X: x, Y: y, Z: z})
	}
	return pts, nil
}

// SaveCSV writes the cloud as x,y,z rows with a header.
func (c Cloud) SaveCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"x", "y", "z"}); err != nil {
		return err
	}
	for _, p := range c {
		row := []string{
			strconv.FormatFloat(p.X, 'f', 6, 64),
			strconv.FormatFloat(p.Y, 'f', 6, 64),
			strconv.FormatFloat(p.Z, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Wall scatters n points over a vertical plane at y=0, spanning x in
// [-2.5, 2.5] and z in [0, 5]. Deterministic for a given seed.
func Wall(n int, seed int64) Cloud {
	rng := rand.New(rand.NewSource(seed))
	pts := make(Cloud, n)
	for i := range pts {
		pts[i] = r3.Vec{
			X: rng.Float64()*5 - 2.5,
			Y: 0,
			Z: rng.Float64() * 5,
		}
	}
	return pts
}

// Box fills the axis-aligned box [min, max] with a regular lattice at the
// given spacing. Used for dense fixtures finer than the voxel size.
func Box(min, max r3.Vec, spacing float64) Cloud {
	if spacing <= 0 {
		return nil
	}
	var pts Cloud
	for x := min.X; x <= max.X; x += spacing {
		for y := min.Y; y <= max.Y; y += spacing {
			for z := min.Z; z <= max.Z; z += spacing {
				pts = append(pts, r3.Vec{X: x, Y: y, Z: z})
			}
		}
	}
	return pts
}
