// Package dataset reads the per-field, per-week tabular input the
// evaluator consumes and the feature list that accompanies the model.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"github.com/banshee-data/cropaccuracy/internal/fsutil"
	"github.com/banshee-data/cropaccuracy/internal/monitoring"
)

// Columns names the input columns the evaluator needs.
type Columns struct {
	Features []string
	Label    string
	Crop     string
	Week     string
	// Prediction is optional; when set, precomputed predicted labels are
	// read from it.
	Prediction string
}

// Row is one retained input record. Line is the 1-based CSV line number
// (the header is line 1).
type Row struct {
	Line       int
	Features   []float64
	Label      string
	Crop       string
	Week       int
	Prediction string
}

// Table is the cleaned input: rows with a missing value in any feature
// column have already been removed and counted in Dropped.
type Table struct {
	Path     string
	Features []string
	Rows     []Row
	Total    int
	Dropped  int

	// HasPredictions is set when the table was read with a prediction column.
	HasPredictions bool
}

// ReadTable reads and cleans the CSV at path. Rows with missing features
// are excluded and reported through monitoring.Logf; any other malformed
// cell is an error naming the file, line and column.
func ReadTable(fsys fsutil.FileSystem, path string, cols Columns) (*Table, error) {
	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: input file %s not found", ErrMissingInput, path)
		}
		return nil, fmt.Errorf("failed to open input file %s: %w", path, err)
	}
	defer f.Close()

	t, err := readTable(f, path, cols)
	if err != nil {
		return nil, err
	}
	if t.Dropped > 0 {
		monitoring.Logf("dropped %d of %d rows from %s with missing feature values", t.Dropped, t.Total, path)
	}
	return t, nil
}

func readTable(r io.Reader, path string, cols Columns) (*Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty file, expected a header row", path)
		}
		return nil, fmt.Errorf("%s: failed to read header: %w", path, err)
	}
	index, err := indexHeader(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	lookup := func(name string) (int, error) {
		i, ok := index[name]
		if !ok {
			return 0, fmt.Errorf("%s: missing column %q", path, name)
		}
		return i, nil
	}

	featIdx := make([]int, len(cols.Features))
	for i, name := range cols.Features {
		if featIdx[i], err = lookup(name); err != nil {
			return nil, err
		}
	}
	labelIdx, err := lookup(cols.Label)
	if err != nil {
		return nil, err
	}
	cropIdx, err := lookup(cols.Crop)
	if err != nil {
		return nil, err
	}
	weekIdx, err := lookup(cols.Week)
	if err != nil {
		return nil, err
	}
	predIdx := -1
	if cols.Prediction != "" {
		if predIdx, err = lookup(cols.Prediction); err != nil {
			return nil, err
		}
	}

	t := &Table{Path: path, Features: cols.Features, HasPredictions: predIdx >= 0}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", path, line, err)
		}
		t.Total++

		features, ok, err := parseFeatures(rec, featIdx, cols.Features)
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", path, line, err)
		}
		if !ok {
			t.Dropped++
			continue
		}

		row := Row{Line: line, Features: features}
		if row.Label, err = requiredLabel(rec[labelIdx], cols.Label); err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", path, line, err)
		}
		if row.Crop, err = requiredLabel(rec[cropIdx], cols.Crop); err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", path, line, err)
		}
		week, ok := ParseWeek(rec[weekIdx])
		if !ok {
			return nil, fmt.Errorf("%s: line %d: column %q: invalid week %q (want integer 1..53)", path, line, cols.Week, rec[weekIdx])
		}
		row.Week = week
		if predIdx >= 0 {
			if row.Prediction, err = requiredLabel(rec[predIdx], cols.Prediction); err != nil {
				return nil, fmt.Errorf("%s: line %d: %w", path, line, err)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func indexHeader(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; dup {
			return nil, fmt.Errorf("duplicate column %q", h)
		}
		index[h] = i
	}
	return index, nil
}

// parseFeatures returns ok=false when any feature cell is missing.
func parseFeatures(rec []string, idx []int, names []string) ([]float64, bool, error) {
	out := make([]float64, len(idx))
	for i, j := range idx {
		cell := rec[j]
		if IsMissing(cell) {
			return nil, false, nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return nil, false, fmt.Errorf("column %q: invalid number %q", names[i], cell)
		}
		out[i] = v
	}
	return out, true, nil
}

func requiredLabel(cell, column string) (string, error) {
	if IsMissing(cell) {
		return "", fmt.Errorf("column %q: missing value", column)
	}
	return CanonicalLabel(cell), nil
}

// FeatureMatrix returns the feature values row by row.
func (t *Table) FeatureMatrix() [][]float64 {
	m := make([][]float64, len(t.Rows))
	for i, r := range t.Rows {
		m[i] = r.Features
	}
	return m
}

// Labels returns the canonical true labels.
func (t *Table) Labels() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Label
	}
	return out
}

// Crops returns the canonical crop types.
func (t *Table) Crops() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Crop
	}
	return out
}

// Weeks returns the week of each row.
func (t *Table) Weeks() []int {
	out := make([]int, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Week
	}
	return out
}

// Predictions returns the precomputed predicted labels, or nil when the
// table was read without a prediction column.
func (t *Table) Predictions() []string {
	if !t.HasPredictions {
		return nil
	}
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Prediction
	}
	return out
}
