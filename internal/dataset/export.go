package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/banshee-data/cropaccuracy/internal/fsutil"
)

// ExportColumns copies the named columns, in the given order, from the CSV
// at inPath to a new CSV at outPath. Every input row is kept, including
// rows with missing values. It returns the number of data rows written.
func ExportColumns(fsys fsutil.FileSystem, inPath, outPath string, columns []string) (int, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("no columns to export")
	}
	in, err := fsys.Open(inPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: input file %s not found", ErrMissingInput, inPath)
		}
		return 0, fmt.Errorf("failed to open input file %s: %w", inPath, err)
	}
	defer in.Close()

	cr := csv.NewReader(in)
	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to read header: %w", inPath, err)
	}
	index, err := indexHeader(header)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", inPath, err)
	}
	picks := make([]int, len(columns))
	for i, c := range columns {
		j, ok := index[c]
		if !ok {
			return 0, fmt.Errorf("%s: missing column %q", inPath, c)
		}
		picks[i] = j
	}

	out, err := fsys.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	cw := csv.NewWriter(out)
	if err := cw.Write(columns); err != nil {
		out.Close()
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	rows := 0
	line := 1
	row := make([]string, len(picks))
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			out.Close()
			return rows, fmt.Errorf("%s: line %d: %w", inPath, line, err)
		}
		for i, j := range picks {
			row[i] = rec[j]
		}
		if err := cw.Write(row); err != nil {
			out.Close()
			return rows, fmt.Errorf("failed to write row: %w", err)
		}
		rows++
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		out.Close()
		return rows, fmt.Errorf("failed to flush %s: %w", outPath, err)
	}
	if err := out.Close(); err != nil {
		return rows, fmt.Errorf("failed to close %s: %w", outPath, err)
	}
	return rows, nil
}

// ModelInputColumns returns the column layout of the model-input export:
// identifier columns, the week column, the features and finally the label.
func ModelInputColumns(idColumns []string, week string, features []string, label string) []string {
	cols := make([]string, 0, len(idColumns)+len(features)+2)
	cols = append(cols, idColumns...)
	cols = append(cols, week)
	cols = append(cols, features...)
	cols = append(cols, label)
	return cols
}
