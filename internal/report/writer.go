// Package report writes evaluation results: the bootstrap accuracy CSV,
// the smoothed band plot (PNG), an interactive chart (HTML) and the week
// metrics CSV.
package report

import (
	"fmt"
	"io"

	"github.com/banshee-data/cropaccuracy/internal/bootstrap"
	"github.com/banshee-data/cropaccuracy/internal/fsutil"
	"github.com/banshee-data/cropaccuracy/internal/metrics"
	"github.com/banshee-data/cropaccuracy/internal/security"
)

// Output file suffixes appended to the sanitised dataset name.
const (
	SuffixResultCSV   = "_boots_accuracy.csv"
	SuffixPlotPNG     = "_boots_accuracy.png"
	SuffixChartHTML   = "_boots_accuracy.html"
	SuffixWeekMetrics = "_week_metrics.csv"
	SuffixModelInput  = "_input.csv"
)

// Writer places report files for one dataset under Dir.
type Writer struct {
	FS      fsutil.FileSystem
	Dir     string
	Dataset string
}

// NewWriter returns a Writer rooted at dir.
func NewWriter(fsys fsutil.FileSystem, dir, dataset string) *Writer {
	return &Writer{FS: fsys, Dir: dir, Dataset: dataset}
}

// Path returns the output path for the given suffix.
func (w *Writer) Path(suffix string) (string, error) {
	return security.JoinWithin(w.Dir, security.SanitizeFilename(w.Dataset)+suffix)
}

type output struct {
	suffix string
	write  func(io.Writer) error
}

// BootstrapOptions selects and styles the bootstrap outputs.
type BootstrapOptions struct {
	Sigma      float64
	CropColors map[string]string
	HTML       bool
}

// WriteBootstrap writes the accuracy CSV and the band plot, plus the HTML
// chart when enabled. It returns the written paths in that order.
func (w *Writer) WriteBootstrap(t *bootstrap.ResultTable, opts BootstrapOptions) ([]string, error) {
	series := BuildSeries(t, opts.Sigma)
	palette, err := NewPalette(t.Crops(), opts.CropColors)
	if err != nil {
		return nil, err
	}

	outputs := []output{
		{SuffixResultCSV, func(out io.Writer) error { return WriteResultTable(out, t) }},
		{SuffixPlotPNG, func(out io.Writer) error { return WriteBandPlot(out, series, palette) }},
	}
	if opts.HTML {
		outputs = append(outputs, output{SuffixChartHTML, func(out io.Writer) error {
			return WriteHTMLChart(out, w.Dataset, series, palette)
		}})
	}

	var written []string

	for _, o := range outputs {
		path, err := w.writeFile(o.suffix, o.write)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// WriteWeekMetrics writes the week metrics CSV and returns its path.
func (w *Writer) WriteWeekMetrics(rows []metrics.WeekMetrics) (string, error) {
	return w.writeFile(SuffixWeekMetrics, func(out io.Writer) error {
		return WriteWeekMetrics(out, rows)
	})
}

func (w *Writer) writeFile(suffix string, write func(io.Writer) error) (string, error) {
	path, err := w.Path(suffix)
	if err != nil {
		return "", err
	}
	if err := w.FS.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := w.FS.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}
