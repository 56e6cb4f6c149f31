package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/banshee-data/cropaccuracy/internal/bootstrap"
	"github.com/banshee-data/cropaccuracy/internal/metrics"
)

// ResultHeader is the column layout of the bootstrap accuracy CSV.
var ResultHeader = []string{"Crop", "Week", "Mean_Accuracy", "Accuracy_Std"}

// WeekMetricsHeader is the column layout of the week metrics CSV.
var WeekMetricsHeader = []string{"Week", "MAE", "MSE", "R2", "Accuracy"}

// WriteResultTable writes one CSV row per stratum in table order.
func WriteResultTable(w io.Writer, t *bootstrap.ResultTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ResultHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range t.Rows {
		rec := []string{r.CropType, strconv.Itoa(r.Week), formatFloat(r.MeanAccuracy), formatFloat(r.StdAccuracy)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write row %s: %w", r.Key(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteWeekMetrics writes one CSV row per week.
func WriteWeekMetrics(w io.Writer, rows []metrics.WeekMetrics) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(WeekMetricsHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, m := range rows {
		rec := []string{strconv.Itoa(m.Week), formatFloat(m.MAE), formatFloat(m.MSE), formatFloat(m.R2), formatFloat(m.Accuracy)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write week %d: %w", m.Week, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatFloat uses the shortest round-tripping form; NaN becomes an empty
// cell.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
