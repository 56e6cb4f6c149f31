// Package metrics computes per-week regression and classification scores
// for numeric crop labels.
package metrics

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/cropaccuracy/internal/bootstrap"
)

// WeekMetrics summarises the predictions of one week.
type WeekMetrics struct {
	Week     int     `json:"week"`
	MAE      float64 `json:"mae"`
	MSE      float64 `json:"mse"`
	R2       float64 `json:"r2"`
	Accuracy float64 `json:"accuracy"`
	N        int     `json:"n"`
}

// ByWeek groups aligned label vectors by week and scores each group.
// Labels must be numeric class codes; weeks come back in ascending order.
func ByWeek(trueLabels, predLabels []string, weeks []int) ([]WeekMetrics, error) {
	if len(trueLabels) != len(predLabels) || len(trueLabels) != len(weeks) {
		return nil, fmt.Errorf("%w: %d true labels, %d predicted labels, %d weeks",
			bootstrap.ErrAlignmentMismatch, len(trueLabels), len(predLabels), len(weeks))
	}

	type group struct{ y, p []float64 }
	groups := make(map[int]*group)
	for i := range trueLabels {
		y, err := numericLabel(trueLabels[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: true label: %w", i, err)
		}
		p, err := numericLabel(predLabels[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: predicted label: %w", i, err)
		}
		g, ok := groups[weeks[i]]
		if !ok {
			g = &group{}
			groups[weeks[i]] = g
		}
		g.y = append(g.y, y)
		g.p = append(g.p, p)
	}

	order := make([]int, 0, len(groups))
	for w := range groups {
		order = append(order, w)
	}
	slices.Sort(order)

	out := make([]WeekMetrics, 0, len(order))
	for _, w := range order {
		g := groups[w]
		m := Score(g.y, g.p)
		m.Week = w
		out = append(out, m)
	}
	return out, nil
}

// Score computes MAE, MSE, R² and exact-match accuracy of p against y.
// y and p must have the same non-zero length.
//
// R² is NaN for fewer than two samples. When y is constant it is 1 for a
// perfect prediction and 0 otherwise.
func Score(y, p []float64) WeekMetrics {
	n := float64(len(y))
	m := WeekMetrics{N: len(y)}

	m.MAE = floats.Distance(y, p, 1) / n
	d := floats.Distance(y, p, 2)
	m.MSE = d * d / n

	correct := 0
	for i := range y {
		if y[i] == p[i] {
			correct++
		}
	}
	m.Accuracy = float64(correct) / n

	switch {
	case len(y) < 2:
		m.R2 = math.NaN()
	case stat.PopVariance(y, nil) == 0:
		if m.MSE == 0 {
			m.R2 = 1
		} else {
			m.R2 = 0
		}
	default:
		m.R2 = stat.RSquaredFrom(p, y, nil)
	}
	return m
}

func numericLabel(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("label %q is not a numeric class code", v)
	}
	return f, nil
}
