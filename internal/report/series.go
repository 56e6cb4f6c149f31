package report

import (
	"github.com/banshee-data/cropaccuracy/internal/bootstrap"
)

// CropSeries is the per-week accuracy curve of one crop, ready to draw.
type CropSeries struct {
	Crop     string
	Weeks    []int
	Mean     []float64
	Smoothed []float64
	Std      []float64
}

// Lower returns Smoothed minus Std at index i, clamped to [0, 1].
func (s CropSeries) Lower(i int) float64 {
	return clamp01(s.Smoothed[i] - s.Std[i])
}

// Upper returns Smoothed plus Std at index i, clamped to [0, 1].
func (s CropSeries) Upper(i int) float64 {
	return clamp01(s.Smoothed[i] + s.Std[i])
}

// BuildSeries splits the table by crop and smooths each crop's mean
// accuracy over its weeks. The band width is the unsmoothed std.
func BuildSeries(t *bootstrap.ResultTable, sigma float64) []CropSeries {
	crops := t.Crops()
	out := make([]CropSeries, 0, len(crops))
	for _, crop := range crops {
		rows := t.ForCrop(crop)
		s := CropSeries{
			Crop:  crop,
			Weeks: make([]int, len(rows)),
			Mean:  make([]float64, len(rows)),
			Std:   make([]float64, len(rows)),
		}
		for i, r := range rows {
			s.Weeks[i] = r.Week
			s.Mean[i] = r.MeanAccuracy
			s.Std[i] = r.StdAccuracy
		}
		s.Smoothed = GaussianSmooth(s.Mean, sigma)
		out = append(out, s)
	}
	return out
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
