package bootstrap

import (
	"cmp"
	"fmt"
)

// Observation is one labelled prediction for a field in a given week.
type Observation struct {
	TrueLabel      string
	PredictedLabel string
	CropType       string
	Week           int
}

// Correct reports whether the prediction matches the true label.
func (o Observation) Correct() bool {
	return o.TrueLabel == o.PredictedLabel
}

// Key identifies a stratum. Equality is exact on both fields.
type Key struct {
	CropType string
	Week     int
}

func (k Key) String() string {
	return fmt.Sprintf("(%s, week %d)", k.CropType, k.Week)
}

// Compare orders keys by crop type, then week.
func (k Key) Compare(o Key) int {
	if c := cmp.Compare(k.CropType, o.CropType); c != 0 {
		return c
	}
	return cmp.Compare(k.Week, o.Week)
}

// Stratum is the non-empty set of observations sharing one Key, in input
// order.
type Stratum struct {
	Key          Key
	Observations []Observation
}

// Len returns the number of observations in the stratum.
func (s *Stratum) Len() int {
	return len(s.Observations)
}

// Accuracy returns the plain (non-resampled) accuracy of the stratum, or 0
// for an empty stratum.
func (s *Stratum) Accuracy() float64 {
	if len(s.Observations) == 0 {
		return 0
	}
	hits := 0
	for _, o := range s.Observations {
		if o.Correct() {
			hits++
		}
	}
	return float64(hits) / float64(len(s.Observations))
}
