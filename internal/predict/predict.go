// Package predict turns feature vectors into predicted crop labels.
//
// Trained models are not evaluated in-process. A Predictor either replays
// labels already present in the input (Precomputed) or asks a model server
// over HTTP (Remote).
package predict

import (
	"context"
	"errors"
)

// ErrCountMismatch is returned when a predictor yields a different number
// of labels than it was given rows.
var ErrCountMismatch = errors.New("prediction count mismatch")

// Predictor maps each feature row to one predicted label. Labels are
// returned in canonical form (see dataset.CanonicalLabel).
type Predictor interface {
	Predict(ctx context.Context, features [][]float64) ([]string, error)
}
