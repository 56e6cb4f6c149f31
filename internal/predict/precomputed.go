package predict

import (
	"context"
	"fmt"
)

// Precomputed replays predicted labels read alongside the input rows.
type Precomputed struct {
	labels []string
}

// NewPrecomputed returns a Predictor that answers with labels verbatim.
func NewPrecomputed(labels []string) *Precomputed {
	return &Precomputed{labels: labels}
}

// Predict returns the stored labels. The feature values are ignored but
// their row count must match.
func (p *Precomputed) Predict(ctx context.Context, features [][]float64) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(features) != len(p.labels) {
		return nil, fmt.Errorf("%w: %d rows vs %d precomputed labels", ErrCountMismatch, len(features), len(p.labels))
	}
	out := make([]string, len(p.labels))
	copy(out, p.labels)
	return out, nil
}
