package bootstrap

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
)

// Estimate draws nResamples bootstrap samples of the stratum and returns
// the mean and population standard deviation of their accuracies.
//
// Each sample picks len(s) indices uniformly with replacement. True and
// predicted labels are read at the same index, so pairs are never broken
// up. rng is advanced but never reseeded.
func Estimate(s *Stratum, nResamples int, rng *rand.Rand) (mean, std float64, err error) {
	if nResamples <= 0 {
		return 0, 0, fmt.Errorf("%w: n_resamples must be positive, got %d", ErrInvalidArgument, nResamples)
	}
	if s == nil || len(s.Observations) == 0 {
		return 0, 0, fmt.Errorf("%w: empty stratum", ErrInvalidArgument)
	}
	if rng == nil {
		return 0, 0, fmt.Errorf("%w: nil random source for stratum %s", ErrInvalidArgument, s.Key)
	}

	n := len(s.Observations)
	correct := make([]bool, n)
	for i, o := range s.Observations {
		correct[i] = o.Correct()
	}

	accuracies := make([]float64, nResamples)
	for r := range accuracies {
		hits := 0
		for range n {
			if correct[rng.IntN(n)] {
				hits++
			}
		}
		accuracies[r] = float64(hits) / float64(n)
	}

	if nResamples == 1 {
		return accuracies[0], 0, nil
	}
	mean, std = stat.PopMeanStdDev(accuracies, nil)
	return mean, std, nil
}
