package report

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// truncate is the kernel half-width in standard deviations.
const truncate = 4.0

// GaussianSmooth convolves y with a normalised Gaussian kernel of the given
// sigma (in samples). The kernel is cut at truncate*sigma and the input is
// extended by half-sample symmetric reflection (d c b a | a b c d | d c b a),
// which reproduces scipy.ndimage.gaussian_filter1d with its defaults.
// A non-positive sigma returns a copy of y.
func GaussianSmooth(y []float64, sigma float64) []float64 {
	out := make([]float64, len(y))
	if sigma <= 0 || len(y) == 0 {
		copy(out, y)
		return out
	}

	radius := int(truncate*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	norm := distuv.Normal{Mu: 0, Sigma: sigma}
	var sum float64
	for k := -radius; k <= radius; k++ {
		w := norm.Prob(float64(k))
		kernel[k+radius] = w
		sum += w
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	n := len(y)
	for i := range n {
		var acc float64
		for k := -radius; k <= radius; k++ {
			acc += kernel[k+radius] * y[reflect(i+k, n)]
		}
		out[i] = acc
	}
	return out
}

// reflect maps an out-of-range index back into [0, n) by repeated
// half-sample symmetric reflection.
func reflect(i, n int) int {
	period := 2 * n
	j := i % period
	if j < 0 {
		j += period
	}
	if j >= n {
		j = period - 1 - j
	}
	return j
}
