package bootstrap

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stratumFrom(key Key, trueLabels, predLabels []string) *Stratum {
	s := &Stratum{Key: key}
	for i := range trueLabels {
		s.Observations = append(s.Observations, Observation{
			TrueLabel:      trueLabels[i],
			PredictedLabel: predLabels[i],
			CropType:       key.CropType,
			Week:           key.Week,
		})
	}
	return s
}

func TestEstimate_Scenario(t *testing.T) {
	s := stratumFrom(Key{"Maize", 1}, []string{"1", "1", "0", "0"}, []string{"1", "0", "0", "0"})
	require.InDelta(t, 0.75, s.Accuracy(), 1e-12)

	mean, std, err := Estimate(s, 1000, rand.New(rand.NewPCG(42, 7)))
	require.NoError(t, err)
	assert.InDelta(t, 0.75, mean, 0.05)
	assert.Greater(t, std, 0.0)
}

func TestEstimate_DeterministicUnderFixedSeed(t *testing.T) {
	s := stratumFrom(Key{"Soy", 20},
		[]string{"1", "1", "0", "0", "2", "2", "1"},
		[]string{"1", "0", "0", "2", "2", "1", "1"})

	m1, s1, err := Estimate(s, 500, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)
	m2, s2, err := Estimate(s, 500, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)

	assert.Equal(t, m1, m2)
	assert.Equal(t, s1, s2)
}

func TestEstimate_SingletonStratum(t *testing.T) {
	tests := []struct {
		name     string
		truth    string
		pred     string
		wantMean float64
	}{
		{"correct", "3", "3", 1},
		{"incorrect", "3", "5", 0},
	}
	for _, tt := range tests {
		for _, n := range []int{1, 2, 17, 1000} {
			s := stratumFrom(Key{"Wheat", 30}, []string{tt.truth}, []string{tt.pred})
			mean, std, err := Estimate(s, n, rand.New(rand.NewPCG(uint64(n), 1)))
			require.NoError(t, err)
			assert.Equal(t, tt.wantMean, mean, "%s n=%d", tt.name, n)
			assert.Equal(t, 0.0, std, "%s n=%d", tt.name, n)
		}
	}
}

func TestEstimate_AllCorrectOrAllWrong(t *testing.T) {
	allRight := stratumFrom(Key{"Maize", 5}, []string{"1", "2", "3"}, []string{"1", "2", "3"})
	mean, std, err := Estimate(allRight, 50, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	assert.Equal(t, 1.0, mean)
	assert.Equal(t, 0.0, std)

	allWrong := stratumFrom(Key{"Maize", 5}, []string{"1", "2", "3"}, []string{"2", "3", "1"})
	mean, std, err = Estimate(allWrong, 50, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	assert.Equal(t, 0.0, mean)
	assert.Equal(t, 0.0, std)
}

func TestEstimate_Bounds(t *testing.T) {
	r := rand.New(rand.NewPCG(11, 13))
	for trial := 0; trial < 50; trial++ {
		obs := randomObservations(r, 1+r.IntN(60))
		for _, s := range Partition(obs) {
			mean, std, err := Estimate(s, 1+r.IntN(200), r)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, mean, 0.0)
			assert.LessOrEqual(t, mean, 1.0)
			assert.GreaterOrEqual(t, std, 0.0)
		}
	}
}

func TestEstimate_PairedResampling(t *testing.T) {
	// Every observation is correct, so any paired resample is perfect. A
	// resampler that drew true and predicted labels independently would
	// see mismatches.
	s := stratumFrom(Key{"Soy", 8}, []string{"0", "1", "2", "3", "4"}, []string{"0", "1", "2", "3", "4"})
	mean, std, err := Estimate(s, 200, rand.New(rand.NewPCG(5, 5)))
	require.NoError(t, err)
	assert.Equal(t, 1.0, mean)
	assert.Equal(t, 0.0, std)
}

func TestEstimate_InvalidArguments(t *testing.T) {
	s := stratumFrom(Key{"Maize", 1}, []string{"1"}, []string{"1"})
	rng := rand.New(rand.NewPCG(1, 2))

	tests := []struct {
		name       string
		stratum    *Stratum
		nResamples int
		rng        *rand.Rand
	}{
		{"zero resamples", s, 0, rng},
		{"negative resamples", s, -5, rng},
		{"nil stratum", nil, 10, rng},
		{"empty stratum", &Stratum{Key: Key{"Maize", 1}}, 10, rng},
		{"nil rng", s, 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Estimate(tt.stratum, tt.nResamples, tt.rng)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)
		})
	}
}
