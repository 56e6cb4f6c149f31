package bootstrap

import (
	"fmt"
	"slices"
)

// Partition groups observations into strata keyed by (crop type, week).
// Every observation lands in exactly one stratum and no empty stratum is
// created. Grouping uses exact value equality; callers must canonicalise
// crop and label encodings beforehand.
func Partition(obs []Observation) map[Key]*Stratum {
	strata := make(map[Key]*Stratum)
	for _, o := range obs {
		k := Key{CropType: o.CropType, Week: o.Week}
		s, ok := strata[k]
		if !ok {
			s = &Stratum{Key: k}
			strata[k] = s
		}
		s.Observations = append(s.Observations, o)
	}
	return strata
}

// PartitionPairs builds observations from parallel vectors and partitions
// them. All four vectors must have the same length.
func PartitionPairs(trueLabels, predLabels, crops []string, weeks []int) (map[Key]*Stratum, error) {
	if len(trueLabels) != len(predLabels) {
		return nil, fmt.Errorf("%w: %d true labels vs %d predicted labels", ErrAlignmentMismatch, len(trueLabels), len(predLabels))
	}
	if len(crops) != len(trueLabels) || len(weeks) != len(trueLabels) {
		return nil, fmt.Errorf("%w: %d labels vs %d crop types and %d weeks", ErrAlignmentMismatch, len(trueLabels), len(crops), len(weeks))
	}

	obs := make([]Observation, len(trueLabels))
	for i := range trueLabels {
		obs[i] = Observation{
			TrueLabel:      trueLabels[i],
			PredictedLabel: predLabels[i],
			CropType:       crops[i],
			Week:           weeks[i],
		}
	}
	return Partition(obs), nil
}

// SortedKeys returns the stratum keys ordered by crop type, then week.
func SortedKeys(strata map[Key]*Stratum) []Key {
	keys := make([]Key, 0, len(strata))
	for k := range strata {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, Key.Compare)
	return keys
}
