package bootstrap

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/cropaccuracy/internal/monitoring"
)

// StratumResult is the bootstrap summary for one stratum.
type StratumResult struct {
	CropType      string  `json:"crop"`
	Week          int     `json:"week"`
	MeanAccuracy  float64 `json:"mean_accuracy"`
	StdAccuracy   float64 `json:"accuracy_std"`
	NObservations int     `json:"n_observations"`
	NResamples    int     `json:"n_resamples"`
}

// Key returns the stratum key the result belongs to.
func (r StratumResult) Key() Key {
	return Key{CropType: r.CropType, Week: r.Week}
}

// ResultTable holds one StratumResult per stratum, ordered by crop type
// then week.
type ResultTable struct {
	Rows []StratumResult
}

// Len returns the number of rows.
func (t *ResultTable) Len() int {
	return len(t.Rows)
}

// Check returns ErrEmptyResultSet when the table has no rows.
func (t *ResultTable) Check() error {
	if len(t.Rows) == 0 {
		return ErrEmptyResultSet
	}
	return nil
}

// Crops returns the distinct crop types in table order.
func (t *ResultTable) Crops() []string {
	var crops []string
	for _, r := range t.Rows {
		if len(crops) == 0 || crops[len(crops)-1] != r.CropType {
			crops = append(crops, r.CropType)
		}
	}
	return crops
}

// ForCrop returns the rows of one crop type, ordered by week.
func (t *ResultTable) ForCrop(crop string) []StratumResult {
	var rows []StratumResult
	for _, r := range t.Rows {
		if r.CropType == crop {
			rows = append(rows, r)
		}
	}
	return rows
}

// Seeder returns the random source used for one stratum.
type Seeder func(Key) *rand.Rand

// KeyedSeeder derives an independent PCG stream per stratum from seed and
// a hash of the key, so each stratum sees the same draws however strata
// are scheduled.
func KeyedSeeder(seed uint64) Seeder {
	return func(k Key) *rand.Rand {
		d := xxhash.New()
		d.WriteString(k.CropType)
		d.WriteString("\x00")
		d.WriteString(strconv.Itoa(k.Week))
		return rand.New(rand.NewPCG(seed, d.Sum64()))
	}
}

// AggregateOptions tunes Aggregate.
type AggregateOptions struct {
	// Workers bounds concurrent stratum estimates; 0 means GOMAXPROCS.
	Workers int
	// Seeder supplies per-stratum randomness; nil means KeyedSeeder(0).
	Seeder Seeder
}

// Aggregate estimates every stratum and returns the ordered ResultTable.
//
// Strata are dispatched to a bounded errgroup. The first failure cancels
// the remaining work and Aggregate returns a nil table together with the
// error, which names the failing stratum. An empty input logs a warning
// and yields an empty table with no error; ResultTable.Check reports it.
func Aggregate(ctx context.Context, strata map[Key]*Stratum, nResamples int, opts AggregateOptions) (*ResultTable, error) {
	if nResamples <= 0 {
		return nil, fmt.Errorf("%w: n_resamples must be positive, got %d", ErrInvalidArgument, nResamples)
	}
	seeder := opts.Seeder
	if seeder == nil {
		seeder = KeyedSeeder(0)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	keys := SortedKeys(strata)
	if len(keys) == 0 {
		monitoring.Logf("WARNING: %v: no strata to aggregate", ErrEmptyResultSet)
		return &ResultTable{}, nil
	}
	rows := make([]StratumResult, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, k := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s := strata[k]
			mean, std, err := Estimate(s, nResamples, seeder(k))
			if err != nil {
				return fmt.Errorf("stratum %s: %w", k, err)
			}
			rows[i] = StratumResult{
				CropType:      k.CropType,
				Week:          k.Week,
				MeanAccuracy:  mean,
				StdAccuracy:   std,
				NObservations: s.Len(),
				NResamples:    nResamples,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ResultTable{Rows: rows}, nil
}
