package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cropaccuracy/internal/monitoring"
)

func maizeSoyStrata() map[Key]*Stratum {
	return map[Key]*Stratum{
		{"Maize", 1}: stratumFrom(Key{"Maize", 1}, []string{"1", "1", "0", "0"}, []string{"1", "0", "0", "0"}),
		{"Soy", 1}:   stratumFrom(Key{"Soy", 1}, []string{"2", "2", "2"}, []string{"2", "1", "2"}),
	}
}

func TestAggregate_RowCountAndOrder(t *testing.T) {
	r := rand.New(rand.NewPCG(21, 22))
	obs := randomObservations(r, 500)
	strata := Partition(obs)

	table, err := Aggregate(context.Background(), strata, 50, AggregateOptions{Seeder: KeyedSeeder(1)})
	require.NoError(t, err)
	require.Equal(t, len(strata), table.Len())

	seen := make(map[Key]bool)
	for i, row := range table.Rows {
		k := row.Key()
		assert.False(t, seen[k], "duplicate row %s", k)
		seen[k] = true
		if i > 0 {
			assert.Negative(t, table.Rows[i-1].Key().Compare(k), "rows out of order at %d", i)
		}
		assert.Equal(t, strata[k].Len(), row.NObservations)
		assert.Equal(t, 50, row.NResamples)
		assert.GreaterOrEqual(t, row.MeanAccuracy, 0.0)
		assert.LessOrEqual(t, row.MeanAccuracy, 1.0)
		assert.GreaterOrEqual(t, row.StdAccuracy, 0.0)
	}
}

func TestAggregate_DisjointStrataIndependent(t *testing.T) {
	strata := maizeSoyStrata()
	opts := AggregateOptions{Seeder: KeyedSeeder(99)}

	both, err := Aggregate(context.Background(), strata, 1000, opts)
	require.NoError(t, err)
	require.Equal(t, 2, both.Len())
	assert.Equal(t, []string{"Maize", "Soy"}, both.Crops())

	maizeOnly, err := Aggregate(context.Background(), map[Key]*Stratum{{"Maize", 1}: strata[Key{"Maize", 1}]}, 1000, opts)
	require.NoError(t, err)
	soyOnly, err := Aggregate(context.Background(), map[Key]*Stratum{{"Soy", 1}: strata[Key{"Soy", 1}]}, 1000, opts)
	require.NoError(t, err)

	if diff := cmp.Diff(maizeOnly.Rows[0], both.ForCrop("Maize")[0]); diff != "" {
		t.Errorf("Maize row depends on Soy (-alone +together):\n%s", diff)
	}
	if diff := cmp.Diff(soyOnly.Rows[0], both.ForCrop("Soy")[0]); diff != "" {
		t.Errorf("Soy row depends on Maize (-alone +together):\n%s", diff)
	}
	assert.InDelta(t, 0.75, both.Rows[0].MeanAccuracy, 0.05)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	r := rand.New(rand.NewPCG(8, 9))
	strata := Partition(randomObservations(r, 300))

	var want *ResultTable
	for _, workers := range []int{1, 2, 7, 64} {
		got, err := Aggregate(context.Background(), strata, 40, AggregateOptions{Workers: workers, Seeder: KeyedSeeder(5)})
		require.NoError(t, err)
		if want == nil {
			want = got
			continue
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("workers=%d changed the table (-want +got):\n%s", workers, diff)
		}
	}

	// Rebuilding the map in a different insertion order changes nothing.
	reordered := make(map[Key]*Stratum, len(strata))
	keys := SortedKeys(strata)
	for i := len(keys) - 1; i >= 0; i-- {
		reordered[keys[i]] = strata[keys[i]]
	}
	got, err := Aggregate(context.Background(), reordered, 40, AggregateOptions{Workers: 3, Seeder: KeyedSeeder(5)})
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("insertion order changed the table (-want +got):\n%s", diff)
	}
}

func TestAggregate_SeedChangesDraws(t *testing.T) {
	strata := maizeSoyStrata()
	a, err := Aggregate(context.Background(), strata, 200, AggregateOptions{Seeder: KeyedSeeder(1)})
	require.NoError(t, err)
	b, err := Aggregate(context.Background(), strata, 200, AggregateOptions{Seeder: KeyedSeeder(2)})
	require.NoError(t, err)
	assert.NotEqual(t, a.Rows, b.Rows)
}

func TestAggregate_ZeroResamples(t *testing.T) {
	table, err := Aggregate(context.Background(), maizeSoyStrata(), 0, AggregateOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Nil(t, table)
}

func TestAggregate_FailsFastOnBadStratum(t *testing.T) {
	strata := maizeSoyStrata()
	strata[Key{"Wheat", 9}] = &Stratum{Key: Key{"Wheat", 9}}

	table, err := Aggregate(context.Background(), strata, 10, AggregateOptions{Workers: 1})
	require.Error(t, err)
	assert.Nil(t, table)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Contains(t, err.Error(), "(Wheat, week 9)")
}

func TestAggregate_Empty(t *testing.T) {
	var warnings []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.SetLogger(log.Printf) })

	table, err := Aggregate(context.Background(), nil, 100, AggregateOptions{})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "WARNING: empty result set")
	require.NotNil(t, table)
	assert.Zero(t, table.Len())
	assert.True(t, errors.Is(table.Check(), ErrEmptyResultSet))
	assert.Empty(t, table.Crops())
}

func TestAggregate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table, err := Aggregate(ctx, maizeSoyStrata(), 10, AggregateOptions{})
	require.Error(t, err)
	assert.Nil(t, table)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestKeyedSeeder_StableStreams(t *testing.T) {
	seed := KeyedSeeder(123)
	a := seed(Key{"Maize", 4})
	b := seed(Key{"Maize", 4})
	c := seed(Key{"Maize", 5})

	va, vb, vc := a.Uint64(), b.Uint64(), c.Uint64()
	assert.Equal(t, va, vb)
	assert.NotEqual(t, va, vc)
}
