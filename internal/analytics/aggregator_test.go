package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/heatmap/internal/contracts"
)

func TestAggregate_MonthlyMean(t *testing.T) {
	series := contracts.DailySeries{
		Index: "NIFTY 50",
		Observations: []contracts.DailyObservation{
			{Date: day(2024, time.January, 2), Value: 100},
			{Date: day(2024, time.January, 15), Value: 110},
			{Date: day(2024, time.February, 1), Value: 99},
		},
	}

	monthly := Aggregate(series)

	require.Equal(t, 2, monthly.Len())
	assert.Equal(t, "NIFTY 50", monthly.Index)
	assert.Equal(t, 2024, monthly.Buckets[0].Year)
	assert.Equal(t, time.January, monthly.Buckets[0].Month)
	assert.InDelta(t, 105.0, *monthly.Buckets[0].AvgValue, 1e-9)
	assert.InDelta(t, 99.0, *monthly.Buckets[1].AvgValue, 1e-9)
}

func TestAggregate_MonotonicGrouping(t *testing.T) {
	// Unordered input spread over a year boundary with holiday gaps
	series := contracts.DailySeries{
		Index: "NIFTY BANK",
		Observations: []contracts.DailyObservation{
			{Date: day(2023, time.March, 3), Value: 5},
			{Date: day(2022, time.December, 30), Value: 1},
			{Date: day(2023, time.January, 2), Value: 2},
			{Date: day(2023, time.March, 31), Value: 7},
			{Date: day(2022, time.December, 1), Value: 3},
		},
	}

	monthly := Aggregate(series)

	seen := map[contracts.MonthKey]bool{}
	for _, o := range series.Observations {
		seen[contracts.KeyOf(o.Date)] = true
	}

	require.Len(t, monthly.Buckets, 3)
	for i, b := range monthly.Buckets {
		assert.True(t, seen[b.Key()], "bucket %v has no source observation", b.Key())
		if i > 0 {
			assert.True(t, monthly.Buckets[i-1].Key().Before(b.Key()), "buckets not strictly increasing at %d", i)
		}
	}

	// February 2023 had no observations and is not emitted
	for _, b := range monthly.Buckets {
		assert.False(t, b.Year == 2023 && b.Month == time.February)
	}
}

func TestAggregate_IgnoresTimeOfDay(t *testing.T) {
	series := contracts.DailySeries{
		Index: "X",
		Observations: []contracts.DailyObservation{
			{Date: time.Date(2024, time.January, 31, 23, 59, 0, 0, time.UTC), Value: 10},
			{Date: time.Date(2024, time.February, 1, 0, 0, 1, 0, time.UTC), Value: 20},
		},
	}

	monthly := Aggregate(series)

	require.Len(t, monthly.Buckets, 2)
	assert.Equal(t, time.January, monthly.Buckets[0].Month)
	assert.Equal(t, time.February, monthly.Buckets[1].Month)
}

func TestAggregate_SkipsNonFinite(t *testing.T) {
	series := contracts.DailySeries{
		Index: "X",
		Observations: []contracts.DailyObservation{
			{Date: day(2024, time.January, 2), Value: 10},
			{Date: day(2024, time.January, 3), Value: math.NaN()},
			{Date: day(2024, time.February, 1), Value: math.Inf(1)},
		},
	}

	monthly := Aggregate(series)

	require.Len(t, monthly.Buckets, 1)
	assert.InDelta(t, 10.0, *monthly.Buckets[0].AvgValue, 1e-9)
}

func TestAggregate_Empty(t *testing.T) {
	monthly := Aggregate(contracts.DailySeries{Index: "X"})
	assert.Equal(t, 0, monthly.Len())
	assert.NotNil(t, monthly.Buckets)
}

func TestPrepareSeries_SortsCopy(t *testing.T) {
	series := contracts.DailySeries{
		Index: "X",
		Observations: []contracts.DailyObservation{
			{Date: day(2024, time.March, 1), Value: 3},
			{Date: day(2024, time.January, 1), Value: 1},
			{Date: day(2024, time.February, 1), Value: 2},
		},
	}

	prepared, err := PrepareSeries(series)
	require.NoError(t, err)

	assert.Equal(t, 1.0, prepared.Observations[0].Value)
	assert.Equal(t, 3.0, prepared.Observations[2].Value)

	// Input untouched
	assert.Equal(t, 3.0, series.Observations[0].Value)
}

func TestPrepareSeries_Errors(t *testing.T) {
	tests := []struct {
		name   string
		series contracts.DailySeries
	}{
		{
			name: "duplicate date",
			series: contracts.DailySeries{Index: "X", Observations: []contracts.DailyObservation{
				{Date: day(2024, time.January, 2), Value: 1},
				{Date: day(2024, time.January, 3), Value: 2},
				{Date: day(2024, time.January, 2), Value: 3},
			}},
		},
		{
			name: "same day different time",
			series: contracts.DailySeries{Index: "X", Observations: []contracts.DailyObservation{
				{Date: time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC), Value: 1},
				{Date: time.Date(2024, time.January, 2, 15, 30, 0, 0, time.UTC), Value: 2},
			}},
		},
		{
			name:   "empty index name",
			series: contracts.DailySeries{Index: "  "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PrepareSeries(tt.series)
			assert.ErrorIs(t, err, contracts.ErrMalformedSeries)
		})
	}
}
