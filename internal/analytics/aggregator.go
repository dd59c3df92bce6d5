package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/wonny/heatmap/internal/contracts"
)

// PrepareSeries returns a date-sorted copy of series.
// Two observations on the same calendar date fail the whole series: silently
// averaging them would hide corrupted input.
func PrepareSeries(series contracts.DailySeries) (contracts.DailySeries, error) {
	if strings.TrimSpace(series.Index) == "" {
		return contracts.DailySeries{}, &contracts.MalformedSeriesError{Reason: "empty index name"}
	}

	obs := make([]contracts.DailyObservation, len(series.Observations))
	copy(obs, series.Observations)

	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].Date.Before(obs[j].Date)
	})

	for i := 1; i < len(obs); i++ {
		if sameDay(obs[i-1], obs[i]) {
			return contracts.DailySeries{}, &contracts.MalformedSeriesError{
				Index:  series.Index,
				Date:   obs[i].Date,
				Reason: "duplicate date",
			}
		}
	}

	return contracts.DailySeries{Index: series.Index, Observations: obs}, nil
}

func sameDay(a, b contracts.DailyObservation) bool {
	ay, am, ad := a.Date.Date()
	by, bm, bd := b.Date.Date()
	return ay == by && am == bm && ad == bd
}

// Aggregate reduces a daily series to one average price per (year, month).
// Months without observations are not emitted; output is sorted ascending.
func Aggregate(series contracts.DailySeries) contracts.MonthlySeries {
	type acc struct {
		sum   float64
		count int
	}

	buckets := make(map[contracts.MonthKey]*acc)
	for _, o := range series.Observations {
		// NaN/Inf는 결측치로 취급
		if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
			continue
		}

		key := contracts.KeyOf(o.Date)
		a, ok := buckets[key]
		if !ok {
			a = &acc{}
			buckets[key] = a
		}
		a.sum += o.Value
		a.count++
	}

	keys := make([]contracts.MonthKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Before(keys[j])
	})

	out := contracts.MonthlySeries{
		Index:   series.Index,
		Buckets: make([]contracts.MonthlyBucket, 0, len(keys)),
	}
	for _, k := range keys {
		a := buckets[k]
		out.Buckets = append(out.Buckets, contracts.MonthlyBucket{
			Year:     k.Year,
			Month:    k.Month,
			AvgValue: contracts.Float(a.sum / float64(a.count)),
		})
	}

	return out
}
