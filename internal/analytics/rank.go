package analytics

import (
	"github.com/wonny/heatmap/internal/contracts"
)

const monthsPerYear = 12

// RankPercentiles ranks every return point against the trailing
// windowYears*12 points ending at it (fewer at the start of history).
//
// Rank 1 is the highest valid return in the window. Equal values share the
// best rank among them, so a tie for the maximum is rank 1 twice. Percentile is
// 100*(1-(rank-1)/(n-1)) over the n valid values of the window. Rank and
// percentile stay nil when n < 2 or the point itself has no return.
func RankPercentiles(returns []contracts.ReturnPoint, windowYears int) []contracts.RankRecord {
	window := windowYears * monthsPerYear

	records := make([]contracts.RankRecord, len(returns))
	for i, p := range returns {
		rank, pct := rankAt(returns, i, window)
		records[i] = contracts.RankRecord{
			Year:       p.Year,
			Month:      p.Month,
			Rank:       rank,
			Percentile: pct,
		}
	}

	return records
}

// rankAt computes the rank and percentile of returns[i] in its trailing window
func rankAt(returns []contracts.ReturnPoint, i, window int) (*int, *float64) {
	if window <= 0 || i < 0 || i >= len(returns) || returns[i].Return == nil {
		return nil, nil
	}

	start := i - window + 1
	if start < 0 {
		start = 0
	}

	value := *returns[i].Return
	valid := 0
	greater := 0
	for _, p := range returns[start : i+1] {
		if p.Return == nil {
			continue
		}
		valid++
		if *p.Return > value {
			greater++
		}
	}

	// 단일 값 윈도우는 비교 대상이 없음
	if valid < 2 {
		return nil, nil
	}

	rank := greater + 1
	pct := 100 * (1 - float64(rank-1)/float64(valid-1))
	return contracts.Int(rank), contracts.Float(pct)
}

// TrailingAverage is the mean of valid returns among the last years*12 points.
// nil when the window holds no valid value.
func TrailingAverage(returns []contracts.ReturnPoint, years int) *float64 {
	window := years * monthsPerYear
	if window <= 0 {
		return nil
	}

	start := len(returns) - window
	if start < 0 {
		start = 0
	}

	sum := 0.0
	count := 0
	for _, p := range returns[start:] {
		if p.Return == nil {
			continue
		}
		sum += *p.Return
		count++
	}

	if count == 0 {
		return nil
	}
	return contracts.Float(sum / float64(count))
}

// PerformancePercentile is the percentile of the most recent point that has a
// return, ranked against a years-long trailing window
func PerformancePercentile(returns []contracts.ReturnPoint, years int) *float64 {
	last := lastValid(returns)
	if last < 0 {
		return nil
	}

	_, pct := rankAt(returns, last, years*monthsPerYear)
	return pct
}

// ValuationPercentile turns a performance percentile into a valuation signal:
// strong recent performance → low value → "expensive"
func ValuationPercentile(percentile *float64) *float64 {
	if percentile == nil {
		return nil
	}
	return contracts.Float(100 - *percentile)
}

// HasSufficientHistory reports whether a monthly series is long enough to rank.
// History is counted in monthly buckets, not return points; minMonths itself is enough.
func HasSufficientHistory(monthly contracts.MonthlySeries, minMonths int) bool {
	return monthly.Len() >= minMonths
}

func lastValid(returns []contracts.ReturnPoint) int {
	for i := len(returns) - 1; i >= 0; i-- {
		if returns[i].Return != nil {
			return i
		}
	}
	return -1
}

// emptyRanks keeps the (year, month) keys of returns with every value nil
func emptyRanks(returns []contracts.ReturnPoint) []contracts.RankRecord {
	records := make([]contracts.RankRecord, len(returns))
	for i, p := range returns {
		records[i] = contracts.RankRecord{Year: p.Year, Month: p.Month}
	}
	return records
}
