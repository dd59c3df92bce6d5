package analytics

import (
	"github.com/wonny/heatmap/internal/contracts"
)

// Assemble reshapes the pipeline outputs into year → month (1-12) maps.
// Cells exist only for (year, month) pairs present in the inputs; a point with
// no value becomes an explicit null, a month that never existed is omitted.
func Assemble(
	index string,
	monthly contracts.MonthlySeries,
	returns []contracts.ReturnPoint,
	ranks []contracts.RankRecord,
	scalars contracts.Scalars,
) *contracts.HeatmapResult {
	result := &contracts.HeatmapResult{
		Index:                 index,
		Heatmap:               contracts.YearMonthValues{},
		MonthlyPrice:          contracts.YearMonthValues{},
		MonthlyProfits:        contracts.YearMonthValues{},
		AvgMonthlyProfits3Y:   copyFloat(scalars.AvgMonthlyProfits3Y),
		RankPercentile4Y:      copyFloat(scalars.RankPercentile4Y),
		InverseRankPercentile: copyFloat(scalars.InverseRankPercentile),
		MonthlyRankPercentile: contracts.YearMonthRanks{},
	}

	for _, b := range monthly.Buckets {
		result.MonthlyPrice.Set(b.Year, int(b.Month), copyFloat(b.AvgValue))
	}

	for _, p := range returns {
		result.Heatmap.Set(p.Year, int(p.Month), copyFloat(p.Return))
		result.MonthlyProfits.Set(p.Year, int(p.Month), copyFloat(p.Return))
	}

	for _, r := range ranks {
		var rank *int
		if r.Rank != nil {
			rank = contracts.Int(*r.Rank)
		}
		result.MonthlyRankPercentile.Set(r.Year, int(r.Month), rank)
	}

	return result
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return contracts.Float(*v)
}
