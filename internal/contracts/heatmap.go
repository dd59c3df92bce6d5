package contracts

import "sort"

// YearMonthValues maps year → month (1-12) → nullable value
type YearMonthValues map[int]map[int]*float64

// YearMonthRanks maps year → month (1-12) → nullable rank
type YearMonthRanks map[int]map[int]*int

// Set stores v under (year, month)
func (m YearMonthValues) Set(year, month int, v *float64) {
	row, ok := m[year]
	if !ok {
		row = make(map[int]*float64)
		m[year] = row
	}
	row[month] = v
}

// Get returns the value at (year, month); ok is false when the cell does not exist
func (m YearMonthValues) Get(year, month int) (*float64, bool) {
	row, ok := m[year]
	if !ok {
		return nil, false
	}
	v, ok := row[month]
	return v, ok
}

// Years returns the years present, ascending
func (m YearMonthValues) Years() []int {
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Set stores r under (year, month)
func (m YearMonthRanks) Set(year, month int, r *int) {
	row, ok := m[year]
	if !ok {
		row = make(map[int]*int)
		m[year] = row
	}
	row[month] = r
}

// Get returns the rank at (year, month); ok is false when the cell does not exist
func (m YearMonthRanks) Get(year, month int) (*int, bool) {
	row, ok := m[year]
	if !ok {
		return nil, false
	}
	r, ok := row[month]
	return r, ok
}

// HeatmapResult is the response of one index
// ⭐ SSOT: Analytics → API 응답 스키마 (index, heatmap, monthly_price, ...)
type HeatmapResult struct {
	Index                 string          `json:"index"`
	Heatmap               YearMonthValues `json:"heatmap"`
	MonthlyPrice          YearMonthValues `json:"monthly_price"`
	MonthlyProfits        YearMonthValues `json:"monthly_profits"` // same values as Heatmap
	AvgMonthlyProfits3Y   *float64        `json:"avg_monthly_profits_3y"`
	RankPercentile4Y      *float64        `json:"rank_percentile_4y"`
	InverseRankPercentile *float64        `json:"inverse_rank_percentile"`
	MonthlyRankPercentile YearMonthRanks  `json:"monthly_rank_percentile"`
}

// Clone returns a deep copy; cached results are shared, callers get clones
func (r *HeatmapResult) Clone() *HeatmapResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Heatmap = r.Heatmap.clone()
	out.MonthlyPrice = r.MonthlyPrice.clone()
	out.MonthlyProfits = r.MonthlyProfits.clone()
	out.MonthlyRankPercentile = r.MonthlyRankPercentile.clone()
	out.AvgMonthlyProfits3Y = cloneFloat(r.AvgMonthlyProfits3Y)
	out.RankPercentile4Y = cloneFloat(r.RankPercentile4Y)
	out.InverseRankPercentile = cloneFloat(r.InverseRankPercentile)
	return &out
}

func (m YearMonthValues) clone() YearMonthValues {
	if m == nil {
		return nil
	}
	out := make(YearMonthValues, len(m))
	for y, row := range m {
		for month, v := range row {
			out.Set(y, month, cloneFloat(v))
		}
		if len(row) == 0 {
			out[y] = map[int]*float64{}
		}
	}
	return out
}

func (m YearMonthRanks) clone() YearMonthRanks {
	if m == nil {
		return nil
	}
	out := make(YearMonthRanks, len(m))
	for y, row := range m {
		for month, r := range row {
			if r != nil {
				r = Int(*r)
			}
			out.Set(y, month, r)
		}
		if len(row) == 0 {
			out[y] = map[int]*int{}
		}
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Float(*v)
}

// Scalars holds the single-value summaries of a result
type Scalars struct {
	AvgMonthlyProfits3Y   *float64 `json:"avg_monthly_profits_3y"`
	RankPercentile4Y      *float64 `json:"rank_percentile_4y"`
	InverseRankPercentile *float64 `json:"inverse_rank_percentile"`
}

// IndicesResponse lists the available indices
type IndicesResponse struct {
	Indices []string `json:"indices"`
}
