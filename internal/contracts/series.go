package contracts

import "time"

// DailyObservation is one (date, price) pair of an index
type DailyObservation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// DailySeries represents the daily price history of one named index
// ⭐ SSOT: Ingest → Analytics 입력 계약
type DailySeries struct {
	Index        string             `json:"index"`
	Observations []DailyObservation `json:"observations"`
}

// Len returns the number of observations
func (s DailySeries) Len() int {
	return len(s.Observations)
}

// First returns the earliest observation date (zero time if empty)
func (s DailySeries) First() time.Time {
	if len(s.Observations) == 0 {
		return time.Time{}
	}
	return s.Observations[0].Date
}

// Last returns the latest observation date (zero time if empty)
func (s DailySeries) Last() time.Time {
	if len(s.Observations) == 0 {
		return time.Time{}
	}
	return s.Observations[len(s.Observations)-1].Date
}

// MonthKey identifies a (year, month) bucket
type MonthKey struct {
	Year  int
	Month time.Month
}

// KeyOf returns the bucket key of a date, ignoring time of day
func KeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// Before reports whether k sorts before other
func (k MonthKey) Before(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// MonthlyBucket is the average price of one (year, month)
// AvgValue is nil when the bucket has no usable observations
type MonthlyBucket struct {
	Year     int        `json:"year"`
	Month    time.Month `json:"month"`
	AvgValue *float64   `json:"avg_value"`
}

// Key returns the bucket key
func (b MonthlyBucket) Key() MonthKey {
	return MonthKey{Year: b.Year, Month: b.Month}
}

// MonthlySeries is ordered by strictly increasing (year, month)
type MonthlySeries struct {
	Index   string          `json:"index"`
	Buckets []MonthlyBucket `json:"buckets"`
}

// Len returns the number of buckets
func (s MonthlySeries) Len() int {
	return len(s.Buckets)
}

// ReturnPoint is a return value keyed by its bucket
type ReturnPoint struct {
	Year   int        `json:"year"`
	Month  time.Month `json:"month"`
	Return *float64   `json:"return"`
}

// RankRecord is the rank (1 = best) and percentile (100 = best) of a return point
// within its trailing comparison window
type RankRecord struct {
	Year       int        `json:"year"`
	Month      time.Month `json:"month"`
	Rank       *int       `json:"rank"`
	Percentile *float64   `json:"percentile"`
}

// Dataset is everything a source loaded: one daily series per index
type Dataset struct {
	Names    []string               `json:"names"` // source column order
	Series   map[string]DailySeries `json:"-"`
	Invalid  map[string]error       `json:"-"` // 인덱스별 오류 (다른 인덱스는 정상 제공)
	Source   string                 `json:"source"`
	LoadedAt time.Time              `json:"loaded_at"`
}

// Add appends an index: its series, or the error that made it unusable
func (d *Dataset) Add(index string, series DailySeries, err error) {
	d.Names = append(d.Names, index)
	if err != nil {
		if d.Invalid == nil {
			d.Invalid = make(map[string]error)
		}
		d.Invalid[index] = err
		return
	}
	if d.Series == nil {
		d.Series = make(map[string]DailySeries)
	}
	d.Series[index] = series
}

// Valid returns the usable index names in source order
func (d *Dataset) Valid() []string {
	names := make([]string, 0, len(d.Names))
	for _, name := range d.Names {
		if _, bad := d.Invalid[name]; !bad {
			names = append(names, name)
		}
	}
	return names
}

// Get returns the series for an index; the index's own error when it failed
// to load, MissingIndexError when absent
func (d *Dataset) Get(index string) (DailySeries, error) {
	if err, bad := d.Invalid[index]; bad {
		return DailySeries{}, err
	}
	series, ok := d.Series[index]
	if !ok {
		return DailySeries{}, &MissingIndexError{Index: index}
	}
	return series, nil
}

// Count returns the number of indices
func (d *Dataset) Count() int {
	return len(d.Names)
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v
func Int(v int) *int {
	return &v
}
