package analytics

import (
	"time"

	"github.com/wonny/heatmap/internal/contracts"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// monthlyOf builds a monthly series starting at (year, month) with one bucket per value
func monthlyOf(year int, month time.Month, values ...float64) contracts.MonthlySeries {
	s := contracts.MonthlySeries{Index: "TEST"}
	t := day(year, month, 1)
	for _, v := range values {
		s.Buckets = append(s.Buckets, contracts.MonthlyBucket{
			Year:     t.Year(),
			Month:    t.Month(),
			AvgValue: contracts.Float(v),
		})
		t = t.AddDate(0, 1, 0)
	}
	return s
}

// returnsOf builds consecutive monthly return points; nil entries stay absent
func returnsOf(values ...*float64) []contracts.ReturnPoint {
	points := make([]contracts.ReturnPoint, len(values))
	t := day(2015, time.January, 1)
	for i, v := range values {
		points[i] = contracts.ReturnPoint{Year: t.Year(), Month: t.Month(), Return: v}
		t = t.AddDate(0, 1, 0)
	}
	return points
}

func f(v float64) *float64 {
	return contracts.Float(v)
}

// dailySeries builds months of daily data: each month has observations on the
// 5th and 20th worth base+i and base+i+2, so the monthly average is base+i+1
func dailySeries(index string, start time.Time, months int, base float64) contracts.DailySeries {
	s := contracts.DailySeries{Index: index}
	for i := 0; i < months; i++ {
		t := start.AddDate(0, i, 0)
		v := base + float64(i)
		s.Observations = append(s.Observations,
			contracts.DailyObservation{Date: day(t.Year(), t.Month(), 5), Value: v},
			contracts.DailyObservation{Date: day(t.Year(), t.Month(), 20), Value: v + 2},
		)
	}
	return s
}
