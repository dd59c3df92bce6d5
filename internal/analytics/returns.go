package analytics

import (
	"fmt"
	"math"
	"strings"

	"github.com/wonny/heatmap/internal/contracts"
)

// Mode selects which return the heatmap carries
type Mode string

const (
	ModeMoM     Mode = "mom"
	ModeForward Mode = "forward"
)

// ParseMode accepts "mom", "MoM", "month-over-month" and "forward"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mom", "month-over-month":
		return ModeMoM, nil
	case "forward":
		return ModeForward, nil
	}
	return "", &contracts.InvalidConfigurationError{
		Field:   "mode",
		Message: fmt.Sprintf("unknown calculation mode %q (want mom|forward)", s),
	}
}

// Horizon is a forward look-ahead key
type Horizon string

const (
	Horizon1M Horizon = "1M"
	Horizon3M Horizon = "3M"
	Horizon6M Horizon = "6M"
	Horizon1Y Horizon = "1Y"
	Horizon2Y Horizon = "2Y"
	Horizon3Y Horizon = "3Y"
	Horizon4Y Horizon = "4Y"
)

// HorizonSpec is a horizon resolved to a bucket offset and a CAGR year fraction
type HorizonSpec struct {
	Key    Horizon
	Offset int
	Years  float64
}

var horizonSpecs = map[Horizon]HorizonSpec{
	Horizon1M: {Key: Horizon1M, Offset: 1, Years: 1.0 / 12},
	Horizon3M: {Key: Horizon3M, Offset: 3, Years: 3.0 / 12},
	Horizon6M: {Key: Horizon6M, Offset: 6, Years: 6.0 / 12},
	Horizon1Y: {Key: Horizon1Y, Offset: 12, Years: 1},
	Horizon2Y: {Key: Horizon2Y, Offset: 24, Years: 2},
	Horizon3Y: {Key: Horizon3Y, Offset: 36, Years: 3},
	Horizon4Y: {Key: Horizon4Y, Offset: 48, Years: 4},
}

// Horizons lists the supported horizons, shortest first
func Horizons() []Horizon {
	return []Horizon{Horizon1M, Horizon3M, Horizon6M, Horizon1Y, Horizon2Y, Horizon3Y, Horizon4Y}
}

// ParseHorizon resolves a horizon key such as "1Y" (case-insensitive)
func ParseHorizon(s string) (HorizonSpec, error) {
	spec, ok := horizonSpecs[Horizon(strings.ToUpper(strings.TrimSpace(s)))]
	if !ok {
		return HorizonSpec{}, &contracts.InvalidConfigurationError{
			Field:   "horizon",
			Message: fmt.Sprintf("unknown horizon %q (want one of 1M 3M 6M 1Y 2Y 3Y 4Y)", s),
		}
	}
	return spec, nil
}

// MoMReturns computes avg[i]/avg[i-1] - 1 against the previous bucket of the series.
// The first bucket has no predecessor and is dropped, not emitted as null.
func MoMReturns(monthly contracts.MonthlySeries) []contracts.ReturnPoint {
	if len(monthly.Buckets) < 2 {
		return []contracts.ReturnPoint{}
	}

	points := make([]contracts.ReturnPoint, 0, len(monthly.Buckets)-1)
	for i := 1; i < len(monthly.Buckets); i++ {
		cur := monthly.Buckets[i]
		prev := monthly.Buckets[i-1]

		point := contracts.ReturnPoint{Year: cur.Year, Month: cur.Month}
		if positive(cur.AvgValue) && positive(prev.AvgValue) {
			point.Return = contracts.Float(*cur.AvgValue / *prev.AvgValue - 1)
		}
		points = append(points, point)
	}

	return points
}

// ForwardReturns computes (avg[i]/avg[i+k])^(1/y) - 1 for every bucket.
//
// The ratio is current over future, so a rising price yields a negative value.
// This reproduces the reference calculation as-is; the conventional forward
// CAGR would be future over current.
func ForwardReturns(monthly contracts.MonthlySeries, horizon HorizonSpec) []contracts.ReturnPoint {
	points := make([]contracts.ReturnPoint, 0, len(monthly.Buckets))
	for i, cur := range monthly.Buckets {
		point := contracts.ReturnPoint{Year: cur.Year, Month: cur.Month}

		if j := i + horizon.Offset; horizon.Offset > 0 && j < len(monthly.Buckets) {
			future := monthly.Buckets[j]
			if positive(cur.AvgValue) && positive(future.AvgValue) {
				cagr := math.Pow(*cur.AvgValue / *future.AvgValue, 1/horizon.Years) - 1
				if !math.IsNaN(cagr) && !math.IsInf(cagr, 0) {
					point.Return = contracts.Float(cagr)
				}
			}
		}
		points = append(points, point)
	}

	return points
}

func positive(v *float64) bool {
	return v != nil && *v > 0 && !math.IsInf(*v, 0)
}
