package domain

import "github.com/shopspring/decimal"

// HistorySample is an immutable price/supply snapshot for one asset.
// Samples are append-only and ordered by timestamp.
type HistorySample struct {
	Time   int64 // unix seconds
	Asset  string
	Price  decimal.Decimal // unrounded fee-free exchange rate at sample time
	Supply decimal.Decimal // that asset's pool balance at sample time
}

// SeriesPoint is one plot-ready point: the price of the leading asset plus
// both supplies at the same instant.
type SeriesPoint struct {
	Time    int64
	Price   decimal.Decimal
	SupplyA decimal.Decimal // leading (price-bearing) asset's supply
	SupplyB decimal.Decimal // paired asset's supply
}

// Resample projects raw points onto a fixed-interval grid. Gaps larger than
// interval are filled by repeating the previous point (flat interpolation),
// and each real point after the first lands on the next grid step, so the
// result is evenly spaced.
func Resample(points []SeriesPoint, interval int64) []SeriesPoint {
	if interval <= 0 || len(points) == 0 {
		return points
	}

	out := make([]SeriesPoint, 0, len(points))
	for _, p := range points {
		if len(out) == 0 {
			out = append(out, p)
			continue
		}

		for p.Time-out[len(out)-1].Time > interval {
			prev := out[len(out)-1]
			out = append(out, SeriesPoint{
				Time:    prev.Time + interval,
				Price:   prev.Price,
				SupplyA: prev.SupplyA,
				SupplyB: prev.SupplyB,
			})
		}

		out = append(out, SeriesPoint{
			Time:    out[len(out)-1].Time + interval,
			Price:   p.Price,
			SupplyA: p.SupplyA,
			SupplyB: p.SupplyB,
		})
	}
	return out
}
