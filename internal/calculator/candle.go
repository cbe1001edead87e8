package calculator

import (
	"math"

	"SellBreakout/internal/model"
)

// Range returns high - low of the bar.
func Range(bar model.OHLCV) float64 {
	return bar.High - bar.Low
}

// BodyRatio returns the share of the bar's range occupied by its real body.
// A zero-range bar has a ratio of 0.
func BodyRatio(bar model.OHLCV) float64 {
	rng := Range(bar)
	if rng == 0 {
		return 0
	}
	return math.Abs(bar.Open-bar.Close) / rng
}

// IsSellCandle reports whether the bar closed below its open with a body of
// at least threshold of its range. NaN in any field yields false.
func IsSellCandle(bar model.OHLCV, threshold float64) bool {
	return bar.Close < bar.Open && BodyRatio(bar) >= threshold
}
