package strategy

import (
	"fmt"

	"SellBreakout/internal/calculator"
	"SellBreakout/internal/model"
)

// DefaultSellBodyThreshold is the minimum body/range ratio of a sell candle.
const DefaultSellBodyThreshold = 0.55

// Config tunes breakout detection.
type Config struct {
	SellBodyThreshold float64
}

// DefaultConfig returns the detection defaults.
func DefaultConfig() Config {
	return Config{SellBodyThreshold: DefaultSellBodyThreshold}
}

// Validate checks that the threshold lies in [0,1].
func (c Config) Validate() error {
	if !(c.SellBodyThreshold >= 0 && c.SellBodyThreshold <= 1) {
		return fmt.Errorf("sell body threshold must be in [0,1], got %v", c.SellBodyThreshold)
	}
	return nil
}

// Step is the detector's view of one bar.
// TrackedHigh is the watermark carried out of the bar and is only meaningful
// when Tracking is true.
type Step struct {
	SellCandle  bool
	Breakout    bool
	TrackedHigh float64
	Tracking    bool
}

// scan carries the watermark: the high of the most recent unbroken sell
// candle. The watermark is overwritten by every new sell candle rather than
// raised to the maximum, and it is consumed by the breakout that clears it.
// valid is false before the first bar, so bar 0 never breaks out.
type scan struct {
	cfg   Config
	high  float64
	valid bool
}

func (s *scan) next(b model.OHLCV) Step {
	sell := calculator.IsSellCandle(b, s.cfg.SellBodyThreshold)
	step := Step{SellCandle: sell}

	switch {
	case s.valid && b.Close > s.high && !sell:
		step.Breakout = true
		s.high, s.valid = 0, false
	case sell:
		s.high, s.valid = b.High, true
	}

	step.TrackedHigh = s.high
	step.Tracking = s.valid
	return step
}

// Trace scans bars once and returns one Step per bar.
func Trace(bars []model.OHLCV, cfg Config) []Step {
	steps := make([]Step, len(bars))
	sc := scan{cfg: cfg}
	for i, b := range bars {
		steps[i] = sc.next(b)
	}
	return steps
}

// Detect returns one breakout flag per bar, aligned with bars.
func Detect(bars []model.OHLCV, cfg Config) []bool {
	flags := make([]bool, len(bars))
	sc := scan{cfg: cfg}
	for i, b := range bars {
		flags[i] = sc.next(b).Breakout
	}
	return flags
}

// Latest reports whether the last bar of the series is a breakout.
func Latest(bars []model.OHLCV, cfg Config) bool {
	if len(bars) == 0 {
		return false
	}
	sc := scan{cfg: cfg}
	var last Step
	for _, b := range bars {
		last = sc.next(b)
	}
	return last.Breakout
}
