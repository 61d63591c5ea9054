package analysis

import (
	"fmt"

	"github.com/schundi365/IndianTradingbot-sub002/internal/series"
)

// RangeDirectionConfig holds the oscillator parameters.
type RangeDirectionConfig struct {
	Period int `json:"period"` // rolling window, in bars
}

// DefaultRangeDirectionConfig returns the default oscillator parameters.
func DefaultRangeDirectionConfig() RangeDirectionConfig {
	return RangeDirectionConfig{Period: 25}
}

// RangeDirectionAnalyzer measures how recently price printed its rolling
// extremes. Two lines in [0,100]: the up line tracks bars since the window
// high, the down line bars since the window low. Fresh extremes push the
// matching line toward 100; both lines below 50 mean the range is stale in
// both directions, i.e. consolidation.
type RangeDirectionAnalyzer struct {
	cfg RangeDirectionConfig
}

// NewRangeDirectionAnalyzer creates the analyzer, rejecting invalid periods.
func NewRangeDirectionAnalyzer(cfg RangeDirectionConfig) (*RangeDirectionAnalyzer, error) {
	if cfg.Period <= 0 {
		return nil, fmt.Errorf("range direction: period must be positive, got %d", cfg.Period)
	}
	return &RangeDirectionAnalyzer{cfg: cfg}, nil
}

// Name implements SignalSource.
func (ra *RangeDirectionAnalyzer) Name() string { return string(KindRangeDirection) }

// Calculate derives the up and down lines for every bar over a rolling
// window of period bars.
func (ra *RangeDirectionAnalyzer) Calculate(s *series.Series, period int) (up, down series.IndicatorSeries, err error) {
	if period <= 0 {
		return up, down, fmt.Errorf("range direction: period must be positive, got %d", period)
	}
	n := s.Len()
	if n < period+1 {
		return up, down, fmt.Errorf("%w: range direction needs %d bars, have %d", series.ErrInsufficientData, period+1, n)
	}

	up = series.NewIndicatorSeries(n, period)
	down = series.NewIndicatorSeries(n, period)

	for i := period; i < n; i++ {
		highIdx, lowIdx := i-period, i-period
		for j := i - period; j <= i; j++ {
			if s.Points[j].High >= s.Points[highIdx].High {
				highIdx = j
			}
			if s.Points[j].Low <= s.Points[lowIdx].Low {
				lowIdx = j
			}
		}
		up.Values[i] = float64(period-(i-highIdx)) / float64(period) * 100
		down.Values[i] = float64(period-(i-lowIdx)) / float64(period) * 100
	}
	return up, down, nil
}

// Produce implements SignalSource.
func (ra *RangeDirectionAnalyzer) Produce(s *series.Series) (*Signal, error) {
	return ra.ClassifySignal(s)
}

// ClassifySignal reads the latest line crossover. Up crossing over down is
// bullish, the reverse bearish; both lines under 50 is an explicit
// consolidation classification.
func (ra *RangeDirectionAnalyzer) ClassifySignal(s *series.Series) (*Signal, error) {
	up, down, err := ra.Calculate(s, ra.cfg.Period)
	if err != nil {
		return nil, err
	}

	last := s.Len() - 1
	upVal, okU := up.At(last)
	downVal, okD := down.At(last)
	if !okU || !okD {
		return nil, fmt.Errorf("%w: oscillator undefined at latest bar", series.ErrInsufficientData)
	}

	lastBar, _ := s.Last()
	detail := &RangeDirectionDetail{UpLine: upVal, DownLine: downVal}

	if upVal < 50 && downVal < 50 {
		detail.Consolidation = true
		strength := clamp01((50 - upVal + 50 - downVal) / 100 * 0.5)
		return &Signal{
			Kind:       KindRangeDirection,
			Source:     ra.Name(),
			Direction:  DirectionNeutral,
			Strength:   strength,
			Confidence: strength * 0.8,
			Factors:    []string{"both lines below 50, no fresh extremes"},
			Time:       lastBar.Time,
			RangeDir:   detail,
		}, nil
	}

	direction := DirectionNeutral
	var dominant float64
	var factors []string
	if upVal > downVal {
		direction = DirectionBullish
		dominant = upVal
		factors = append(factors, "up line dominant")
	} else if downVal > upVal {
		direction = DirectionBearish
		dominant = downVal
		factors = append(factors, "down line dominant")
	}

	if direction == DirectionNeutral {
		return &Signal{
			Kind:       KindRangeDirection,
			Source:     ra.Name(),
			Direction:  DirectionNeutral,
			Strength:   0.2,
			Confidence: 0.2,
			Factors:    []string{"lines tied"},
			Time:       lastBar.Time,
			RangeDir:   detail,
		}, nil
	}

	// Strength scales with the gap between the lines and how close the
	// dominant line sits to its extreme.
	gap := (dominant - min64(upVal, downVal)) / 100
	extremity := dominant / 100
	strength := clamp01(0.5*gap + 0.5*extremity)

	confidence := strength
	if crossedRecently(up, down, last, 3, direction) {
		factors = append(factors, "recent line crossover")
		confidence = clamp01(confidence + 0.1)
	}

	return &Signal{
		Kind:       KindRangeDirection,
		Source:     ra.Name(),
		Direction:  direction,
		Strength:   strength,
		Confidence: confidence,
		Factors:    factors,
		Time:       lastBar.Time,
		RangeDir:   detail,
	}, nil
}

// crossedRecently reports whether the dominant line overtook the other
// within the last window bars.
func crossedRecently(up, down series.IndicatorSeries, last, window int, dir Direction) bool {
	for i := last; i > last-window && i > 0; i-- {
		uc, okU := up.At(i)
		dc, okD := down.At(i)
		up1, okU1 := up.At(i - 1)
		dn1, okD1 := down.At(i - 1)
		if !okU || !okD || !okU1 || !okD1 {
			return false
		}
		if dir == DirectionBullish && up1 <= dn1 && uc > dc {
			return true
		}
		if dir == DirectionBearish && dn1 <= up1 && dc > uc {
			return true
		}
	}
	return false
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
