package analysis

import (
	"time"

	"github.com/schundi365/IndianTradingbot-sub002/internal/series"
)

// Direction represents the directional read of a signal.
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
	DirectionNeutral Direction = "neutral"
)

// Opposite returns the opposing direction; neutral has none.
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionBullish:
		return DirectionBearish
	case DirectionBearish:
		return DirectionBullish
	default:
		return DirectionNeutral
	}
}

// SignalKind tags the analyzer family that produced a signal.
type SignalKind string

const (
	KindMomentum       SignalKind = "momentum"
	KindRangeDirection SignalKind = "range_direction"
	KindStructureBreak SignalKind = "structure_break"
	KindDivergence     SignalKind = "divergence"
)

// BreakKind classifies a structure break.
type BreakKind string

const (
	BreakHigherHigh      BreakKind = "higher_high"
	BreakLowerLow        BreakKind = "lower_low"
	BreakSupportBreak    BreakKind = "support_break"
	BreakResistanceBreak BreakKind = "resistance_break"
)

// OscillatorKind selects the oscillator family for divergence detection.
type OscillatorKind string

const (
	OscillatorRSI        OscillatorKind = "rsi"
	OscillatorStochastic OscillatorKind = "stochastic"
)

// MomentumDetail carries the momentum-specific signal payload.
type MomentumDetail struct {
	Crossover          bool    `json:"crossover"`
	CrossoverConfirmed bool    `json:"crossover_confirmed"`
	Consolidation      bool    `json:"consolidation"`
	Separation         float64 `json:"separation"` // fast vs slow average gap, percent
	FastSlope          float64 `json:"fast_slope"`
	SlowSlope          float64 `json:"slow_slope"`
}

// RangeDirectionDetail carries the oscillator line values behind a
// range/direction signal.
type RangeDirectionDetail struct {
	UpLine        float64 `json:"up_line"`
	DownLine      float64 `json:"down_line"`
	Consolidation bool    `json:"consolidation"`
}

// StructureBreakDetail carries the break classification payload.
type StructureBreakDetail struct {
	Kind            BreakKind `json:"kind"`
	Level           float64   `json:"level"`
	Magnitude       float64   `json:"magnitude"` // percent beyond the level
	VolumeConfirmed bool      `json:"volume_confirmed"`
	MarketPhase     string    `json:"market_phase"`
}

// DivergenceDetail carries the divergence payload.
type DivergenceDetail struct {
	Oscillator      OscillatorKind `json:"oscillator"`
	PriceSwingFrom  float64        `json:"price_swing_from"`
	PriceSwingTo    float64        `json:"price_swing_to"`
	OscSwingFrom    float64        `json:"osc_swing_from"`
	OscSwingTo      float64        `json:"osc_swing_to"`
	Validated       bool           `json:"validated"`
	ConfirmingBars  int            `json:"confirming_bars"`
	SwingCount      int            `json:"swing_count"`
}

// Signal is the tagged union produced by the signal sources. Exactly one
// detail pointer is set, matching Kind.
type Signal struct {
	Kind       SignalKind `json:"kind"`
	Source     string     `json:"source"`
	Direction  Direction  `json:"direction"`
	Strength   float64    `json:"strength"`   // 0.0 to 1.0
	Confidence float64    `json:"confidence"` // 0.0 to 1.0
	Factors    []string   `json:"factors,omitempty"`
	Time       time.Time  `json:"time"`

	Momentum   *MomentumDetail       `json:"momentum,omitempty"`
	RangeDir   *RangeDirectionDetail `json:"range_direction,omitempty"`
	Structure  *StructureBreakDetail `json:"structure,omitempty"`
	Divergence *DivergenceDetail     `json:"divergence,omitempty"`
}

// SignalSource is the capability interface every analyzer implements.
// Produce returns nil when the series holds no actionable signal.
type SignalSource interface {
	Name() string
	Produce(s *series.Series) (*Signal, error)
}

// ConfirmationLevel buckets a continuous cross-timeframe alignment score.
type ConfirmationLevel string

const (
	ConfirmationStrong        ConfirmationLevel = "strong"
	ConfirmationModerate      ConfirmationLevel = "moderate"
	ConfirmationWeak          ConfirmationLevel = "weak"
	ConfirmationContradictory ConfirmationLevel = "contradictory"
	ConfirmationUnavailable   ConfirmationLevel = "unavailable"
)

// TimeframeAlignment scores agreement between the primary timeframe signal
// and a higher timeframe read of the same symbol.
type TimeframeAlignment struct {
	PrimaryTimeframe string            `json:"primary_timeframe"`
	HigherTimeframe  string            `json:"higher_timeframe"`
	PrimaryDirection Direction         `json:"primary_direction"`
	HigherDirection  Direction         `json:"higher_direction"`
	Score            float64           `json:"score"` // 0.0 to 1.0
	Level            ConfirmationLevel `json:"level"`
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
