package analysis

import (
	"fmt"
	"math"

	"github.com/schundi365/IndianTradingbot-sub002/internal/indicators"
	"github.com/schundi365/IndianTradingbot-sub002/internal/series"
)

// MomentumConfig holds the moving-average crossover parameters.
type MomentumConfig struct {
	FastPeriod          int     `json:"fast_period"`
	SlowPeriod          int     `json:"slow_period"`
	SlopeWindow         int     `json:"slope_window"`         // bars for slope and consistency checks
	SeparationThreshold float64 `json:"separation_threshold"` // percent gap marking a sustained trend
	ConfirmationBars    int     `json:"confirmation_bars"`    // anti-whipsaw bars after a crossover
	BreachThreshold     float64 `json:"breach_threshold"`     // percent beyond a level to count as a breach
	VolumeAvgPeriod     int     `json:"volume_avg_period"`
	VolumeRatio         float64 `json:"volume_ratio"`     // multiple of average volume that boosts confidence
	RetestTolerance     float64 `json:"retest_tolerance"` // percent band around a broken level
}

// DefaultMomentumConfig returns the default crossover parameters.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		FastPeriod:          9,
		SlowPeriod:          21,
		SlopeWindow:         5,
		SeparationThreshold: 0.5,
		ConfirmationBars:    3,
		BreachThreshold:     0.3,
		VolumeAvgPeriod:     20,
		VolumeRatio:         2.0,
		RetestTolerance:     0.3,
	}
}

// MomentumAnalyzer detects fast/slow moving-average crossovers and
// slope-based momentum strength.
type MomentumAnalyzer struct {
	cfg MomentumConfig
}

// NewMomentumAnalyzer creates a momentum analyzer, rejecting invalid periods.
func NewMomentumAnalyzer(cfg MomentumConfig) (*MomentumAnalyzer, error) {
	if cfg.FastPeriod <= 0 || cfg.SlowPeriod <= 0 {
		return nil, fmt.Errorf("momentum: periods must be positive, got fast=%d slow=%d", cfg.FastPeriod, cfg.SlowPeriod)
	}
	if cfg.FastPeriod >= cfg.SlowPeriod {
		return nil, fmt.Errorf("momentum: fast period %d must be below slow period %d", cfg.FastPeriod, cfg.SlowPeriod)
	}
	if cfg.SlopeWindow < 2 {
		cfg.SlopeWindow = 5
	}
	if cfg.ConfirmationBars <= 0 {
		cfg.ConfirmationBars = 3
	}
	return &MomentumAnalyzer{cfg: cfg}, nil
}

// Name implements SignalSource.
func (ma *MomentumAnalyzer) Name() string { return string(KindMomentum) }

// MomentumIndicators holds the derived series used for classification,
// aligned to the price series by index.
type MomentumIndicators struct {
	Fast       series.IndicatorSeries
	Slow       series.IndicatorSeries
	Separation series.IndicatorSeries // (fast-slow)/slow, percent
}

// ComputeIndicators derives the fast/slow averages and their percentage
// separation. Requires at least twice the slow period of history.
func (ma *MomentumAnalyzer) ComputeIndicators(s *series.Series) (*MomentumIndicators, error) {
	required := 2 * ma.cfg.SlowPeriod
	if ma.cfg.FastPeriod > ma.cfg.SlowPeriod {
		required = 2 * ma.cfg.FastPeriod
	}
	if s.Len() < required {
		return nil, fmt.Errorf("%w: momentum needs %d bars, have %d", series.ErrInsufficientData, required, s.Len())
	}

	closes := s.Closes()
	fast := indicators.EMASeries(closes, ma.cfg.FastPeriod)
	slow := indicators.EMASeries(closes, ma.cfg.SlowPeriod)

	sep := series.NewIndicatorSeries(len(closes), slow.FirstValid)
	for i := range closes {
		f, okF := fast.At(i)
		sl, okS := slow.At(i)
		if !okF || !okS || sl == 0 {
			sep.Values[i] = math.NaN()
			continue
		}
		sep.Values[i] = (f - sl) / sl * 100
	}

	return &MomentumIndicators{Fast: fast, Slow: slow, Separation: sep}, nil
}

// Produce implements SignalSource.
func (ma *MomentumAnalyzer) Produce(s *series.Series) (*Signal, error) {
	return ma.ClassifySignal(s)
}

// ClassifySignal distinguishes crossover, sustained trend, and
// consolidation states and scores momentum strength.
func (ma *MomentumAnalyzer) ClassifySignal(s *series.Series) (*Signal, error) {
	ind, err := ma.ComputeIndicators(s)
	if err != nil {
		return nil, err
	}

	last := s.Len() - 1
	sep, ok := ind.Separation.At(last)
	if !ok {
		return nil, fmt.Errorf("%w: separation undefined at latest bar", series.ErrInsufficientData)
	}

	crossIdx, crossDir := ma.lastCrossover(ind)
	recent := crossIdx >= 0 && last-crossIdx <= ma.cfg.SlopeWindow+ma.cfg.ConfirmationBars
	confirmed := ma.crossoverConfirmed(ind, crossIdx, crossDir)

	lastBar, _ := s.Last()

	detail := &MomentumDetail{
		Crossover:          recent,
		CrossoverConfirmed: confirmed,
		Separation:         sep,
	}
	if fs, okS := indicators.SlopeAt(ind.Fast, last, ma.cfg.SlopeWindow); okS {
		detail.FastSlope = fs
	}
	if ss, okS := indicators.SlopeAt(ind.Slow, last, ma.cfg.SlopeWindow); okS {
		detail.SlowSlope = ss
	}

	// Consolidation: no fresh crossover and the averages are pinched.
	if !recent && math.Abs(sep) < ma.cfg.SeparationThreshold {
		strength := clamp01(math.Abs(sep)/ma.cfg.SeparationThreshold) * 0.3
		detail.Consolidation = true
		return &Signal{
			Kind:       KindMomentum,
			Source:     ma.Name(),
			Direction:  DirectionNeutral,
			Strength:   strength,
			Confidence: strength * 0.8,
			Factors:    []string{"averages pinched below separation threshold"},
			Time:       lastBar.Time,
			Momentum:   detail,
		}, nil
	}

	direction := DirectionBullish
	if sep < 0 {
		direction = DirectionBearish
	}
	if recent {
		direction = crossDir
	}

	strength, factors := ma.scoreStrength(s, ind, direction, sep)
	if recent {
		factors = append(factors, "fresh crossover")
	} else {
		factors = append(factors, "sustained separation")
	}
	if confirmed {
		factors = append(factors, "crossover held through confirmation window")
	}

	confidence := strength
	if recent && !confirmed {
		confidence *= 0.7
	}

	return &Signal{
		Kind:       KindMomentum,
		Source:     ma.Name(),
		Direction:  direction,
		Strength:   strength,
		Confidence: clamp01(confidence),
		Factors:    factors,
		Time:       lastBar.Time,
		Momentum:   detail,
	}, nil
}

// lastCrossover finds the most recent index where the fast average moved
// from one side of the slow average to the other.
func (ma *MomentumAnalyzer) lastCrossover(ind *MomentumIndicators) (int, Direction) {
	for i := ind.Separation.Len() - 1; i > ind.Separation.FirstValid; i-- {
		cur, okC := ind.Separation.At(i)
		prev, okP := ind.Separation.At(i - 1)
		if !okC || !okP {
			continue
		}
		if prev <= 0 && cur > 0 {
			return i, DirectionBullish
		}
		if prev >= 0 && cur < 0 {
			return i, DirectionBearish
		}
	}
	return -1, DirectionNeutral
}

// crossoverConfirmed reports whether the fast average stayed on the new
// side of the slow average for the confirmation window after the cross.
func (ma *MomentumAnalyzer) crossoverConfirmed(ind *MomentumIndicators, crossIdx int, dir Direction) bool {
	if crossIdx < 0 || dir == DirectionNeutral {
		return false
	}
	end := crossIdx + ma.cfg.ConfirmationBars
	if end >= ind.Separation.Len() {
		return false
	}
	for i := crossIdx + 1; i <= end; i++ {
		sep, ok := ind.Separation.At(i)
		if !ok {
			return false
		}
		if dir == DirectionBullish && sep <= 0 {
			return false
		}
		if dir == DirectionBearish && sep >= 0 {
			return false
		}
	}
	return true
}

// scoreStrength combines separation magnitude, slope alignment, slope
// magnitude with an acceleration bonus, slope consistency, and a
// direction-confirmation bonus into a single 0..1 strength.
func (ma *MomentumAnalyzer) scoreStrength(s *series.Series, ind *MomentumIndicators, direction Direction, sep float64) (float64, []string) {
	last := s.Len() - 1
	var factors []string

	sign := 1.0
	if direction == DirectionBearish {
		sign = -1.0
	}

	// Separation magnitude, saturating at 3x the sustained-trend threshold.
	sepScore := clamp01(math.Abs(sep) / (ma.cfg.SeparationThreshold * 3))
	if sepScore > 0.5 {
		factors = append(factors, fmt.Sprintf("average separation %.2f%%", sep))
	}

	fastSlope, okFast := indicators.SlopeAt(ind.Fast, last, ma.cfg.SlopeWindow)
	slowSlope, okSlow := indicators.SlopeAt(ind.Slow, last, ma.cfg.SlopeWindow)

	alignScore := 0.0
	if okFast && fastSlope*sign > 0 {
		alignScore = 0.6
		if okSlow && slowSlope*sign > 0 {
			alignScore = 1.0
			factors = append(factors, "both average slopes aligned")
		}
	}

	// Slope magnitude normalized by price, with an acceleration bonus when
	// the recent window is steeper than the one before it.
	magScore := 0.0
	lastBar, _ := s.Last()
	if okFast && lastBar.Close > 0 {
		slopePct := fastSlope / lastBar.Close * 100
		magScore = clamp01(math.Abs(slopePct) / 0.5)
		prevSlope, okPrev := indicators.SlopeAt(ind.Fast, last-ma.cfg.SlopeWindow, ma.cfg.SlopeWindow)
		if okPrev && fastSlope*sign > prevSlope*sign {
			magScore = clamp01(magScore + 0.25)
			factors = append(factors, "momentum accelerating")
		}
	}

	// Fraction of recent bars where the fast average moved with the trend.
	consistent := 0
	checked := 0
	for i := last - ma.cfg.SlopeWindow + 1; i <= last; i++ {
		cur, okC := ind.Fast.At(i)
		prev, okP := ind.Fast.At(i - 1)
		if !okC || !okP {
			continue
		}
		checked++
		if (cur-prev)*sign > 0 {
			consistent++
		}
	}
	consistencyScore := 0.0
	if checked > 0 {
		consistencyScore = float64(consistent) / float64(checked)
	}

	// Close on the trend side of the fast average confirms direction.
	dirBonus := 0.0
	if fv, ok := ind.Fast.At(last); ok && (lastBar.Close-fv)*sign > 0 {
		dirBonus = 1.0
	}

	strength := 0.25*sepScore + 0.25*alignScore + 0.25*magScore + 0.15*consistencyScore + 0.10*dirBonus
	return clamp01(strength), factors
}

// BreachEvent reports price crossing a dynamic support/resistance level.
type BreachEvent struct {
	Level       float64   `json:"level"`
	Direction   Direction `json:"direction"`
	Magnitude   float64   `json:"magnitude"` // percent beyond the level
	Confidence  float64   `json:"confidence"`
	VolumeRatio float64   `json:"volume_ratio"`
	Retest      bool      `json:"retest"`
	Index       int       `json:"index"`
}

// DetectBreach checks the latest close against a dynamic level (typically
// the fast or slow average). volumeRatio is the multiple of average volume
// required for the confidence boost. prior, when non-nil, is the previous
// breach for this level family; price returning within the retest tolerance
// of that level is reported as a retest.
func (ma *MomentumAnalyzer) DetectBreach(s *series.Series, level, volumeRatio float64, prior *BreachEvent) (*BreachEvent, error) {
	if level <= 0 {
		return nil, fmt.Errorf("momentum: breach level must be positive, got %f", level)
	}
	last, ok := s.Last()
	if !ok {
		return nil, fmt.Errorf("%w: empty series", series.ErrInsufficientData)
	}

	// Retest of a previously broken level takes priority over a fresh breach.
	if prior != nil && prior.Level > 0 {
		dist := math.Abs(last.Close-prior.Level) / prior.Level * 100
		if dist <= ma.cfg.RetestTolerance {
			return &BreachEvent{
				Level:       prior.Level,
				Direction:   prior.Direction,
				Magnitude:   dist,
				Confidence:  clamp01(prior.Confidence * 0.9),
				VolumeRatio: indicators.VolumeRatio(s, ma.cfg.VolumeAvgPeriod),
				Retest:      true,
				Index:       s.Len() - 1,
			}, nil
		}
	}

	magnitude := (last.Close - level) / level * 100
	if math.Abs(magnitude) < ma.cfg.BreachThreshold {
		return nil, nil
	}

	direction := DirectionBullish
	if magnitude < 0 {
		direction = DirectionBearish
	}

	curRatio := indicators.VolumeRatio(s, ma.cfg.VolumeAvgPeriod)
	confidence := 0.5 + 0.3*clamp01(math.Abs(magnitude)/(ma.cfg.BreachThreshold*2))
	if volumeRatio > 0 && curRatio >= volumeRatio {
		confidence += 0.2
	}

	return &BreachEvent{
		Level:       level,
		Direction:   direction,
		Magnitude:   math.Abs(magnitude),
		Confidence:  clamp01(confidence),
		VolumeRatio: curRatio,
		Index:       s.Len() - 1,
	}, nil
}
