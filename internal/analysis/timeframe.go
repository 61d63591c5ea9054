package analysis

import (
	"errors"
	"fmt"

	"github.com/schundi365/IndianTradingbot-sub002/internal/series"
)

// TimeframeConfig holds the cross-timeframe confirmation parameters. The
// primary-to-higher relationship is supplied by configuration, never
// hard-coded.
type TimeframeConfig struct {
	Relationships      map[string]string `json:"relationships"` // primary timeframe -> higher timeframe
	AlignmentThreshold float64           `json:"alignment_threshold"`
	BarCount           int               `json:"bar_count"` // higher-timeframe bars to request
}

// DefaultTimeframeConfig returns the default timeframe mapping.
func DefaultTimeframeConfig() TimeframeConfig {
	return TimeframeConfig{
		Relationships: map[string]string{
			"5m":  "1h",
			"15m": "4h",
			"1h":  "1d",
			"4h":  "1d",
		},
		AlignmentThreshold: 0.6,
		BarCount:           120,
	}
}

// TimeframeAlignmentAnalyzer recomputes a coarse direction on a higher
// timeframe series, using the momentum and structure analyzers only, and
// scores agreement with the primary timeframe signal.
type TimeframeAlignmentAnalyzer struct {
	cfg       TimeframeConfig
	momentum  *MomentumAnalyzer
	structure *StructureBreakAnalyzer
}

// NewTimeframeAlignmentAnalyzer wires the coarse analyzers used on the
// higher timeframe.
func NewTimeframeAlignmentAnalyzer(cfg TimeframeConfig, momentum *MomentumAnalyzer, structure *StructureBreakAnalyzer) (*TimeframeAlignmentAnalyzer, error) {
	if momentum == nil || structure == nil {
		return nil, fmt.Errorf("timeframe: momentum and structure analyzers are required")
	}
	if cfg.AlignmentThreshold <= 0 || cfg.AlignmentThreshold > 1 {
		cfg.AlignmentThreshold = 0.6
	}
	if cfg.BarCount <= 0 {
		cfg.BarCount = 120
	}
	return &TimeframeAlignmentAnalyzer{cfg: cfg, momentum: momentum, structure: structure}, nil
}

// HigherTimeframe resolves the configured higher timeframe for a primary
// one; ok is false when no relationship is configured.
func (ta *TimeframeAlignmentAnalyzer) HigherTimeframe(primary string) (string, bool) {
	higher, ok := ta.cfg.Relationships[primary]
	return higher, ok
}

// BarCount returns how many higher-timeframe bars the analyzer wants.
func (ta *TimeframeAlignmentAnalyzer) BarCount() int { return ta.cfg.BarCount }

// AnalyzeDirection derives a coarse direction for a series from momentum
// and structure only. Analyzer errors degrade to neutral rather than
// propagating.
func (ta *TimeframeAlignmentAnalyzer) AnalyzeDirection(s *series.Series) Direction {
	momentumDir := DirectionNeutral
	if sig, err := ta.momentum.ClassifySignal(s); err == nil && sig != nil {
		momentumDir = sig.Direction
	} else if err != nil && !errors.Is(err, series.ErrInsufficientData) {
		return DirectionNeutral
	}

	structureDir := DirectionNeutral
	if sig, err := ta.structure.DetectStructureBreak(s); err == nil && sig != nil {
		structureDir = sig.Direction
	}

	if momentumDir == DirectionNeutral {
		return structureDir
	}
	if structureDir != DirectionNeutral && structureDir != momentumDir {
		// Conflicting reads on the higher timeframe give no usable bias.
		return DirectionNeutral
	}
	return momentumDir
}

// ComputeAlignment scores agreement between directions: matching
// non-neutral directions score 1.0, partial/neutral mismatches grade down,
// and opposite directions score near zero.
func (ta *TimeframeAlignmentAnalyzer) ComputeAlignment(primary, higher Direction) float64 {
	switch {
	case primary != DirectionNeutral && primary == higher:
		return 1.0
	case primary == DirectionNeutral && higher == DirectionNeutral:
		return 0.6
	case primary == DirectionNeutral || higher == DirectionNeutral:
		return 0.5
	default: // opposite non-neutral directions
		return 0.1
	}
}

// ConfirmationLevelFor buckets an alignment score.
func ConfirmationLevelFor(score float64) ConfirmationLevel {
	switch {
	case score >= 0.8:
		return ConfirmationStrong
	case score >= 0.6:
		return ConfirmationModerate
	case score >= 0.4:
		return ConfirmationWeak
	default:
		return ConfirmationContradictory
	}
}

// Align computes the full alignment record for a primary direction against
// an externally supplied higher-timeframe series.
func (ta *TimeframeAlignmentAnalyzer) Align(primaryDirection Direction, primaryTimeframe string, higher *series.Series) *TimeframeAlignment {
	higherDirection := ta.AnalyzeDirection(higher)
	score := ta.ComputeAlignment(primaryDirection, higherDirection)
	return &TimeframeAlignment{
		PrimaryTimeframe: primaryTimeframe,
		HigherTimeframe:  higher.Timeframe,
		PrimaryDirection: primaryDirection,
		HigherDirection:  higherDirection,
		Score:            score,
		Level:            ConfirmationLevelFor(score),
	}
}

// Unavailable builds the degraded alignment used when the higher timeframe
// series cannot be fetched. Treated as neutral, never contradictory.
func (ta *TimeframeAlignmentAnalyzer) Unavailable(primaryDirection Direction, primaryTimeframe, higherTimeframe string) *TimeframeAlignment {
	return &TimeframeAlignment{
		PrimaryTimeframe: primaryTimeframe,
		HigherTimeframe:  higherTimeframe,
		PrimaryDirection: primaryDirection,
		HigherDirection:  DirectionNeutral,
		Score:            0.5,
		Level:            ConfirmationUnavailable,
	}
}

// ShouldConfirmSignal reports whether the alignment confirms the proposed
// direction: the score must reach the configured threshold and the higher
// timeframe must not read the opposite direction.
func (ta *TimeframeAlignmentAnalyzer) ShouldConfirmSignal(alignment *TimeframeAlignment, proposedDirection Direction) bool {
	if alignment == nil {
		return false
	}
	if alignment.Score < ta.cfg.AlignmentThreshold {
		return false
	}
	if proposedDirection != DirectionNeutral && alignment.HigherDirection == proposedDirection.Opposite() {
		return false
	}
	return true
}
