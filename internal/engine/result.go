package engine

import (
	"time"

	"github.com/schundi365/IndianTradingbot-sub002/internal/analysis"
)

// EarlyWarning is a high-confidence-but-not-yet-actionable observation:
// a signal that cleared the warning floor but not the per-source minimum.
type EarlyWarning struct {
	Source     string             `json:"source"`
	Direction  analysis.Direction `json:"direction"`
	Confidence float64            `json:"confidence"`
	Note       string             `json:"note"`
}

// TrendAnalysisResult is the aggregate produced by one Analyze call. It is
// created fresh every cycle; a degraded cycle still yields a valid result
// with near-neutral confidence and possibly no signals.
type TrendAnalysisResult struct {
	Symbol            string                       `json:"symbol"`
	Timeframe         string                       `json:"timeframe"`
	Time              time.Time                    `json:"time"`
	Direction         analysis.Direction           `json:"direction"`
	OverallConfidence float64                      `json:"overall_confidence"`
	Signals           []analysis.Signal            `json:"signals"`
	StructureBreak    *analysis.Signal             `json:"structure_break,omitempty"`
	Alignment         *analysis.TimeframeAlignment `json:"alignment,omitempty"`
	EarlyWarnings     []EarlyWarning               `json:"early_warnings,omitempty"`
	DegradedSources   []string                     `json:"degraded_sources,omitempty"`
}
