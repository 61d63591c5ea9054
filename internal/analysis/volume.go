package analysis

import (
	"github.com/schundi365/IndianTradingbot-sub002/internal/indicators"
	"github.com/schundi365/IndianTradingbot-sub002/internal/series"
)

// VolumeContext summarizes the latest bar's volume against its rolling
// average. Used to confirm breaks and breaches, not exposed as a signal
// source of its own.
type VolumeContext struct {
	CurrentVolume  float64 `json:"current_volume"`
	AverageVolume  float64 `json:"average_volume"`
	VolumeRatio    float64 `json:"volume_ratio"` // current / average
	IsHighVolume   bool    `json:"is_high_volume"`
	IsClimaxVolume bool    `json:"is_climax_volume"`
}

// NewVolumeContext builds the volume summary over the last avgPeriod bars.
func NewVolumeContext(s *series.Series, avgPeriod int) VolumeContext {
	ctx := VolumeContext{}
	last, ok := s.Last()
	if !ok {
		return ctx
	}

	ctx.CurrentVolume = last.Volume
	ctx.AverageVolume = indicators.AverageVolume(s, avgPeriod)
	if ctx.AverageVolume > 0 {
		ctx.VolumeRatio = ctx.CurrentVolume / ctx.AverageVolume
	}
	ctx.IsHighVolume = ctx.VolumeRatio > 2.0
	ctx.IsClimaxVolume = ctx.VolumeRatio > 3.0
	return ctx
}
