// Package marketdata defines the collaborator interface the engine uses to
// obtain price series, plus a file-backed implementation for offline runs.
// The analysis core never fetches its own primary-timeframe data.
package marketdata

import (
	"context"

	"github.com/schundi365/IndianTradingbot-sub002/internal/series"
)

// SeriesProvider supplies historical OHLCV series. The caller owns
// timeouts and cancellation through ctx; implementations must not retry
// on behalf of the analysis core.
type SeriesProvider interface {
	GetHistoricalSeries(ctx context.Context, symbol, timeframe string, barCount int) (*series.Series, error)
}
