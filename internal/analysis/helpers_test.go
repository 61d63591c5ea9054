package analysis

import (
	"testing"
	"time"

	"github.com/schundi365/IndianTradingbot-sub002/internal/series"
)

// candleSeries builds a series from closes, deriving highs and lows with a
// fixed band and a flat volume column.
func candleSeries(t *testing.T, closes []float64) *series.Series {
	t.Helper()
	return customSeries(t, closes, nil, nil, nil)
}

// customSeries builds a series from closes with optional per-bar high, low,
// and volume overrides (nil entries in the maps fall back to the defaults).
func customSeries(t *testing.T, closes []float64, highs, lows, volumes map[int]float64) *series.Series {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]series.PricePoint, len(closes))
	for i, c := range closes {
		high := c + 0.5
		low := c - 0.5
		vol := 1000.0
		if v, ok := highs[i]; ok {
			high = v
		}
		if v, ok := lows[i]; ok {
			low = v
		}
		if v, ok := volumes[i]; ok {
			vol = v
		}
		points[i] = series.PricePoint{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   c,
			High:   high,
			Low:    low,
			Close:  c,
			Volume: vol,
		}
	}
	s, err := series.New("BTCUSDT", "1h", points)
	if err != nil {
		t.Fatalf("Failed to build series: %v", err)
	}
	return s
}

// trendCloses produces n closes starting at start and moving step per bar.
func trendCloses(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}
