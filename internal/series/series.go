package series

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Sentinel errors for series validation and analysis preconditions.
var (
	ErrInsufficientData     = errors.New("insufficient data for requested lookback")
	ErrMalformedSeries      = errors.New("malformed series")
	ErrTimeframeUnavailable = errors.New("higher timeframe series unavailable")
)

// PricePoint is a single OHLCV bar. Immutable once produced by the feed.
type PricePoint struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is an ordered OHLCV series for one symbol and timeframe.
// Timestamps must be strictly ascending; the analyzers treat it as read-only.
type Series struct {
	Symbol    string       `json:"symbol"`
	Timeframe string       `json:"timeframe"`
	Points    []PricePoint `json:"points"`
}

// New creates a series and validates the bar ordering invariant.
func New(symbol, timeframe string, points []PricePoint) (*Series, error) {
	s := &Series{Symbol: symbol, Timeframe: timeframe, Points: points}
	if err := s.Validate(DefaultMaxUndefinedRun); err != nil {
		return nil, err
	}
	return s, nil
}

// DefaultMaxUndefinedRun is the longest run of non-finite closes tolerated
// before the series is rejected as malformed.
const DefaultMaxUndefinedRun = 5

// Len returns the number of bars.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// Last returns the most recent bar.
func (s *Series) Last() (PricePoint, bool) {
	if s.Len() == 0 {
		return PricePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Validate checks the series invariants: strictly ascending unique
// timestamps and no run of non-finite closes longer than maxUndefinedRun.
func (s *Series) Validate(maxUndefinedRun int) error {
	if s == nil {
		return fmt.Errorf("%w: nil series", ErrMalformedSeries)
	}
	run := 0
	for i, p := range s.Points {
		if i > 0 && !p.Time.After(s.Points[i-1].Time) {
			return fmt.Errorf("%w: non-monotonic timestamp at bar %d", ErrMalformedSeries, i)
		}
		if !isFinite(p.Close) || !isFinite(p.High) || !isFinite(p.Low) {
			run++
			if maxUndefinedRun > 0 && run > maxUndefinedRun {
				return fmt.Errorf("%w: %d consecutive undefined bars ending at %d", ErrMalformedSeries, run, i)
			}
		} else {
			run = 0
		}
	}
	return nil
}

// Closes returns the close column. The slice is freshly allocated so
// callers cannot mutate the series through it.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Close
	}
	return out
}

// Highs returns the high column.
func (s *Series) Highs() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.High
	}
	return out
}

// Lows returns the low column.
func (s *Series) Lows() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Low
	}
	return out
}

// Volumes returns the volume column.
func (s *Series) Volumes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Volume
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
