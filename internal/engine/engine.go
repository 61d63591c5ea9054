// Package engine composes the leaf analyzers into a single deterministic
// trend decision with a weighted confidence score, circuit-breaker
// degradation, and cross-timeframe confirmation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/schundi365/IndianTradingbot-sub002/internal/analysis"
	"github.com/schundi365/IndianTradingbot-sub002/internal/marketdata"
	"github.com/schundi365/IndianTradingbot-sub002/internal/series"
)

// Config holds the aggregation, degradation, and cache parameters.
type Config struct {
	MinSignalConfidence float64            `json:"min_signal_confidence"` // per-source floor; weaker signals dropped
	EarlyWarningFloor   float64            `json:"early_warning_floor"`   // dropped signals above this become early warnings
	MinTradeConfidence  float64            `json:"min_trade_confidence"`  // overall floor for ShouldTradeTrend
	Weights             map[string]float64 `json:"weights"`               // per-source confidence weights
	BreakerFailures     uint32             `json:"breaker_failures"`      // consecutive failures tripping a source breaker
	BreakerCooldown     time.Duration      `json:"breaker_cooldown"`      // open interval before a half-open probe
	CacheTTL            time.Duration      `json:"cache_ttl"`
	CacheMaxEntries     int                `json:"cache_max_entries"`
}

// DefaultConfig returns the default engine parameters. Structure break and
// divergence carry slightly higher weight for reliability.
func DefaultConfig() Config {
	return Config{
		MinSignalConfidence: 0.3,
		EarlyWarningFloor:   0.15,
		MinTradeConfidence:  0.55,
		Weights: map[string]float64{
			string(analysis.KindMomentum):       0.25,
			string(analysis.KindRangeDirection): 0.15,
			string(analysis.KindStructureBreak): 0.30,
			string(analysis.KindDivergence):     0.30,
		},
		BreakerFailures: 3,
		BreakerCooldown: 5 * time.Minute,
		CacheTTL:        5 * time.Minute,
		CacheMaxEntries: 64,
	}
}

// Engine is the trend detection orchestrator. It owns no per-series state;
// the TTL series cache is its only cross-call state, so one engine value
// can serve concurrent per-symbol analyses.
type Engine struct {
	id        string
	cfg       Config
	log       zerolog.Logger
	provider  marketdata.SeriesProvider
	sources   []analysis.SignalSource
	timeframe *analysis.TimeframeAlignmentAnalyzer
	breakers  map[string]*gobreaker.CircuitBreaker
	cache     *seriesCache
}

// New constructs an engine over an explicit list of enabled signal sources.
// provider may be nil, in which case cross-timeframe confirmation degrades
// to unavailable.
func New(cfg Config, sources []analysis.SignalSource, timeframe *analysis.TimeframeAlignmentAnalyzer, provider marketdata.SeriesProvider, logger zerolog.Logger) (*Engine, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("engine: at least one signal source is required")
	}
	if timeframe == nil {
		return nil, fmt.Errorf("engine: timeframe alignment analyzer is required")
	}
	if cfg.MinSignalConfidence <= 0 {
		cfg.MinSignalConfidence = 0.3
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 3
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 5 * time.Minute
	}

	e := &Engine{
		id:        uuid.NewString(),
		cfg:       cfg,
		log:       logger.With().Str("component", "trend_engine").Logger(),
		provider:  provider,
		sources:   sources,
		timeframe: timeframe,
		breakers:  make(map[string]*gobreaker.CircuitBreaker, len(sources)),
		cache:     newSeriesCache(cfg.CacheTTL, cfg.CacheMaxEntries),
	}

	for _, src := range sources {
		name := src.Name()
		if _, dup := e.breakers[name]; dup {
			return nil, fmt.Errorf("engine: duplicate signal source %q", name)
		}
		e.breakers[name] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     cfg.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.BreakerFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				e.log.Warn().
					Str("source", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("signal source breaker state change")
			},
		})
	}

	e.log.Info().Str("engine_id", e.id).Int("sources", len(sources)).Msg("trend engine constructed")
	return e, nil
}

// ID returns the engine instance id used in logs.
func (e *Engine) ID() string { return e.id }

// Analyze runs every enabled signal source over the series, filters and
// aggregates the results, and attaches cross-timeframe confirmation.
// A degraded cycle still returns a valid result; only contract violations
// return an error.
func (e *Engine) Analyze(ctx context.Context, s *series.Series) (*TrendAnalysisResult, error) {
	if s == nil {
		return nil, fmt.Errorf("engine: nil series")
	}

	result := &TrendAnalysisResult{
		Symbol:    s.Symbol,
		Timeframe: s.Timeframe,
		Signals:   []analysis.Signal{},
	}
	if last, ok := s.Last(); ok {
		result.Time = last.Time
	}

	// A malformed primary series degrades the whole cycle rather than
	// aborting the caller's loop.
	if err := s.Validate(series.DefaultMaxUndefinedRun); err != nil {
		e.log.Warn().Str("symbol", s.Symbol).Err(err).Msg("primary series rejected, returning degraded result")
		result.Direction = analysis.DirectionNeutral
		return result, nil
	}

	for _, src := range e.sources {
		sig, degraded := e.runSource(src, s)
		if degraded {
			result.DegradedSources = append(result.DegradedSources, src.Name())
			continue
		}
		if sig == nil {
			continue
		}
		if sig.Confidence < e.cfg.MinSignalConfidence {
			if sig.Confidence >= e.cfg.EarlyWarningFloor && sig.Direction != analysis.DirectionNeutral {
				result.EarlyWarnings = append(result.EarlyWarnings, EarlyWarning{
					Source:     sig.Source,
					Direction:  sig.Direction,
					Confidence: sig.Confidence,
					Note:       "signal below per-source confidence floor",
				})
			}
			continue
		}
		result.Signals = append(result.Signals, *sig)
	}

	result.Signals = dedupeContradictory(result.Signals)

	for i := range result.Signals {
		if result.Signals[i].Kind == analysis.KindStructureBreak {
			result.StructureBreak = &result.Signals[i]
		}
	}

	result.Direction, result.OverallConfidence = e.aggregate(result.Signals, result.DegradedSources)

	result.Alignment = e.alignTimeframe(ctx, s, result.Direction)
	if result.Alignment != nil && result.Alignment.Level == analysis.ConfirmationContradictory {
		// A higher timeframe reading the opposite way caps the cycle.
		result.OverallConfidence = clamp01(result.OverallConfidence * result.Alignment.Score)
	}

	e.log.Debug().
		Str("symbol", s.Symbol).
		Str("direction", string(result.Direction)).
		Float64("confidence", result.OverallConfidence).
		Int("signals", len(result.Signals)).
		Strs("degraded", result.DegradedSources).
		Msg("analysis cycle complete")

	return result, nil
}

// ShouldTradeTrend runs Analyze and applies the trade gate: the overall
// confidence must clear the configured minimum, the higher-timeframe
// alignment must confirm the proposal, and the proposed direction must not
// oppose the analysis direction. An unavailable higher timeframe is
// non-blocking; when no relationship is configured the gate is
// confidence-and-direction only.
func (e *Engine) ShouldTradeTrend(ctx context.Context, s *series.Series, proposedDirection analysis.Direction) (bool, float64, error) {
	result, err := e.Analyze(ctx, s)
	if err != nil {
		return false, 0, err
	}

	confidence := result.OverallConfidence
	if confidence < e.cfg.MinTradeConfidence {
		return false, confidence, nil
	}
	if result.Alignment != nil && result.Alignment.Level != analysis.ConfirmationUnavailable {
		if !e.timeframe.ShouldConfirmSignal(result.Alignment, proposedDirection) {
			return false, confidence, nil
		}
	}
	if proposedDirection != analysis.DirectionNeutral && result.Direction == proposedDirection.Opposite() {
		return false, confidence, nil
	}
	return true, confidence, nil
}

// runSource executes one analyzer behind its circuit breaker. Recoverable
// data errors yield no signal without counting as failures; analyzer
// failures (including panics) count toward the breaker. degraded is true
// when the breaker is open.
func (e *Engine) runSource(src analysis.SignalSource, s *series.Series) (sig *analysis.Signal, degraded bool) {
	breaker := e.breakers[src.Name()]
	out, err := breaker.Execute(func() (result interface{}, execErr error) {
		defer func() {
			if r := recover(); r != nil {
				execErr = fmt.Errorf("analyzer panic: %v", r)
			}
		}()

		produced, produceErr := src.Produce(s)
		if produceErr != nil {
			if errors.Is(produceErr, series.ErrInsufficientData) || errors.Is(produceErr, series.ErrMalformedSeries) {
				// Recovered locally: no signal this cycle, not a failure.
				return nil, nil
			}
			return nil, produceErr
		}
		return produced, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, true
		}
		e.log.Warn().Str("source", src.Name()).Err(err).Msg("signal source failed this cycle")
		return nil, false
	}
	if out == nil {
		return nil, false
	}
	produced, ok := out.(*analysis.Signal)
	if !ok || produced == nil {
		return nil, false
	}
	return produced, false
}

// dedupeContradictory drops the weaker of two opposing signals produced by
// the same source within a cycle.
func dedupeContradictory(signals []analysis.Signal) []analysis.Signal {
	out := signals[:0]
	for _, sig := range signals {
		replaced := false
		for i := range out {
			if out[i].Source != sig.Source {
				continue
			}
			if out[i].Direction == sig.Direction.Opposite() && sig.Direction != analysis.DirectionNeutral {
				if sig.Confidence > out[i].Confidence {
					out[i] = sig
				}
				replaced = true
				break
			}
			if out[i].Direction == sig.Direction {
				if sig.Confidence > out[i].Confidence {
					out[i] = sig
				}
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, sig)
		}
	}
	return out
}

// aggregate computes the weighted overall confidence. Broken sources are
// excluded and the remaining weights renormalized.
func (e *Engine) aggregate(signals []analysis.Signal, degraded []string) (analysis.Direction, float64) {
	excluded := make(map[string]bool, len(degraded))
	for _, name := range degraded {
		excluded[name] = true
	}

	activeWeight := 0.0
	for _, src := range e.sources {
		if !excluded[src.Name()] {
			activeWeight += e.weightFor(src.Name())
		}
	}
	if activeWeight <= 0 {
		return analysis.DirectionNeutral, 0
	}

	bull, bear := 0.0, 0.0
	for _, sig := range signals {
		w := e.weightFor(sig.Source)
		switch sig.Direction {
		case analysis.DirectionBullish:
			bull += w * sig.Confidence
		case analysis.DirectionBearish:
			bear += w * sig.Confidence
		}
	}

	net := (bull - bear) / activeWeight
	direction := analysis.DirectionNeutral
	if net > 0.05 {
		direction = analysis.DirectionBullish
	} else if net < -0.05 {
		direction = analysis.DirectionBearish
	}
	return direction, clamp01(math.Abs(net))
}

func (e *Engine) weightFor(source string) float64 {
	if w, ok := e.cfg.Weights[source]; ok {
		return w
	}
	return 1.0 / float64(len(e.sources))
}

// alignTimeframe fetches (or reuses) the higher-timeframe series and scores
// agreement. Fetch failures degrade to an unavailable alignment rather than
// blocking the cycle.
func (e *Engine) alignTimeframe(ctx context.Context, s *series.Series, direction analysis.Direction) *analysis.TimeframeAlignment {
	higherTF, ok := e.timeframe.HigherTimeframe(s.Timeframe)
	if !ok {
		return nil
	}

	key := cacheKey{symbol: s.Symbol, timeframe: higherTF}
	higher := e.cache.Get(key)
	if higher == nil {
		if e.provider == nil {
			return e.timeframe.Unavailable(direction, s.Timeframe, higherTF)
		}
		fetched, err := e.provider.GetHistoricalSeries(ctx, s.Symbol, higherTF, e.timeframe.BarCount())
		if err != nil {
			e.log.Warn().
				Str("symbol", s.Symbol).
				Str("higher_timeframe", higherTF).
				Err(err).
				Msg("higher timeframe fetch failed, alignment degraded")
			return e.timeframe.Unavailable(direction, s.Timeframe, higherTF)
		}
		e.cache.Set(key, fetched)
		higher = fetched
	}

	return e.timeframe.Align(direction, s.Timeframe, higher)
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
