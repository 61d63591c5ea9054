package analysis

import (
	"fmt"
	"math"

	"github.com/schundi365/IndianTradingbot-sub002/internal/indicators"
	"github.com/schundi365/IndianTradingbot-sub002/internal/series"
)

// DivergenceConfig holds the price-vs-oscillator divergence parameters.
type DivergenceConfig struct {
	Oscillator       OscillatorKind `json:"oscillator"`
	OscPeriod        int            `json:"osc_period"`
	SwingStrength    int            `json:"swing_strength"`
	MinSeparation    int            `json:"min_separation"` // bars between paired swings
	Lookback         int            `json:"lookback"`       // bars scanned for swing pairs
	ValidationSwings int            `json:"validation_swings"`
}

// DefaultDivergenceConfig returns the default divergence parameters.
func DefaultDivergenceConfig() DivergenceConfig {
	return DivergenceConfig{
		Oscillator:       OscillatorRSI,
		OscPeriod:        14,
		SwingStrength:    3,
		MinSeparation:    5,
		Lookback:         60,
		ValidationSwings: 3,
	}
}

// DivergenceAnalyzer detects price and oscillator moving in opposite
// directions across matched swing points.
type DivergenceAnalyzer struct {
	cfg DivergenceConfig
}

// NewDivergenceAnalyzer creates the analyzer, rejecting invalid config.
func NewDivergenceAnalyzer(cfg DivergenceConfig) (*DivergenceAnalyzer, error) {
	if cfg.OscPeriod <= 0 {
		return nil, fmt.Errorf("divergence: oscillator period must be positive, got %d", cfg.OscPeriod)
	}
	if cfg.SwingStrength <= 0 {
		return nil, fmt.Errorf("divergence: swing strength must be positive, got %d", cfg.SwingStrength)
	}
	if cfg.Oscillator != OscillatorRSI && cfg.Oscillator != OscillatorStochastic {
		return nil, fmt.Errorf("divergence: unsupported oscillator %q", cfg.Oscillator)
	}
	if cfg.MinSeparation <= 0 {
		cfg.MinSeparation = 5
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 60
	}
	return &DivergenceAnalyzer{cfg: cfg}, nil
}

// Name implements SignalSource.
func (da *DivergenceAnalyzer) Name() string { return string(KindDivergence) }

// ComputeOscillator produces the configured oscillator family as an
// indicator series aligned to the price series.
func (da *DivergenceAnalyzer) ComputeOscillator(s *series.Series, kind OscillatorKind) (series.IndicatorSeries, error) {
	required := da.cfg.OscPeriod*2 + da.cfg.SwingStrength*2
	if s.Len() < required {
		return series.IndicatorSeries{}, fmt.Errorf("%w: divergence needs %d bars, have %d", series.ErrInsufficientData, required, s.Len())
	}
	switch kind {
	case OscillatorRSI:
		return indicators.RSISeries(s.Closes(), da.cfg.OscPeriod), nil
	case OscillatorStochastic:
		return indicators.StochasticKSeries(s, da.cfg.OscPeriod), nil
	default:
		return series.IndicatorSeries{}, fmt.Errorf("divergence: unsupported oscillator %q", kind)
	}
}

// swingPair is the most recent pair of comparable swings, with the
// oscillator swings temporally aligned to the price swings.
type swingPair struct {
	kind           SwingKind
	priceA, priceB SwingPoint // A older, B newer
	oscA, oscB     SwingPoint
	swingCount     int
}

// matchSwingPairs selects the most recent pair of comparable price swings
// within the lookback window, separated by at least minSeparation bars, and
// aligns oscillator swings of the same kind to them.
func (da *DivergenceAnalyzer) matchSwingPairs(priceSwings, oscSwings []SwingPoint, minSeparation, lookback, seriesLen int) *swingPair {
	floor := seriesLen - lookback
	if floor < 0 {
		floor = 0
	}

	var recent []SwingPoint
	for _, sw := range priceSwings {
		if sw.Index >= floor {
			recent = append(recent, sw)
		}
	}
	if len(recent) < 2 {
		return nil
	}

	b := recent[len(recent)-1]
	var a *SwingPoint
	for i := len(recent) - 2; i >= 0; i-- {
		if b.Index-recent[i].Index >= minSeparation {
			a = &recent[i]
			break
		}
	}
	if a == nil {
		return nil
	}

	tolerance := da.cfg.SwingStrength + 2
	oscA := nearestSwing(oscSwings, a.Index, tolerance)
	oscB := nearestSwing(oscSwings, b.Index, tolerance)
	if oscA == nil || oscB == nil {
		return nil
	}

	return &swingPair{
		kind:       b.Kind,
		priceA:     *a,
		priceB:     b,
		oscA:       *oscA,
		oscB:       *oscB,
		swingCount: len(recent),
	}
}

// nearestSwing finds the swing closest in time to the target index, within
// the bar tolerance.
func nearestSwing(swings []SwingPoint, target, tolerance int) *SwingPoint {
	var best *SwingPoint
	bestDist := tolerance + 1
	for i := range swings {
		d := swings[i].Index - target
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best = &swings[i]
			bestDist = d
		}
	}
	return best
}

// Produce implements SignalSource.
func (da *DivergenceAnalyzer) Produce(s *series.Series) (*Signal, error) {
	osc, err := da.ComputeOscillator(s, da.cfg.Oscillator)
	if err != nil {
		return nil, err
	}

	priceHighs := findSwings(s.Highs(), da.cfg.SwingStrength, SwingHigh)
	priceLows := findSwings(s.Lows(), da.cfg.SwingStrength, SwingLow)
	oscHighs := findSwings(osc.Values, da.cfg.SwingStrength, SwingHigh)
	oscLows := findSwings(osc.Values, da.cfg.SwingStrength, SwingLow)

	// The more recent qualifying pair wins when both families produce one.
	highPair := da.matchSwingPairs(priceHighs, oscHighs, da.cfg.MinSeparation, da.cfg.Lookback, s.Len())
	lowPair := da.matchSwingPairs(priceLows, oscLows, da.cfg.MinSeparation, da.cfg.Lookback, s.Len())

	first, second := highPair, lowPair
	if lowPair != nil && (highPair == nil || lowPair.priceB.Index > highPair.priceB.Index) {
		first, second = lowPair, highPair
	}
	if first != nil {
		if sig := da.classify(s, first); sig != nil {
			return sig, nil
		}
	}
	if second != nil {
		if sig := da.classify(s, second); sig != nil {
			return sig, nil
		}
	}
	return nil, nil
}

// classify applies the divergence rule: bearish when the price swing-high
// rises while the oscillator swing-high falls, bullish on the symmetric
// swing-low rule. Pairs moving in the same direction are rejected outright.
func (da *DivergenceAnalyzer) classify(s *series.Series, pair *swingPair) *Signal {
	priceDelta := pair.priceB.Price - pair.priceA.Price
	oscDelta := pair.oscB.Price - pair.oscA.Price

	var direction Direction
	switch pair.kind {
	case SwingHigh:
		if priceDelta > 0 && oscDelta < 0 {
			direction = DirectionBearish
		}
	case SwingLow:
		if priceDelta < 0 && oscDelta > 0 {
			direction = DirectionBullish
		}
	}
	if direction == "" {
		return nil
	}

	// Normalized deltas: price move as a percent of the older swing,
	// oscillator move on its 0..100 scale.
	priceScore := 0.0
	if pair.priceA.Price > 0 {
		priceScore = clamp01(math.Abs(priceDelta) / pair.priceA.Price * 100 / 5)
	}
	oscScore := clamp01(math.Abs(oscDelta) / 20)

	swingScale := 0.8 + 0.05*math.Min(float64(pair.swingCount), 4)
	recency := 1.0 - float64(s.Len()-1-pair.priceB.Index)/float64(da.cfg.Lookback)
	recencyScale := 0.7 + 0.3*clamp01(recency)

	strength := clamp01((0.5*priceScore + 0.5*oscScore) * swingScale * recencyScale)

	confirming := da.confirmingBars(s, pair.priceB.Index, direction)
	validated := confirming >= da.cfg.ValidationSwings

	factors := []string{fmt.Sprintf("price swing %s pair diverging from %s", pair.kind, da.cfg.Oscillator)}
	if validated {
		factors = append(factors, fmt.Sprintf("%d confirming bars", confirming))
	}

	confidence := strength
	if !validated {
		confidence *= 0.7
	}

	last, _ := s.Last()
	return &Signal{
		Kind:       KindDivergence,
		Source:     da.Name(),
		Direction:  direction,
		Strength:   strength,
		Confidence: clamp01(confidence),
		Factors:    factors,
		Time:       last.Time,
		Divergence: &DivergenceDetail{
			Oscillator:     da.cfg.Oscillator,
			PriceSwingFrom: pair.priceA.Price,
			PriceSwingTo:   pair.priceB.Price,
			OscSwingFrom:   pair.oscA.Price,
			OscSwingTo:     pair.oscB.Price,
			Validated:      validated,
			ConfirmingBars: confirming,
			SwingCount:     pair.swingCount,
		},
	}
}

// confirmingBars counts bars after the newer swing whose closes move with
// the divergence direction.
func (da *DivergenceAnalyzer) confirmingBars(s *series.Series, from int, direction Direction) int {
	n := 0
	for i := from + 1; i < s.Len(); i++ {
		delta := s.Points[i].Close - s.Points[i-1].Close
		if direction == DirectionBearish && delta < 0 {
			n++
		}
		if direction == DirectionBullish && delta > 0 {
			n++
		}
	}
	return n
}
