package analysis

import (
	"fmt"
	"math"

	"github.com/schundi365/IndianTradingbot-sub002/internal/series"
)

// StructureConfig holds the swing and break-detection parameters.
type StructureConfig struct {
	SwingStrength    int     `json:"swing_strength"`     // neighbors each side of a swing extreme
	ZoneTolerance    float64 `json:"zone_tolerance"`     // percent band for clustering swings into zones
	MinBreakDistance float64 `json:"min_break_distance"` // percent; smaller breaks rejected as noise
	VolumeAvgPeriod  int     `json:"volume_avg_period"`
	VolumeRatio      float64 `json:"volume_ratio"` // multiple of average volume confirming a break
	MaxSwings        int     `json:"max_swings"`   // recent swings considered for zones
}

// DefaultStructureConfig returns the default structure parameters.
func DefaultStructureConfig() StructureConfig {
	return StructureConfig{
		SwingStrength:    5,
		ZoneTolerance:    1.0,
		MinBreakDistance: 1.0,
		VolumeAvgPeriod:  20,
		VolumeRatio:      2.0,
		MaxSwings:        20,
	}
}

// Zone is a clustered support or resistance level. Strength grows with
// touch count and recency.
type Zone struct {
	Level     float64   `json:"level"`
	Kind      SwingKind `json:"kind"` // SwingLow = support, SwingHigh = resistance
	Touches   int       `json:"touches"`
	LastIndex int       `json:"last_index"`
	Strength  float64   `json:"strength"`
}

// StructureBreakAnalyzer extracts swing points, clusters them into
// support/resistance zones, and classifies closes beyond those levels.
type StructureBreakAnalyzer struct {
	cfg StructureConfig
}

// NewStructureBreakAnalyzer creates the analyzer, rejecting invalid config.
func NewStructureBreakAnalyzer(cfg StructureConfig) (*StructureBreakAnalyzer, error) {
	if cfg.SwingStrength <= 0 {
		return nil, fmt.Errorf("structure: swing strength must be positive, got %d", cfg.SwingStrength)
	}
	if cfg.MinBreakDistance <= 0 {
		return nil, fmt.Errorf("structure: min break distance must be positive, got %f", cfg.MinBreakDistance)
	}
	if cfg.ZoneTolerance <= 0 {
		cfg.ZoneTolerance = 1.0
	}
	if cfg.MaxSwings <= 0 {
		cfg.MaxSwings = 20
	}
	return &StructureBreakAnalyzer{cfg: cfg}, nil
}

// Name implements SignalSource.
func (sa *StructureBreakAnalyzer) Name() string { return string(KindStructureBreak) }

// FindSwingPoints identifies swing highs and lows. A bar is a swing extreme
// when it is the strict max/min among its +/-swingStrength neighbors.
func (sa *StructureBreakAnalyzer) FindSwingPoints(s *series.Series, swingStrength int) (highs, lows []SwingPoint, err error) {
	if swingStrength <= 0 {
		return nil, nil, fmt.Errorf("structure: swing strength must be positive, got %d", swingStrength)
	}
	if s.Len() < swingStrength*2+1 {
		return nil, nil, fmt.Errorf("%w: swing detection needs %d bars, have %d", series.ErrInsufficientData, swingStrength*2+1, s.Len())
	}
	highs = findSwings(s.Highs(), swingStrength, SwingHigh)
	lows = findSwings(s.Lows(), swingStrength, SwingLow)
	return highs, lows, nil
}

// IdentifySupportResistance clusters recent swing points into zones within
// the tolerance band. Zone strength grows with touch count and recency.
func (sa *StructureBreakAnalyzer) IdentifySupportResistance(s *series.Series) ([]Zone, error) {
	highs, lows, err := sa.FindSwingPoints(s, sa.cfg.SwingStrength)
	if err != nil {
		return nil, err
	}

	zones := sa.cluster(tail(highs, sa.cfg.MaxSwings), SwingHigh)
	zones = append(zones, sa.cluster(tail(lows, sa.cfg.MaxSwings), SwingLow)...)

	n := s.Len()
	for i := range zones {
		touchScore := clamp01(float64(zones[i].Touches) / 3)
		recency := 0.0
		if n > 1 {
			recency = float64(zones[i].LastIndex) / float64(n-1)
		}
		zones[i].Strength = clamp01(0.7*touchScore + 0.3*recency)
	}
	return zones, nil
}

// cluster merges swings lying within the tolerance band of each other,
// averaging the level as touches accumulate.
func (sa *StructureBreakAnalyzer) cluster(swings []SwingPoint, kind SwingKind) []Zone {
	var zones []Zone
	for _, swing := range swings {
		merged := false
		for i := range zones {
			if math.Abs(swing.Price-zones[i].Level)/zones[i].Level*100 < sa.cfg.ZoneTolerance {
				zones[i].Level = (zones[i].Level*float64(zones[i].Touches) + swing.Price) / float64(zones[i].Touches+1)
				zones[i].Touches++
				if swing.Index > zones[i].LastIndex {
					zones[i].LastIndex = swing.Index
				}
				merged = true
				break
			}
		}
		if !merged {
			zones = append(zones, Zone{Level: swing.Price, Kind: kind, Touches: 1, LastIndex: swing.Index})
		}
	}
	return zones
}

// Produce implements SignalSource.
func (sa *StructureBreakAnalyzer) Produce(s *series.Series) (*Signal, error) {
	return sa.DetectStructureBreak(s)
}

// DetectStructureBreak compares the latest close to the nearest relevant
// swing level and classifies the move. Breaks smaller than the configured
// minimum distance are rejected as noise.
func (sa *StructureBreakAnalyzer) DetectStructureBreak(s *series.Series) (*Signal, error) {
	zones, err := sa.IdentifySupportResistance(s)
	if err != nil {
		return nil, err
	}
	highs, lows, err := sa.FindSwingPoints(s, sa.cfg.SwingStrength)
	if err != nil {
		return nil, err
	}

	last, ok := s.Last()
	if !ok {
		return nil, fmt.Errorf("%w: empty series", series.ErrInsufficientData)
	}

	kind, level, magnitude := sa.classifyBreak(last.Close, zones, highs, lows)
	if kind == "" {
		return nil, nil
	}

	direction := DirectionBullish
	if kind == BreakLowerLow || kind == BreakSupportBreak {
		direction = DirectionBearish
	}

	vol := NewVolumeContext(s, sa.cfg.VolumeAvgPeriod)
	volumeConfirmed := sa.cfg.VolumeRatio > 0 && vol.VolumeRatio >= sa.cfg.VolumeRatio

	// Strength grows with break magnitude relative to the minimum distance;
	// volume confirmation adds a fixed component.
	strength := 0.35 + 0.35*clamp01(magnitude/(sa.cfg.MinBreakDistance*2))
	if volumeConfirmed {
		strength += 0.3
	}
	strength = clamp01(strength)

	phase := sa.marketPhase(s, highs, lows)
	factors := []string{fmt.Sprintf("%s beyond %.4f by %.2f%%", kind, level, magnitude)}
	if volumeConfirmed {
		factors = append(factors, fmt.Sprintf("volume %.1fx average", vol.VolumeRatio))
	}
	if phase != "" {
		factors = append(factors, "market phase: "+phase)
	}

	confidence := strength
	if !volumeConfirmed {
		confidence *= 0.85
	}

	return &Signal{
		Kind:       KindStructureBreak,
		Source:     sa.Name(),
		Direction:  direction,
		Strength:   strength,
		Confidence: clamp01(confidence),
		Factors:    factors,
		Time:       last.Time,
		Structure: &StructureBreakDetail{
			Kind:            kind,
			Level:           level,
			Magnitude:       magnitude,
			VolumeConfirmed: volumeConfirmed,
			MarketPhase:     phase,
		},
	}, nil
}

// classifyBreak picks the nearest broken level. Zone breaks (2+ touches)
// classify as support/resistance breaks; single-swing breaks classify as
// higher-high/lower-low continuation.
func (sa *StructureBreakAnalyzer) classifyBreak(close float64, zones []Zone, highs, lows []SwingPoint) (BreakKind, float64, float64) {
	minDist := sa.cfg.MinBreakDistance

	var bestKind BreakKind
	var bestLevel, bestMag float64

	consider := func(kind BreakKind, level float64) {
		if level <= 0 {
			return
		}
		var mag float64
		switch kind {
		case BreakHigherHigh, BreakResistanceBreak:
			mag = (close - level) / level * 100
		case BreakLowerLow, BreakSupportBreak:
			mag = (level - close) / level * 100
		}
		if mag < minDist {
			return
		}
		// Nearest relevant level wins: smallest magnitude above the floor.
		if bestKind == "" || mag < bestMag {
			bestKind, bestLevel, bestMag = kind, level, mag
		}
	}

	for _, z := range zones {
		if z.Touches < 2 {
			continue
		}
		if z.Kind == SwingHigh {
			consider(BreakResistanceBreak, z.Level)
		} else {
			consider(BreakSupportBreak, z.Level)
		}
	}

	if len(highs) > 0 {
		consider(BreakHigherHigh, highs[len(highs)-1].Price)
	}
	if len(lows) > 0 {
		consider(BreakLowerLow, lows[len(lows)-1].Price)
	}

	return bestKind, bestLevel, bestMag
}

// marketPhase labels the series phase from swing progression, following the
// markup/markdown/accumulation/distribution convention.
func (sa *StructureBreakAnalyzer) marketPhase(s *series.Series, highs, lows []SwingPoint) string {
	hh := countRising(highs)
	hl := countRising(lows)
	lh := countFalling(highs)
	ll := countFalling(lows)
	total := hh + hl + lh + ll
	if total == 0 {
		return ""
	}

	bullish := float64(hh+hl) / float64(total)
	bearish := float64(lh+ll) / float64(total)
	if bullish > 0.7 {
		return "markup"
	}
	if bearish > 0.7 {
		return "markdown"
	}

	// Range-bound: accumulation when price holds above its recent mean.
	window := 20
	if s.Len() < window {
		window = s.Len()
	}
	mean := 0.0
	for i := s.Len() - window; i < s.Len(); i++ {
		mean += s.Points[i].Close
	}
	mean /= float64(window)
	last, _ := s.Last()
	if last.Close > mean {
		return "accumulation"
	}
	return "distribution"
}

func countRising(swings []SwingPoint) int {
	n := 0
	for i := 1; i < len(swings); i++ {
		if swings[i].Price > swings[i-1].Price {
			n++
		}
	}
	return n
}

func countFalling(swings []SwingPoint) int {
	n := 0
	for i := 1; i < len(swings); i++ {
		if swings[i].Price < swings[i-1].Price {
			n++
		}
	}
	return n
}

func tail(swings []SwingPoint, n int) []SwingPoint {
	if len(swings) <= n {
		return swings
	}
	return swings[len(swings)-n:]
}
