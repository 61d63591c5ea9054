package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/schundi365/IndianTradingbot-sub002/internal/series"
)

func testStructureConfig() StructureConfig {
	return StructureConfig{
		SwingStrength:    2,
		ZoneTolerance:    1.0,
		MinBreakDistance: 1.0,
		VolumeAvgPeriod:  10,
		VolumeRatio:      2.0,
		MaxSwings:        20,
	}
}

// resistanceBreakSeries builds a range with a twice-tested ceiling at 100
// and a final volume-backed rally through it.
func resistanceBreakSeries(t *testing.T, finalClose, finalVolume float64) *series.Series {
	t.Helper()
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 95
	}
	closes[36] = 98
	closes[37] = 100
	closes[38] = finalClose - 0.5
	closes[39] = finalClose

	highs := map[int]float64{10: 100.0, 20: 100.0}
	lows := map[int]float64{5: 90.0, 25: 90.0}
	volumes := map[int]float64{39: finalVolume}
	return customSeries(t, closes, highs, lows, volumes)
}

// TestFindSwingPoints tests strict local extreme detection
func TestFindSwingPoints(t *testing.T) {
	sa, err := NewStructureBreakAnalyzer(testStructureConfig())
	if err != nil {
		t.Fatalf("Failed to build analyzer: %v", err)
	}

	s := candleSeries(t, []float64{1, 2, 5, 2, 1})
	highs, lows, err := sa.FindSwingPoints(s, 2)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(highs) != 1 {
		t.Fatalf("Expected 1 swing high, got %d", len(highs))
	}
	if highs[0].Index != 2 || highs[0].Price != 5.5 {
		t.Errorf("Expected swing high at index 2 price 5.5, got index %d price %f", highs[0].Index, highs[0].Price)
	}
	if len(lows) != 0 {
		t.Errorf("Expected no swing lows on a single peak, got %d", len(lows))
	}
}

// TestFindSwingPointsInsufficientData tests the window requirement
func TestFindSwingPointsInsufficientData(t *testing.T) {
	sa, err := NewStructureBreakAnalyzer(testStructureConfig())
	if err != nil {
		t.Fatalf("Failed to build analyzer: %v", err)
	}

	_, _, err = sa.FindSwingPoints(candleSeries(t, []float64{1, 2, 3}), 2)
	if !errors.Is(err, series.ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

// TestIdentifySupportResistance tests clustering repeated swings into a zone
func TestIdentifySupportResistance(t *testing.T) {
	sa, err := NewStructureBreakAnalyzer(testStructureConfig())
	if err != nil {
		t.Fatalf("Failed to build analyzer: %v", err)
	}

	zones, err := sa.IdentifySupportResistance(resistanceBreakSeries(t, 103, 1000))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var resistance *Zone
	for i := range zones {
		if zones[i].Kind == SwingHigh && zones[i].Touches >= 2 {
			resistance = &zones[i]
		}
	}
	if resistance == nil {
		t.Fatal("Expected a resistance zone with 2+ touches")
	}
	if math.Abs(resistance.Level-100) > 1e-9 {
		t.Errorf("Expected zone level 100, got %f", resistance.Level)
	}
	if resistance.Strength <= 0 {
		t.Errorf("Expected positive zone strength, got %f", resistance.Strength)
	}
}

// TestDetectResistanceBreak tests a volume-backed break of a tested ceiling
func TestDetectResistanceBreak(t *testing.T) {
	sa, err := NewStructureBreakAnalyzer(testStructureConfig())
	if err != nil {
		t.Fatalf("Failed to build analyzer: %v", err)
	}

	sig, err := sa.Produce(resistanceBreakSeries(t, 103, 3000))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sig == nil {
		t.Fatal("Expected a structure break signal")
	}
	if sig.Kind != KindStructureBreak {
		t.Errorf("Expected structure break kind, got %s", sig.Kind)
	}
	if sig.Direction != DirectionBullish {
		t.Errorf("Expected bullish, got %s", sig.Direction)
	}
	if sig.Strength < 0.5 {
		t.Errorf("Expected strength >= 0.5 on a confirmed break, got %f", sig.Strength)
	}
	if sig.Structure == nil {
		t.Fatal("Expected structure detail")
	}
	if sig.Structure.Kind != BreakResistanceBreak {
		t.Errorf("Expected resistance break, got %s", sig.Structure.Kind)
	}
	if !sig.Structure.VolumeConfirmed {
		t.Error("Expected volume confirmation at 3x average")
	}
	if math.Abs(sig.Structure.Magnitude-3.0) > 1e-9 {
		t.Errorf("Expected 3%% break magnitude, got %f", sig.Structure.Magnitude)
	}
}

// TestDetectSupportBreak tests the bearish mirror
func TestDetectSupportBreak(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 105
	}
	closes[36] = 102
	closes[37] = 100
	closes[38] = 97.5
	closes[39] = 97

	lows := map[int]float64{10: 100.0, 20: 100.0}
	highs := map[int]float64{5: 110.0, 25: 110.0}
	volumes := map[int]float64{39: 3000}
	s := customSeries(t, closes, highs, lows, volumes)

	sa, err := NewStructureBreakAnalyzer(testStructureConfig())
	if err != nil {
		t.Fatalf("Failed to build analyzer: %v", err)
	}

	sig, err := sa.Produce(s)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sig == nil {
		t.Fatal("Expected a structure break signal")
	}
	if sig.Direction != DirectionBearish {
		t.Errorf("Expected bearish, got %s", sig.Direction)
	}
	if sig.Structure == nil || sig.Structure.Kind != BreakSupportBreak {
		t.Error("Expected a support break classification")
	}
}

// TestDetectStructureBreakRejectsNoise tests that breaks below the minimum
// distance produce nothing
func TestDetectStructureBreakRejectsNoise(t *testing.T) {
	sa, err := NewStructureBreakAnalyzer(testStructureConfig())
	if err != nil {
		t.Fatalf("Failed to build analyzer: %v", err)
	}

	sig, err := sa.Produce(resistanceBreakSeries(t, 100.5, 3000))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sig != nil {
		t.Errorf("Expected no signal for a 0.5%% break, got %+v", sig)
	}
}

// TestStructureRejectsInvalidConfig tests constructor validation
func TestStructureRejectsInvalidConfig(t *testing.T) {
	cfg := testStructureConfig()
	cfg.SwingStrength = 0
	if _, err := NewStructureBreakAnalyzer(cfg); err == nil {
		t.Error("Expected an error for zero swing strength")
	}

	cfg = testStructureConfig()
	cfg.MinBreakDistance = 0
	if _, err := NewStructureBreakAnalyzer(cfg); err == nil {
		t.Error("Expected an error for zero break distance")
	}
}
