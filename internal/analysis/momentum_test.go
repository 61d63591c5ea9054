package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/schundi365/IndianTradingbot-sub002/internal/series"
)

// TestMomentumSustainedUptrend tests an established crossover with a long
// directional run behind it
func TestMomentumSustainedUptrend(t *testing.T) {
	// Flat for 140 bars, then a steady climb. The crossover happened long
	// ago; what remains is a sustained, confirmed trend.
	closes := make([]float64, 200)
	for i := 0; i < 140; i++ {
		closes[i] = 100
	}
	for i := 140; i < 200; i++ {
		closes[i] = 100 + 0.5*float64(i-139)
	}

	ma, err := NewMomentumAnalyzer(DefaultMomentumConfig())
	if err != nil {
		t.Fatalf("Failed to build analyzer: %v", err)
	}

	sig, err := ma.Produce(candleSeries(t, closes))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sig == nil {
		t.Fatal("Expected a signal")
	}
	if sig.Direction != DirectionBullish {
		t.Errorf("Expected bullish, got %s", sig.Direction)
	}
	if sig.Confidence < 0.6 {
		t.Errorf("Expected confidence >= 0.6 for a sustained trend, got %f", sig.Confidence)
	}
	if sig.Momentum == nil {
		t.Fatal("Expected momentum detail")
	}
	if sig.Momentum.Crossover {
		t.Error("Crossover 60 bars back should not count as recent")
	}
	if !sig.Momentum.CrossoverConfirmed {
		t.Error("Expected the crossover to be confirmed")
	}
	if sig.Momentum.Separation <= 0 {
		t.Errorf("Expected positive separation, got %f", sig.Momentum.Separation)
	}
}

// TestMomentumStrengthTracksTrendSteepness tests that a steeper sustained
// trend never scores weaker momentum than a shallower one
func TestMomentumStrengthTracksTrendSteepness(t *testing.T) {
	ma, err := NewMomentumAnalyzer(DefaultMomentumConfig())
	if err != nil {
		t.Fatalf("Failed to build analyzer: %v", err)
	}

	// Same shape as the sustained-uptrend case, at increasing slopes.
	steps := []float64{0.05, 0.1, 0.2, 0.4, 0.8}
	prev := -1.0
	for _, step := range steps {
		closes := make([]float64, 200)
		for i := 0; i < 140; i++ {
			closes[i] = 100
		}
		for i := 140; i < 200; i++ {
			closes[i] = 100 + step*float64(i-139)
		}

		sig, err := ma.ClassifySignal(candleSeries(t, closes))
		if err != nil {
			t.Fatalf("Expected no error for step %f, got %v", step, err)
		}
		if sig == nil || sig.Momentum == nil {
			t.Fatalf("Expected a momentum signal for step %f", step)
		}
		// The shallowest slope stays pinched below the separation
		// threshold and reads as consolidation; the rest must be bullish.
		if !sig.Momentum.Consolidation && sig.Direction != DirectionBullish {
			t.Errorf("Expected bullish for step %f, got %s", step, sig.Direction)
		}
		if sig.Strength < prev {
			t.Errorf("Strength %f for step %f is below %f for a shallower trend", sig.Strength, step, prev)
		}
		prev = sig.Strength
	}
}

// TestMomentumSustainedDowntrend tests the bearish mirror
func TestMomentumSustainedDowntrend(t *testing.T) {
	closes := make([]float64, 200)
	for i := 0; i < 140; i++ {
		closes[i] = 200
	}
	for i := 140; i < 200; i++ {
		closes[i] = 200 - 0.5*float64(i-139)
	}

	ma, err := NewMomentumAnalyzer(DefaultMomentumConfig())
	if err != nil {
		t.Fatalf("Failed to build analyzer: %v", err)
	}

	sig, err := ma.Produce(candleSeries(t, closes))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sig == nil {
		t.Fatal("Expected a signal")
	}
	if sig.Direction != DirectionBearish {
		t.Errorf("Expected bearish, got %s", sig.Direction)
	}
	if sig.Confidence < 0.6 {
		t.Errorf("Expected confidence >= 0.6, got %f", sig.Confidence)
	}
}

// TestMomentumRecentCrossover tests that a fresh crossover is flagged
func TestMomentumRecentCrossover(t *testing.T) {
	closes := make([]float64, 60)
	for i := 0; i < 54; i++ {
		closes[i] = 100
	}
	for i := 54; i < 60; i++ {
		closes[i] = 100 + float64(i-53)
	}

	ma, err := NewMomentumAnalyzer(DefaultMomentumConfig())
	if err != nil {
		t.Fatalf("Failed to build analyzer: %v", err)
	}

	sig, err := ma.Produce(candleSeries(t, closes))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sig == nil {
		t.Fatal("Expected a signal")
	}
	if sig.Direction != DirectionBullish {
		t.Errorf("Expected bullish, got %s", sig.Direction)
	}
	if sig.Momentum == nil || !sig.Momentum.Crossover {
		t.Error("Expected a recent crossover flag")
	}
}

// TestMomentumConsolidation tests pinched averages with no fresh crossover
func TestMomentumConsolidation(t *testing.T) {
	// A barely perceptible drift keeps the separation on one side of zero
	// (no recent crossovers) but far below the trend threshold.
	closes := trendCloses(100, 0.01, 60)

	ma, err := NewMomentumAnalyzer(DefaultMomentumConfig())
	if err != nil {
		t.Fatalf("Failed to build analyzer: %v", err)
	}

	sig, err := ma.Produce(candleSeries(t, closes))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sig == nil {
		t.Fatal("Expected a signal")
	}
	if sig.Direction != DirectionNeutral {
		t.Errorf("Expected neutral during consolidation, got %s", sig.Direction)
	}
	if sig.Momentum == nil || !sig.Momentum.Consolidation {
		t.Error("Expected the consolidation flag")
	}
	if sig.Strength > 0.3 {
		t.Errorf("Consolidation strength should stay low, got %f", sig.Strength)
	}
}

// TestMomentumInsufficientData tests the minimum history requirement
func TestMomentumInsufficientData(t *testing.T) {
	ma, err := NewMomentumAnalyzer(DefaultMomentumConfig())
	if err != nil {
		t.Fatalf("Failed to build analyzer: %v", err)
	}

	_, err = ma.Produce(candleSeries(t, trendCloses(100, 1, 30)))
	if !errors.Is(err, series.ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

// TestMomentumRejectsInvalidPeriods tests constructor validation
func TestMomentumRejectsInvalidPeriods(t *testing.T) {
	cfg := DefaultMomentumConfig()
	cfg.FastPeriod = 21
	cfg.SlowPeriod = 9

	if _, err := NewMomentumAnalyzer(cfg); err == nil {
		t.Error("Expected an error when fast >= slow")
	}

	cfg = DefaultMomentumConfig()
	cfg.SlowPeriod = 0
	if _, err := NewMomentumAnalyzer(cfg); err == nil {
		t.Error("Expected an error for a zero period")
	}
}

// TestDetectBreachAboveLevel tests a clean breach above a dynamic level
func TestDetectBreachAboveLevel(t *testing.T) {
	ma, err := NewMomentumAnalyzer(DefaultMomentumConfig())
	if err != nil {
		t.Fatalf("Failed to build analyzer: %v", err)
	}

	closes := trendCloses(100, 0.02, 50)
	closes[49] = 101
	s := candleSeries(t, closes)

	breach, err := ma.DetectBreach(s, 100, 2.0, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if breach == nil {
		t.Fatal("Expected a breach event")
	}
	if breach.Direction != DirectionBullish {
		t.Errorf("Expected bullish breach, got %s", breach.Direction)
	}
	if math.Abs(breach.Magnitude-1.0) > 1e-9 {
		t.Errorf("Expected magnitude 1.0, got %f", breach.Magnitude)
	}
	if breach.Retest {
		t.Error("Fresh breach should not be flagged as a retest")
	}
}

// TestDetectBreachBelowThreshold tests that tiny moves are ignored
func TestDetectBreachBelowThreshold(t *testing.T) {
	ma, err := NewMomentumAnalyzer(DefaultMomentumConfig())
	if err != nil {
		t.Fatalf("Failed to build analyzer: %v", err)
	}

	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100
	}
	closes[49] = 100.1
	s := candleSeries(t, closes)

	breach, err := ma.DetectBreach(s, 100, 2.0, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if breach != nil {
		t.Errorf("Expected no breach for a 0.1%% move, got %+v", breach)
	}
}

// TestDetectBreachRetest tests that price returning to a broken level is
// reported as a retest
func TestDetectBreachRetest(t *testing.T) {
	ma, err := NewMomentumAnalyzer(DefaultMomentumConfig())
	if err != nil {
		t.Fatalf("Failed to build analyzer: %v", err)
	}

	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 102
	}
	closes[49] = 100.2
	s := candleSeries(t, closes)

	prior := &BreachEvent{Level: 100, Direction: DirectionBullish, Confidence: 0.8}
	breach, err := ma.DetectBreach(s, 100, 2.0, prior)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if breach == nil {
		t.Fatal("Expected a retest event")
	}
	if !breach.Retest {
		t.Error("Expected the retest flag")
	}
	if breach.Direction != DirectionBullish {
		t.Errorf("Retest should keep the prior direction, got %s", breach.Direction)
	}
	if breach.Confidence >= prior.Confidence {
		t.Errorf("Retest confidence should decay below %f, got %f", prior.Confidence, breach.Confidence)
	}
}
