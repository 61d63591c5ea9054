package series

import (
	"errors"
	"math"
	"testing"
	"time"
)

func makePoints(closes []float64) []PricePoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]PricePoint, len(closes))
	for i, c := range closes {
		points[i] = PricePoint{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1000,
		}
	}
	return points
}

// TestNewValidSeries tests that a well-formed series passes construction
func TestNewValidSeries(t *testing.T) {
	s, err := New("BTCUSDT", "1h", makePoints([]float64{100, 101, 102}))

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if s.Len() != 3 {
		t.Errorf("Expected 3 bars, got %d", s.Len())
	}
	last, ok := s.Last()
	if !ok {
		t.Fatal("Expected last bar to exist")
	}
	if last.Close != 102 {
		t.Errorf("Expected last close 102, got %f", last.Close)
	}
}

// TestNewRejectsNonMonotonicTimestamps tests that out-of-order bars are rejected
func TestNewRejectsNonMonotonicTimestamps(t *testing.T) {
	points := makePoints([]float64{100, 101, 102})
	points[2].Time = points[0].Time

	_, err := New("BTCUSDT", "1h", points)

	if !errors.Is(err, ErrMalformedSeries) {
		t.Errorf("Expected ErrMalformedSeries, got %v", err)
	}
}

// TestNewRejectsDuplicateTimestamps tests that equal timestamps are rejected
func TestNewRejectsDuplicateTimestamps(t *testing.T) {
	points := makePoints([]float64{100, 101, 102})
	points[1].Time = points[0].Time

	_, err := New("BTCUSDT", "1h", points)

	if !errors.Is(err, ErrMalformedSeries) {
		t.Errorf("Expected ErrMalformedSeries, got %v", err)
	}
}

// TestValidateBoundedUndefinedRun tests the undefined-bar run limit
func TestValidateBoundedUndefinedRun(t *testing.T) {
	points := makePoints([]float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109})
	for i := 2; i < 2+DefaultMaxUndefinedRun; i++ {
		points[i].Close = math.NaN()
	}

	s := &Series{Symbol: "BTCUSDT", Timeframe: "1h", Points: points}
	if err := s.Validate(DefaultMaxUndefinedRun); err != nil {
		t.Errorf("Run at the limit should pass, got %v", err)
	}

	points[2+DefaultMaxUndefinedRun].Close = math.NaN()
	if err := s.Validate(DefaultMaxUndefinedRun); !errors.Is(err, ErrMalformedSeries) {
		t.Errorf("Run over the limit should fail with ErrMalformedSeries, got %v", err)
	}
}

// TestValidateNilSeries tests that a nil series is malformed
func TestValidateNilSeries(t *testing.T) {
	var s *Series
	if err := s.Validate(DefaultMaxUndefinedRun); !errors.Is(err, ErrMalformedSeries) {
		t.Errorf("Expected ErrMalformedSeries for nil series, got %v", err)
	}
}

// TestClosesReturnsCopy tests that column accessors do not alias the series
func TestClosesReturnsCopy(t *testing.T) {
	s, err := New("BTCUSDT", "1h", makePoints([]float64{100, 101, 102}))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	closes := s.Closes()
	closes[0] = -1

	if s.Points[0].Close != 100 {
		t.Errorf("Mutating the returned slice must not touch the series, close is %f", s.Points[0].Close)
	}
}

// TestIndicatorSeriesUndefinedLeader tests the NaN-backed undefined prefix
func TestIndicatorSeriesUndefinedLeader(t *testing.T) {
	is := NewIndicatorSeries(5, 2)
	is.Values[2] = 10
	is.Values[3] = 11
	is.Values[4] = 12

	if _, ok := is.At(0); ok {
		t.Error("Index 0 should be undefined")
	}
	if _, ok := is.At(1); ok {
		t.Error("Index 1 should be undefined")
	}
	if v, ok := is.At(2); !ok || v != 10 {
		t.Errorf("Expected (10, true) at index 2, got (%f, %v)", v, ok)
	}
	if v, ok := is.Last(); !ok || v != 12 {
		t.Errorf("Expected (12, true) from Last, got (%f, %v)", v, ok)
	}
	if is.DefinedCount() != 3 {
		t.Errorf("Expected 3 defined values, got %d", is.DefinedCount())
	}
}

// TestIndicatorSeriesOutOfRange tests the index guards
func TestIndicatorSeriesOutOfRange(t *testing.T) {
	is := NewIndicatorSeries(3, 0)

	if _, ok := is.At(-1); ok {
		t.Error("Negative index should be undefined")
	}
	if _, ok := is.At(3); ok {
		t.Error("Index past the end should be undefined")
	}
}
