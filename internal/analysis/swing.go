package analysis

import "math"

// SwingKind distinguishes swing highs from swing lows.
type SwingKind string

const (
	SwingHigh SwingKind = "high"
	SwingLow  SwingKind = "low"
)

// SwingPoint is a local extreme in a price or indicator series relative to
// a symmetric neighborhood window. Immutable once created.
type SwingPoint struct {
	Index int       `json:"index"`
	Price float64   `json:"price"`
	Kind  SwingKind `json:"kind"`
}

// findSwings identifies local extremes in a value column. A bar is a swing
// high (low) when its value is the strict maximum (minimum) among its
// +/-strength neighbors. Bars carrying undefined values never qualify.
func findSwings(values []float64, strength int, kind SwingKind) []SwingPoint {
	var swings []SwingPoint
	if strength <= 0 || len(values) < strength*2+1 {
		return swings
	}

	for i := strength; i < len(values)-strength; i++ {
		current := values[i]
		if math.IsNaN(current) || math.IsInf(current, 0) {
			continue
		}

		isSwing := true
		for j := i - strength; j <= i+strength; j++ {
			if j == i {
				continue
			}
			neighbor := values[j]
			if math.IsNaN(neighbor) || math.IsInf(neighbor, 0) {
				isSwing = false
				break
			}
			if kind == SwingHigh && neighbor >= current {
				isSwing = false
				break
			}
			if kind == SwingLow && neighbor <= current {
				isSwing = false
				break
			}
		}

		if isSwing {
			swings = append(swings, SwingPoint{Index: i, Price: current, Kind: kind})
		}
	}
	return swings
}
