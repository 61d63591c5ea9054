package indicators

import (
	"math"

	"github.com/schundi365/IndianTradingbot-sub002/internal/series"
)

// ============================================================================
// MOVING AVERAGES
// ============================================================================

// SMASeries calculates a Simple Moving Average for every bar.
// The first period-1 entries are undefined.
func SMASeries(values []float64, period int) series.IndicatorSeries {
	out := series.NewIndicatorSeries(len(values), period-1)
	if period <= 0 || len(values) < period {
		return series.NewIndicatorSeries(len(values), len(values))
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out.Values[i] = sum / float64(period)
		}
	}
	return out
}

// EMASeries calculates an Exponential Moving Average for every bar, seeded
// with the SMA of the first period values.
func EMASeries(values []float64, period int) series.IndicatorSeries {
	out := series.NewIndicatorSeries(len(values), period-1)
	if period <= 0 || len(values) < period {
		return series.NewIndicatorSeries(len(values), len(values))
	}

	seed, _ := SMASeries(values, period).At(period - 1)

	multiplier := 2.0 / float64(period+1)
	ema := seed
	out.Values[period-1] = ema
	for i := period; i < len(values); i++ {
		ema = (values[i] * multiplier) + (ema * (1 - multiplier))
		out.Values[i] = ema
	}
	return out
}

// ============================================================================
// OSCILLATORS
// ============================================================================

// RSISeries calculates the Relative Strength Index for every bar using
// Wilder smoothing. Values are in [0,100]; the first period entries are
// undefined.
func RSISeries(values []float64, period int) series.IndicatorSeries {
	out := series.NewIndicatorSeries(len(values), period)
	if period <= 0 || len(values) < period+1 {
		return series.NewIndicatorSeries(len(values), len(values))
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out.Values[period] = rsiFrom(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out.Values[i] = rsiFrom(avgGain, avgLoss)
	}
	return out
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// StochasticKSeries calculates the stochastic %K line for every bar:
// position of the close within the rolling high/low range, in [0,100].
func StochasticKSeries(s *series.Series, period int) series.IndicatorSeries {
	n := s.Len()
	out := series.NewIndicatorSeries(n, period-1)
	if period <= 0 || n < period {
		return series.NewIndicatorSeries(n, n)
	}

	for i := period - 1; i < n; i++ {
		highest := s.Points[i].High
		lowest := s.Points[i].Low
		for j := i - period + 1; j <= i; j++ {
			if s.Points[j].High > highest {
				highest = s.Points[j].High
			}
			if s.Points[j].Low < lowest {
				lowest = s.Points[j].Low
			}
		}
		if highest == lowest {
			out.Values[i] = 50.0
			continue
		}
		out.Values[i] = (s.Points[i].Close - lowest) / (highest - lowest) * 100
	}
	return out
}

// ============================================================================
// SLOPE AND MOMENTUM
// ============================================================================

// Slope calculates the linear regression slope of the data, in value units
// per bar.
func Slope(data []float64) float64 {
	n := len(data)
	if n < 2 {
		return 0
	}

	sumX, sumY, sumXY, sumX2 := 0.0, 0.0, 0.0, 0.0
	for i := 0; i < n; i++ {
		x := float64(i)
		y := data[i]
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return 0
		}
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	denominator := float64(n)*sumX2 - sumX*sumX
	if denominator == 0 {
		return 0
	}
	return (float64(n)*sumXY - sumX*sumY) / denominator
}

// SlopeAt calculates the regression slope of an indicator over the window
// of bars ending at index end (inclusive). Returns false when the window
// contains undefined values.
func SlopeAt(is series.IndicatorSeries, end, window int) (float64, bool) {
	if window < 2 || end-window+1 < 0 || end >= is.Len() {
		return 0, false
	}
	buf := make([]float64, 0, window)
	for i := end - window + 1; i <= end; i++ {
		v, ok := is.At(i)
		if !ok {
			return 0, false
		}
		buf = append(buf, v)
	}
	return Slope(buf), true
}

// ============================================================================
// VOLUME
// ============================================================================

// AverageVolume calculates the mean volume of the last period bars,
// excluding the current (possibly still forming) bar.
func AverageVolume(s *series.Series, period int) float64 {
	n := s.Len()
	if n < 2 {
		return 0
	}
	if period <= 0 || period > n-1 {
		period = n - 1
	}

	sum := 0.0
	for i := n - 1 - period; i < n-1; i++ {
		sum += s.Points[i].Volume
	}
	return sum / float64(period)
}

// VolumeRatio returns the current bar's volume relative to the rolling
// average, 0 when no average is available.
func VolumeRatio(s *series.Series, period int) float64 {
	avg := AverageVolume(s, period)
	if avg <= 0 {
		return 0
	}
	last, ok := s.Last()
	if !ok {
		return 0
	}
	return last.Volume / avg
}
