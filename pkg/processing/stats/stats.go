package stats

import (
	"math"

	"github.com/mpapenbr/lapviewer/pkg/model"
)

// Summary holds mean and population standard deviation
type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
}

// Compute returns mean and population standard deviation (divided by N).
// Callers filter null values before. No values yield a zero Summary.
func Compute(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	n := float64(len(values))
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return Summary{Mean: mean, StdDev: math.Sqrt(variance / n)}
}

// MinMax returns the smallest and largest value. ok is false for no values.
func MinMax(values []float64) (minVal, maxVal float64, ok bool) {
	if len(values) == 0 {
		return 0, 0, false
	}
	minVal, maxVal = values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	return minVal, maxVal, true
}

// Trend computes the least squares fit over the non-null entries.
// x is the 1-based position in series, null entries keep their position.
// Returns false if there are less than 2 valid points.
func Trend(series model.LapTimeSeries) (model.Trendline, bool) {
	var n, sumX, sumY, sumXY, sumXX float64
	for i, v := range series {
		y, ok := v.Get()
		if !ok {
			continue
		}
		x := float64(i + 1)
		n++
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	if n < 2 {
		return model.Trendline{}, false
	}
	slope := (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)
	intercept := (sumY - slope*sumX) / n
	return model.Trendline{Slope: slope, Intercept: intercept}, true
}

// Clamp limits v to [lower, upper]
func Clamp(v, lower, upper float64) float64 {
	return math.Max(lower, math.Min(upper, v))
}
