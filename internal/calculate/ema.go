package calculate

import "math"

// CalculateEMASeries computes the exponential moving average for each index of
// prices. Indexes before period-1 carry NaN; index period-1 is seeded with the
// simple moving average of the first period closes.
func CalculateEMASeries(prices []float64, period int) []float64 {
	ema := make([]float64, len(prices))
	if len(prices) < period {
		for i := range ema {
			ema[i] = math.NaN()
		}
		return ema
	}

	for i := 0; i < period-1; i++ {
		ema[i] = math.NaN()
	}

	// Simple moving average seeds the series
	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	ema[period-1] = sum / float64(period)

	// Multiplier for weighting the EMA
	multiplier := 2.0 / float64(period+1)

	for i := period; i < len(prices); i++ {
		ema[i] = ema[i-1]*(1-multiplier) + prices[i]*multiplier
	}

	return ema
}
