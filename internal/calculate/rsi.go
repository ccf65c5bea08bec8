package calculate

import "math"

// CalculateRSISeries computes the relative strength index for each index of
// prices using Wilder smoothing. Indexes before period carry NaN. Values are
// clamped to [0,100]; a zero average loss yields 100.
func CalculateRSISeries(prices []float64, period int) []float64 {
	rsi := make([]float64, len(prices))
	if len(prices) < period+1 {
		for i := range rsi {
			rsi[i] = math.NaN()
		}
		return rsi
	}

	for i := 0; i < period; i++ {
		rsi[i] = math.NaN()
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	rsi[period] = rsiValue(avgGain, avgLoss)

	// Wilder smoothing for the rest of the series
	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain = (avgGain*float64(period-1) + change) / float64(period)
			avgLoss = (avgLoss * float64(period-1)) / float64(period)
		} else {
			avgGain = (avgGain * float64(period-1)) / float64(period)
			avgLoss = (avgLoss*float64(period-1) - change) / float64(period)
		}
		rsi[i] = rsiValue(avgGain, avgLoss)
	}

	return rsi
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	value := 100.0 - (100.0 / (1.0 + rs))
	return math.Max(0, math.Min(100, value))
}
