package calculate

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algotrade-lab/signaler/internal/model"
)

func generateTestCandles(count int, build func(i int) model.Candle) []model.Candle {
	candles := make([]model.Candle, count)
	for i := range candles {
		candles[i] = build(i)
	}
	return candles
}

func flatCandles(count int, price float64) []model.Candle {
	return generateTestCandles(count, func(i int) model.Candle {
		return model.Candle{
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    1000,
			Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		}
	})
}

func TestCalculateEMASeries(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}
	ema := CalculateEMASeries(prices, 3)

	require.Len(t, ema, 5)
	assert.True(t, math.IsNaN(ema[0]))
	assert.True(t, math.IsNaN(ema[1]))
	// Seed is the SMA of the first three closes
	assert.InDelta(t, 2.0, ema[2], 1e-9)
	// k = 2/(3+1) = 0.5
	assert.InDelta(t, 3.0, ema[3], 1e-9)
	assert.InDelta(t, 4.0, ema[4], 1e-9)
}

func TestCalculateEMASeriesConstantPrices(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 42.5
	}

	for _, period := range []int{9, 21} {
		ema := CalculateEMASeries(prices, period)
		assert.InDelta(t, 42.5, ema[len(ema)-1], 1e-9)
		assert.InDelta(t, 42.5, ema[len(ema)-2], 1e-9)
	}
}

func TestCalculateEMASeriesTooShort(t *testing.T) {
	ema := CalculateEMASeries([]float64{1, 2}, 5)
	require.Len(t, ema, 2)
	for _, v := range ema {
		assert.True(t, math.IsNaN(v))
	}
}

func TestCalculateRSISeries(t *testing.T) {
	prices := []float64{10, 11, 12, 11, 10, 9, 10, 11, 12, 13, 14, 13, 12, 11, 12}
	rsi := CalculateRSISeries(prices, 5)

	require.Len(t, rsi, len(prices))
	for i := 0; i < 5; i++ {
		assert.True(t, math.IsNaN(rsi[i]), "index %d should be warm-up", i)
	}
	assert.InDelta(t, 40.00, rsi[5], 0.01)
	assert.InDelta(t, 52.00, rsi[6], 0.01)
}

func TestCalculateRSISeriesBounds(t *testing.T) {
	t.Run("only gains yields 100", func(t *testing.T) {
		prices := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		rsi := CalculateRSISeries(prices, 5)
		assert.Equal(t, 100.0, rsi[len(rsi)-1])
	})

	t.Run("only losses yields 0", func(t *testing.T) {
		prices := []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
		rsi := CalculateRSISeries(prices, 5)
		assert.Equal(t, 0.0, rsi[len(rsi)-1])
	})

	t.Run("always within [0,100]", func(t *testing.T) {
		prices := []float64{10, 100, 5, 200, 1, 300, 2, 400, 3, 500}
		rsi := CalculateRSISeries(prices, 3)
		for i, v := range rsi {
			if math.IsNaN(v) {
				continue
			}
			assert.GreaterOrEqual(t, v, 0.0, "index %d", i)
			assert.LessOrEqual(t, v, 100.0, "index %d", i)
		}
	})

	t.Run("constant prices yield 100 by zero-loss rule", func(t *testing.T) {
		prices := make([]float64, 20)
		for i := range prices {
			prices[i] = 7
		}
		rsi := CalculateRSISeries(prices, 14)
		assert.Equal(t, 100.0, rsi[len(rsi)-1])
	})
}

func TestCompute(t *testing.T) {
	candles := generateTestCandles(30, func(i int) model.Candle {
		return model.Candle{Close: 100 + float64(i)}
	})

	series, err := Compute(candles, 9, 21, 14)
	require.NoError(t, err)

	current := series.Current()
	assert.False(t, math.IsNaN(current.EMAFast))
	assert.False(t, math.IsNaN(current.EMASlow))
	assert.False(t, math.IsNaN(current.RSI))
	// Steady uptrend: fast EMA tracks price more closely than slow
	assert.Greater(t, current.EMAFast, current.EMASlow)
	assert.Equal(t, 100.0, current.RSI)

	previous, ok := series.Previous()
	require.True(t, ok)
	assert.Less(t, previous.EMAFast, current.EMAFast)
}

func TestComputeInsufficientData(t *testing.T) {
	candles := flatCandles(20, 50)

	_, err := Compute(candles, 9, 21, 14)
	require.Error(t, err)

	var insufficientErr *model.InsufficientDataError
	require.True(t, errors.As(err, &insufficientErr))
	assert.Equal(t, 21, insufficientErr.Need)
	assert.Equal(t, 20, insufficientErr.Got)
}

func TestComputeConstantPrices(t *testing.T) {
	candles := flatCandles(25, 1.2345)

	series, err := Compute(candles, 9, 21, 14)
	require.NoError(t, err)

	current := series.Current()
	assert.InDelta(t, 1.2345, current.EMAFast, 1e-9)
	assert.InDelta(t, 1.2345, current.EMASlow, 1e-9)
	assert.Equal(t, current.EMAFast, current.EMASlow)
}

func TestSeriesPreviousUndefined(t *testing.T) {
	// Exactly the minimum window: the slow EMA has a single computed point,
	// so the previous snapshot must be reported absent.
	candles := flatCandles(21, 10)

	series, err := Compute(candles, 9, 21, 14)
	require.NoError(t, err)

	_, ok := series.Previous()
	assert.False(t, ok)
}
