package risk

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algotrade-lab/signaler/internal/model"
)

// ascendingCandles builds the reference window: open = 0.50 + 0.005*i
func ascendingCandles(count int) []model.Candle {
	candles := make([]model.Candle, count)
	for i := range candles {
		open := 0.50 + 0.005*float64(i)
		candles[i] = model.Candle{
			Open:      open,
			High:      open + 0.005,
			Low:       open - 0.002,
			Close:     open + 0.003,
			Volume:    1000,
			Timestamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		}
	}
	return candles
}

func buySignal(price float64) model.Signal {
	return model.Signal{
		Kind:         model.SignalBuy,
		Confidence:   75,
		CurrentPrice: price,
		Timestamp:    time.Date(2024, 3, 1, 0, 9, 0, 0, time.UTC),
	}
}

func TestDeriveRiskLong(t *testing.T) {
	calc := NewCalculator(0.5, 2)
	candles := ascendingCandles(10)

	params, err := calc.DeriveRisk(buySignal(0.545), candles, 0, 100)
	require.NoError(t, err)

	assert.Equal(t, model.SideLong, params.Side)
	assert.InDelta(t, 0.545, params.Entry, 1e-9)

	// Lowest low of the last 5 candles is 0.523; buffered by 0.5%
	require.NotNil(t, params.StopLoss)
	assert.InDelta(t, 0.523*0.995, *params.StopLoss, 1e-6)

	// Take-profit sits two risk distances above entry
	require.NotNil(t, params.TakeProfit)
	riskDistance := 0.545 - 0.523*0.995
	assert.InDelta(t, 0.545+2*riskDistance, *params.TakeProfit, 1e-5)

	assert.InDelta(t, 100.0/0.545, params.Quantity, 1e-4)
	assert.InDelta(t, 2.0, params.RiskRewardRatio, 0.01)
	assert.InDelta(t, 100.0, params.PositionSizeUSDT, 1e-9)

	// LONG invariant: stop <= entry <= target
	assert.LessOrEqual(t, *params.StopLoss, params.Entry)
	assert.LessOrEqual(t, params.Entry, *params.TakeProfit)

	// Profit is twice the risked amount at a 1:2 ratio
	assert.InDelta(t, 2*params.RiskAmount, params.PotentialProfit, 0.02)
}

func TestDeriveRiskShort(t *testing.T) {
	calc := NewCalculator(0.5, 2)
	candles := ascendingCandles(10)

	signal := buySignal(0.545)
	signal.Kind = model.SignalSell

	params, err := calc.DeriveRisk(signal, candles, 0, 100)
	require.NoError(t, err)

	assert.Equal(t, model.SideShort, params.Side)

	// Highest high of the last 5 candles is 0.550; buffered by 0.5%
	require.NotNil(t, params.StopLoss)
	assert.InDelta(t, 0.550*1.005, *params.StopLoss, 1e-6)

	// SHORT invariant: target <= entry <= stop
	require.NotNil(t, params.TakeProfit)
	assert.LessOrEqual(t, *params.TakeProfit, params.Entry)
	assert.LessOrEqual(t, params.Entry, *params.StopLoss)

	assert.InDelta(t, 2.0, params.RiskRewardRatio, 0.01)
}

func TestDeriveRiskHold(t *testing.T) {
	calc := NewCalculator(0.5, 2)
	candles := ascendingCandles(10)

	signal := buySignal(0.545)
	signal.Kind = model.SignalHold

	params, err := calc.DeriveRisk(signal, candles, 0, 100)
	require.NoError(t, err)

	assert.Equal(t, model.SignalHold, params.Signal)
	assert.Empty(t, params.Side)
	assert.Nil(t, params.StopLoss)
	assert.Nil(t, params.TakeProfit)
	assert.Zero(t, params.Quantity)
	assert.Zero(t, params.PositionSizeUSDT)
	assert.Zero(t, params.RiskRewardRatio)
	assert.Zero(t, params.RiskAmount)
	assert.Zero(t, params.PotentialProfit)
}

func TestDeriveRiskEntryOverride(t *testing.T) {
	calc := NewCalculator(0.5, 2)
	candles := ascendingCandles(10)

	params, err := calc.DeriveRisk(buySignal(0.545), candles, 0.6, 100)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, params.Entry, 1e-9)
	assert.InDelta(t, 100.0/0.6, params.Quantity, 1e-4)
}

func TestDeriveRiskErrors(t *testing.T) {
	calc := NewCalculator(0.5, 2)

	t.Run("insufficient candles", func(t *testing.T) {
		_, err := calc.DeriveRisk(buySignal(0.545), ascendingCandles(4), 0, 100)
		var insufficientErr *model.InsufficientDataError
		require.True(t, errors.As(err, &insufficientErr))
		assert.Equal(t, 5, insufficientErr.Need)
	})

	t.Run("invalid entry price", func(t *testing.T) {
		_, err := calc.DeriveRisk(buySignal(0), ascendingCandles(10), 0, 100)
		var entryErr *model.InvalidEntryError
		require.True(t, errors.As(err, &entryErr))
	})

	t.Run("non-finite entry price", func(t *testing.T) {
		_, err := calc.DeriveRisk(buySignal(math.NaN()), ascendingCandles(10), 0, 100)
		var entryErr *model.InvalidEntryError
		require.True(t, errors.As(err, &entryErr))
	})

	t.Run("entry below the buffered stop", func(t *testing.T) {
		_, err := calc.DeriveRisk(buySignal(0.40), ascendingCandles(10), 0, 100)
		var entryErr *model.InvalidEntryError
		require.True(t, errors.As(err, &entryErr))
	})
}

func TestDeriveRiskDefaultPositionSize(t *testing.T) {
	calc := NewCalculator(0.5, 2)

	params, err := calc.DeriveRisk(buySignal(0.545), ascendingCandles(10), 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, params.PositionSizeUSDT, 1e-9)
}
