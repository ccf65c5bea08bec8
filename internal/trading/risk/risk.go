package risk

import (
	"math"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/algotrade-lab/signaler/internal/model"
)

const lookback = 5 // candles considered for the stop-loss extreme

// Calculator derives stop-loss, take-profit and position size from a signal
// and the most recent candle extremes.
type Calculator struct {
	buffer     float64 // stop-loss buffer as a fraction of the extreme price
	riskReward float64 // take-profit distance as a multiple of the risk distance
	logger     zerolog.Logger
}

// NewCalculator creates a calculator. bufferPercent is the stop-loss buffer in
// percent (0.5 means 0.5%); riskReward is the target-to-risk multiple.
func NewCalculator(bufferPercent, riskReward float64) *Calculator {
	if bufferPercent <= 0 {
		bufferPercent = 0.5
	}
	if riskReward <= 0 {
		riskReward = 2
	}
	return &Calculator{
		buffer:     bufferPercent / 100,
		riskReward: riskReward,
		logger:     log.With().Str("component", "risk_calculator").Logger(),
	}
}

// DeriveRisk computes the risk parameters for a signal. entryOverride is used
// as the entry price when positive; otherwise the signal's current price.
// positionSizeUSDT defaults to 100 when not positive. HOLD signals yield the
// empty-side variant, not an error.
func (c *Calculator) DeriveRisk(signal model.Signal, candles []model.Candle, entryOverride, positionSizeUSDT float64) (model.RiskParameters, error) {
	if len(candles) < lookback {
		return model.RiskParameters{}, &model.InsufficientDataError{Need: lookback, Got: len(candles)}
	}

	entry := signal.CurrentPrice
	if entryOverride > 0 {
		entry = entryOverride
	}
	if entry <= 0 || math.IsNaN(entry) || math.IsInf(entry, 0) {
		return model.RiskParameters{}, &model.InvalidEntryError{Price: entry}
	}

	if positionSizeUSDT <= 0 {
		positionSizeUSDT = 100
	}

	if signal.Kind == model.SignalHold {
		return model.RiskParameters{
			Signal: model.SignalHold,
			Entry:  roundTo(entry, 6),
		}, nil
	}

	recent := candles[len(candles)-lookback:]
	var side model.Side
	var stopLoss float64
	if signal.Kind == model.SignalBuy {
		side = model.SideLong
		stopLoss = lowestLow(recent) * (1 - c.buffer)
	} else {
		side = model.SideShort
		stopLoss = highestHigh(recent) * (1 + c.buffer)
	}

	var riskDistance float64
	if side == model.SideLong {
		riskDistance = entry - stopLoss
	} else {
		riskDistance = stopLoss - entry
	}
	if riskDistance <= 0 {
		// Entry already inside the buffered extreme; no sane stop exists
		return model.RiskParameters{}, &model.InvalidEntryError{Price: entry}
	}

	var takeProfit float64
	if side == model.SideLong {
		takeProfit = entry + c.riskReward*riskDistance
	} else {
		takeProfit = entry - c.riskReward*riskDistance
	}

	quantity := positionSizeUSDT / entry
	riskAmount := riskDistance * quantity
	potentialProfit := math.Abs(takeProfit-entry) * quantity

	params := model.RiskParameters{
		Signal:            signal.Kind,
		Side:              side,
		Entry:             roundTo(entry, 6),
		StopLoss:          ptr(roundTo(stopLoss, 6)),
		TakeProfit:        ptr(roundTo(takeProfit, 6)),
		Quantity:          roundTo(quantity, 4),
		PositionSizeUSDT:  roundTo(positionSizeUSDT, 2),
		RiskRewardRatio:   roundTo(math.Abs(takeProfit-entry)/riskDistance, 2),
		RiskAmount:        roundTo(riskAmount, 2),
		PotentialProfit:   roundTo(potentialProfit, 2),
		StopLossPercent:   roundTo(riskDistance/entry*100, 2),
		TakeProfitPercent: roundTo(math.Abs(takeProfit-entry)/entry*100, 2),
	}

	c.logger.Debug().
		Str("side", string(side)).
		Float64("entry", params.Entry).
		Float64("stop_loss", *params.StopLoss).
		Float64("take_profit", *params.TakeProfit).
		Float64("quantity", params.Quantity).
		Msg("risk parameters derived")

	return params, nil
}

func lowestLow(candles []model.Candle) float64 {
	low := candles[0].Low
	for _, c := range candles[1:] {
		if c.Low < low {
			low = c.Low
		}
	}
	return low
}

func highestHigh(candles []model.Candle) float64 {
	high := candles[0].High
	for _, c := range candles[1:] {
		if c.High > high {
			high = c.High
		}
	}
	return high
}

// roundTo rounds at the output boundary only; internal math keeps full precision
func roundTo(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}

func ptr(v float64) *float64 {
	return &v
}
