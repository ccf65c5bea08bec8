package calculate

import (
	"math"

	"github.com/algotrade-lab/signaler/internal/model"
)

// Series holds the full EMA and RSI series over a candle window, aligned by
// candle index. The classifier reads the last two points for crossover
// detection; earlier points are kept for backtest windows.
type Series struct {
	EMAFast []float64
	EMASlow []float64
	RSI     []float64
}

// Compute calculates the fast/slow EMA and RSI series over the candle closes.
// The window must cover the slow EMA period and the RSI warm-up; otherwise an
// InsufficientDataError is returned. Pure function of its input, safe to call
// repeatedly with growing windows.
func Compute(candles []model.Candle, fastPeriod, slowPeriod, rsiPeriod int) (*Series, error) {
	need := slowPeriod
	if rsiPeriod+1 > need {
		need = rsiPeriod + 1
	}
	if len(candles) < need {
		return nil, &model.InsufficientDataError{Need: need, Got: len(candles)}
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	return &Series{
		EMAFast: CalculateEMASeries(closes, fastPeriod),
		EMASlow: CalculateEMASeries(closes, slowPeriod),
		RSI:     CalculateRSISeries(closes, rsiPeriod),
	}, nil
}

// Current returns the indicator values at the last candle
func (s *Series) Current() model.IndicatorSnapshot {
	last := len(s.EMAFast) - 1
	return model.IndicatorSnapshot{
		EMAFast: s.EMAFast[last],
		EMASlow: s.EMASlow[last],
		RSI:     s.RSI[last],
	}
}

// Previous returns the indicator values at the second-to-last candle. The
// second return is false when fewer than two fully-computed points exist, in
// which case crossover detection must treat the previous point as absent.
func (s *Series) Previous() (model.IndicatorSnapshot, bool) {
	if len(s.EMAFast) < 2 {
		return model.IndicatorSnapshot{}, false
	}
	prev := len(s.EMAFast) - 2
	snapshot := model.IndicatorSnapshot{
		EMAFast: s.EMAFast[prev],
		EMASlow: s.EMASlow[prev],
		RSI:     s.RSI[prev],
	}
	if math.IsNaN(snapshot.EMAFast) || math.IsNaN(snapshot.EMASlow) || math.IsNaN(snapshot.RSI) {
		return model.IndicatorSnapshot{}, false
	}
	return snapshot, true
}
