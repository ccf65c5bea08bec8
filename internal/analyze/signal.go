package analyze

import (
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/algotrade-lab/signaler/internal/model"
)

// Thresholds holds the RSI bands the classifier trades within
type Thresholds struct {
	RSIOverbought float64 // upper bound for BUY (default 70)
	RSIOversold   float64 // lower bound for SELL (default 30)
	RSIBuyMin     float64 // lower bound for BUY (default 50)
	RSISellMax    float64 // upper bound for SELL (default 50)
}

// DefaultThresholds returns the standard RSI bands
func DefaultThresholds() Thresholds {
	return Thresholds{
		RSIOverbought: 70,
		RSIOversold:   30,
		RSIBuyMin:     50,
		RSISellMax:    50,
	}
}

// Classifier turns indicator snapshots into a discrete trade signal
type Classifier struct {
	thresholds Thresholds
	logger     zerolog.Logger
}

// NewClassifier creates a classifier with the given RSI bands
func NewClassifier(thresholds Thresholds) *Classifier {
	return &Classifier{
		thresholds: thresholds,
		logger:     log.With().Str("component", "classifier").Logger(),
	}
}

// Classify combines the current and previous indicator values into a signal
// with a 0-100 confidence score. previous may be nil when fewer than two
// indicator points exist; crossover flags are then false.
func (c *Classifier) Classify(current model.IndicatorSnapshot, previous *model.IndicatorSnapshot, latestClose float64, timestamp time.Time) model.Signal {
	signal := model.Signal{
		Kind:         model.SignalHold,
		Indicators:   current,
		Trend:        model.TrendNeutral,
		CurrentPrice: latestClose,
		Timestamp:    timestamp,
	}

	if current.EMAFast > current.EMASlow {
		signal.Trend = model.TrendBullish
	} else if current.EMAFast < current.EMASlow {
		signal.Trend = model.TrendBearish
	}

	if previous != nil {
		signal.Crossover.Bullish = previous.EMAFast <= previous.EMASlow && current.EMAFast > current.EMASlow
		signal.Crossover.Bearish = previous.EMAFast >= previous.EMASlow && current.EMAFast < current.EMASlow
	}

	t := c.thresholds
	switch {
	case current.EMAFast > current.EMASlow && current.RSI > t.RSIBuyMin && current.RSI < t.RSIOverbought:
		signal.Kind = model.SignalBuy
	case current.EMAFast < current.EMASlow && current.RSI > t.RSIOversold && current.RSI < t.RSISellMax:
		signal.Kind = model.SignalSell
	default:
		c.logger.Debug().
			Str("trend", string(signal.Trend)).
			Float64("rsi", current.RSI).
			Msg("no entry conditions met, holding")
		return signal
	}

	signal.Confidence = c.confidence(signal, current)

	c.logger.Debug().
		Str("signal", string(signal.Kind)).
		Float64("confidence", signal.Confidence).
		Float64("ema_fast", current.EMAFast).
		Float64("ema_slow", current.EMASlow).
		Float64("rsi", current.RSI).
		Msg("signal classified")

	return signal
}

// confidence scores BUY/SELL signals: base 50, plus a trend-strength bonus
// capped at 20, an RSI sweet-spot bonus, and a crossover bonus, capped at 100.
func (c *Classifier) confidence(signal model.Signal, current model.IndicatorSnapshot) float64 {
	score := 50.0

	separation := math.Abs((current.EMAFast - current.EMASlow) / current.EMASlow * 100)
	score += math.Min(separation*10, 20)

	inSweetSpot := false
	if signal.Kind == model.SignalBuy {
		inSweetSpot = current.RSI >= 55 && current.RSI <= 65
	} else {
		inSweetSpot = current.RSI >= 35 && current.RSI <= 45
	}
	if inSweetSpot {
		score += 15
	} else {
		score += 5
	}

	if (signal.Kind == model.SignalBuy && signal.Crossover.Bullish) ||
		(signal.Kind == model.SignalSell && signal.Crossover.Bearish) {
		score += 15
	}

	return math.Min(score, 100)
}
