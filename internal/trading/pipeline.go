package trading

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/algotrade-lab/signaler/config"
	"github.com/algotrade-lab/signaler/internal/analyze"
	"github.com/algotrade-lab/signaler/internal/calculate"
	"github.com/algotrade-lab/signaler/internal/model"
	"github.com/algotrade-lab/signaler/internal/trading/risk"
)

// Analysis is the outcome of one pipeline pass over a candle window
type Analysis struct {
	Signal     model.Signal            `json:"signal"`
	Risk       model.RiskParameters    `json:"risk"`
	Validation *model.ValidationResult `json:"validation,omitempty"`
}

// Pipeline wires indicators, classification, risk derivation and validation
// into a single synchronous pass. It holds no state between calls.
type Pipeline struct {
	cfg        *config.Config
	classifier *analyze.Classifier
	calculator *risk.Calculator
	validator  *risk.Validator
	logger     zerolog.Logger
}

// NewPipeline builds the pipeline from configuration
func NewPipeline(cfg *config.Config) *Pipeline {
	return &Pipeline{
		cfg: cfg,
		classifier: analyze.NewClassifier(analyze.Thresholds{
			RSIOverbought: cfg.RSIOverbought,
			RSIOversold:   cfg.RSIOversold,
			RSIBuyMin:     cfg.RSIBuyMin,
			RSISellMax:    cfg.RSISellMax,
		}),
		calculator: risk.NewCalculator(cfg.StopLossBufferPercent, cfg.RiskRewardRatio),
		validator: risk.NewValidator(risk.Limits{
			MaxRiskPercent:     cfg.MaxRiskPercent,
			MinRiskReward:      cfg.MinRiskReward,
			MaxStopLossPercent: cfg.MaxStopLossPercent,
		}, cfg.AccountSizeUSDT),
		logger: log.With().Str("component", "pipeline").Logger(),
	}
}

// Analyze runs candles through indicators, classification and risk
// derivation. Validation is attached only for actionable signals.
func (p *Pipeline) Analyze(candles []model.Candle) (*Analysis, error) {
	series, err := calculate.Compute(candles, p.cfg.EMAFastPeriod, p.cfg.EMASlowPeriod, p.cfg.RSIPeriod)
	if err != nil {
		return nil, fmt.Errorf("computing indicators: %w", err)
	}

	last := candles[len(candles)-1]
	current := series.Current()

	var previous *model.IndicatorSnapshot
	if prev, ok := series.Previous(); ok {
		previous = &prev
	}

	signal := p.classifier.Classify(current, previous, last.Close, last.Timestamp)

	params, err := p.calculator.DeriveRisk(signal, candles, 0, p.cfg.PositionSizeUSDT)
	if err != nil {
		return nil, fmt.Errorf("deriving risk parameters: %w", err)
	}

	analysis := &Analysis{
		Signal: signal,
		Risk:   params,
	}
	if params.Actionable() {
		validation := p.validator.Validate(params)
		analysis.Validation = &validation
	}

	return analysis, nil
}
