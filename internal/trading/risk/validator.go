package risk

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/algotrade-lab/signaler/internal/model"
)

// Limits are the configurable bounds a trade setup must stay within
type Limits struct {
	MaxRiskPercent     float64 // max loss per trade as percent of the account
	MinRiskReward      float64 // min acceptable risk/reward ratio
	MaxStopLossPercent float64 // max stop distance as percent of entry
}

// DefaultLimits returns the standard risk bounds
func DefaultLimits() Limits {
	return Limits{
		MaxRiskPercent:     2,
		MinRiskReward:      1.5,
		MaxStopLossPercent: 5,
	}
}

// Validator checks derived risk parameters against the configured limits
type Validator struct {
	limits      Limits
	accountSize float64 // reference account size for the risk-percent check
	logger      zerolog.Logger
}

// NewValidator creates a validator. accountSize is the reference balance in
// USDT used only for the risk-percent check; it defaults to 1000.
func NewValidator(limits Limits, accountSize float64) *Validator {
	if accountSize <= 0 {
		accountSize = 1000
	}
	return &Validator{
		limits:      limits,
		accountSize: accountSize,
		logger:      log.With().Str("component", "risk_validator").Logger(),
	}
}

// Validate runs every check and collects a reason per violation; no check
// short-circuits the others. RiskPercent is reported regardless of validity.
func (v *Validator) Validate(params model.RiskParameters) model.ValidationResult {
	riskPercent := params.RiskAmount / v.accountSize * 100

	var reasons []string
	if params.RiskRewardRatio < v.limits.MinRiskReward {
		reasons = append(reasons, fmt.Sprintf(
			"risk/reward ratio %.2f below minimum %.2f",
			params.RiskRewardRatio, v.limits.MinRiskReward))
	}
	if params.StopLossPercent > v.limits.MaxStopLossPercent {
		reasons = append(reasons, fmt.Sprintf(
			"stop-loss distance %.2f%% exceeds maximum %.2f%%",
			params.StopLossPercent, v.limits.MaxStopLossPercent))
	}
	if riskPercent > v.limits.MaxRiskPercent {
		reasons = append(reasons, fmt.Sprintf(
			"risk %.2f%% of account exceeds maximum %.2f%%",
			riskPercent, v.limits.MaxRiskPercent))
	}

	result := model.ValidationResult{
		Valid:       len(reasons) == 0,
		Reasons:     reasons,
		RiskPercent: riskPercent,
	}
	if result.Valid {
		result.Reasons = []string{fmt.Sprintf("all risk checks passed, risking %.2f%% of account", riskPercent)}
	} else {
		v.logger.Warn().Strs("reasons", reasons).Msg("risk parameters rejected")
	}

	return result
}
