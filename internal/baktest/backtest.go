package baktest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/algotrade-lab/signaler/config"
	"github.com/algotrade-lab/signaler/internal/model"
	"github.com/algotrade-lab/signaler/internal/trading"
)

// TradeResult records one simulated trade
type TradeResult struct {
	Signal     model.SignalKind `json:"signal"`
	Side       model.Side       `json:"side"`
	Confidence float64          `json:"confidence"`
	EntryIndex int              `json:"entry_index"`
	ExitIndex  int              `json:"exit_index"`
	Entry      float64          `json:"entry"`
	StopLoss   float64          `json:"stop_loss"`
	TakeProfit float64          `json:"take_profit"`
	ExitPrice  float64          `json:"exit_price"`
	PnL        float64          `json:"pnl"`
	Win        bool             `json:"win"`
	Timestamp  time.Time        `json:"timestamp"`
}

// Results aggregates a backtest run
type Results struct {
	Trades               int           `json:"trades"`
	Wins                 int           `json:"wins"`
	Losses               int           `json:"losses"`
	WinRate              float64       `json:"win_rate"`
	TotalProfit          float64       `json:"total_profit"`
	TotalLoss            float64       `json:"total_loss"`
	ProfitFactor         float64       `json:"profit_factor"`
	InitialBalance       float64       `json:"initial_balance"`
	FinalBalance         float64       `json:"final_balance"`
	MaxDrawdownPercent   float64       `json:"max_drawdown_percent"`
	MaxConsecutiveWins   int           `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int           `json:"max_consecutive_losses"`
	DetailedResults      []TradeResult `json:"detailed_results"`
}

const initialBalance = 10000.0

// Run replays the pipeline over historical candles with a growing window.
// Each actionable signal is resolved against later candles' extremes: the
// stop or the target, whichever is touched first; a candle touching both
// counts as a stop. Open trades at the end close at the last close.
func Run(ctx context.Context, candles []model.Candle, cfg *config.Config) (*Results, error) {
	windowSize := cfg.CandleCount
	minWindow := cfg.EMASlowPeriod
	if cfg.RSIPeriod+1 > minWindow {
		minWindow = cfg.RSIPeriod + 1
	}
	if windowSize < minWindow {
		windowSize = minWindow
	}
	if len(candles) <= windowSize {
		return nil, &model.InsufficientDataError{Need: windowSize + 1, Got: len(candles)}
	}

	logger := log.With().Str("component", "backtest").Logger()
	pipeline := trading.NewPipeline(cfg)

	results := &Results{
		InitialBalance: initialBalance,
	}
	balance := initialBalance
	peak := initialBalance
	consecutiveWins := 0
	consecutiveLosses := 0

	for i := windowSize; i < len(candles); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		analysis, err := pipeline.Analyze(candles[:i])
		if err != nil {
			return nil, fmt.Errorf("analyzing window ending at %d: %w", i, err)
		}
		if !analysis.Risk.Actionable() {
			continue
		}
		if analysis.Validation != nil && !analysis.Validation.Valid {
			continue
		}

		trade := resolveTrade(candles, i, analysis)
		results.Trades++
		results.DetailedResults = append(results.DetailedResults, trade)

		if trade.Win {
			results.Wins++
			results.TotalProfit += trade.PnL
			consecutiveWins++
			consecutiveLosses = 0
			if consecutiveWins > results.MaxConsecutiveWins {
				results.MaxConsecutiveWins = consecutiveWins
			}
		} else {
			results.Losses++
			results.TotalLoss += -trade.PnL
			consecutiveLosses++
			consecutiveWins = 0
			if consecutiveLosses > results.MaxConsecutiveLosses {
				results.MaxConsecutiveLosses = consecutiveLosses
			}
		}

		balance += trade.PnL
		if balance > peak {
			peak = balance
		}
		if drawdown := (peak - balance) / peak * 100; drawdown > results.MaxDrawdownPercent {
			results.MaxDrawdownPercent = drawdown
		}

		// Skip forward past the resolved trade so positions don't overlap
		i = trade.ExitIndex
	}

	results.FinalBalance = balance
	if results.Trades > 0 {
		results.WinRate = float64(results.Wins) / float64(results.Trades) * 100
	}
	if results.TotalLoss > 0 {
		results.ProfitFactor = results.TotalProfit / results.TotalLoss
	}

	logger.Info().
		Int("trades", results.Trades).
		Float64("win_rate", results.WinRate).
		Float64("final_balance", results.FinalBalance).
		Msg("backtest complete")

	return results, nil
}

// resolveTrade walks candles after the entry index until the stop or target
// is touched. entryIndex is the first candle not part of the analysis window.
func resolveTrade(candles []model.Candle, entryIndex int, analysis *trading.Analysis) TradeResult {
	params := analysis.Risk
	trade := TradeResult{
		Signal:     params.Signal,
		Side:       params.Side,
		Confidence: analysis.Signal.Confidence,
		EntryIndex: entryIndex,
		Entry:      params.Entry,
		StopLoss:   *params.StopLoss,
		TakeProfit: *params.TakeProfit,
		Timestamp:  analysis.Signal.Timestamp,
	}

	for j := entryIndex; j < len(candles); j++ {
		c := candles[j]
		var stopped, hitTarget bool
		if params.Side == model.SideLong {
			stopped = c.Low <= trade.StopLoss
			hitTarget = c.High >= trade.TakeProfit
		} else {
			stopped = c.High >= trade.StopLoss
			hitTarget = c.Low <= trade.TakeProfit
		}

		if stopped {
			trade.ExitIndex = j
			trade.ExitPrice = trade.StopLoss
			trade.PnL = pnl(params, trade.StopLoss)
			return trade
		}
		if hitTarget {
			trade.ExitIndex = j
			trade.ExitPrice = trade.TakeProfit
			trade.PnL = pnl(params, trade.TakeProfit)
			trade.Win = true
			return trade
		}
	}

	// Never resolved; close at the final candle
	last := len(candles) - 1
	trade.ExitIndex = last
	trade.ExitPrice = candles[last].Close
	trade.PnL = pnl(params, trade.ExitPrice)
	trade.Win = trade.PnL > 0
	return trade
}

func pnl(params model.RiskParameters, exit float64) float64 {
	if params.Side == model.SideLong {
		return (exit - params.Entry) * params.Quantity
	}
	return (params.Entry - exit) * params.Quantity
}
