package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/algotrade-lab/signaler/config"
	"github.com/algotrade-lab/signaler/internal/api/binance"
	"github.com/algotrade-lab/signaler/internal/baktest"
	"github.com/algotrade-lab/signaler/internal/notifier"
	"github.com/algotrade-lab/signaler/internal/trading"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}
}

// report is the JSON document printed at the boundary
type report struct {
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
	Result  *trading.Analysis `json:"result,omitempty"`
}

func main() {
	cfg := config.Load()

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	ctx := context.Background()

	client := binance.NewClient(binance.ClientOptions{
		APIKey:         cfg.BinanceAPIKey,
		APISecret:      cfg.BinanceAPISecret,
		BaseURL:        cfg.BinanceBaseURL,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
	})

	candles, err := client.GetKlines(ctx, cfg.Symbol, cfg.Interval, cfg.CandleCount)
	if err != nil {
		fail(fmt.Errorf("fetching candles: %w", err))
	}

	pipeline := trading.NewPipeline(cfg)
	analysis, err := pipeline.Analyze(candles)
	if err != nil {
		fail(err)
	}

	printJSON(report{Success: true, Result: analysis})

	if analysis.Risk.Actionable() && cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notifier.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, cfg.Symbol)
		if err != nil {
			log.Error().Err(err).Msg("telegram notifier unavailable")
		} else if err := tg.NotifySignal(analysis.Signal, analysis.Risk, *analysis.Validation); err != nil {
			log.Error().Err(err).Msg("sending signal notification failed")
		}
	}

	if cfg.EnableBacktest {
		log.Info().Msg("running backtest over fetched history")
		results, err := baktest.Run(ctx, candles, cfg)
		if err != nil {
			log.Error().Err(err).Msg("backtest failed")
			return
		}
		fmt.Printf("\n===== BACKTEST RESULTS =====\n")
		fmt.Printf("Trades: %d (wins %d / losses %d, win rate %.2f%%)\n",
			results.Trades, results.Wins, results.Losses, results.WinRate)
		fmt.Printf("Balance: %.2f -> %.2f USDT\n", results.InitialBalance, results.FinalBalance)
		fmt.Printf("Profit factor: %.2f\n", results.ProfitFactor)
		fmt.Printf("Max drawdown: %.2f%%\n", results.MaxDrawdownPercent)
	}
}

func fail(err error) {
	log.Error().Err(err).Msg("pipeline failed")
	printJSON(report{Success: false, Error: err.Error()})
	os.Exit(1)
}

func printJSON(r report) {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("marshaling report")
		return
	}
	fmt.Println(string(out))
}
