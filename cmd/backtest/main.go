package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/algotrade-lab/signaler/config"
	"github.com/algotrade-lab/signaler/internal/api/binance"
	"github.com/algotrade-lab/signaler/internal/baktest"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}
}

func main() {
	limit := flag.Int("candles", 1000, "number of historical candles to fetch")
	detailed := flag.Bool("detailed", false, "include per-trade results in the output")
	flag.Parse()

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

	candles, err := client.GetKlines(ctx, cfg.Symbol, cfg.Interval, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("fetching historical candles failed")
	}

	results, err := baktest.Run(ctx, candles, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("backtest failed")
	}

	if !*detailed {
		results.DetailedResults = nil
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("marshaling results failed")
	}
	fmt.Println(string(out))
}
