package config

import (
	"os"
	"strconv"
)

// Config holds every tunable the pipeline and its collaborators consume.
// Values come from the environment; Load falls back to the defaults below.
type Config struct {
	// Market
	Symbol      string
	Interval    string
	CandleCount int

	// Indicators
	EMAFastPeriod int
	EMASlowPeriod int
	RSIPeriod     int

	// Classifier RSI bands
	RSIOverbought float64
	RSIOversold   float64
	RSIBuyMin     float64
	RSISellMax    float64

	// Risk
	StopLossBufferPercent float64
	RiskRewardRatio       float64
	PositionSizeUSDT      float64
	MaxRiskPercent        float64
	MinRiskReward         float64
	MaxStopLossPercent    float64
	AccountSizeUSDT       float64

	// Exchange
	BinanceAPIKey    string
	BinanceAPISecret string
	BinanceBaseURL   string
	RequestTimeout   int // seconds

	// Notifications
	TelegramToken  string
	TelegramChatID int64

	// Backtest
	EnableBacktest bool

	LogLevel string
}

// Load reads the configuration from the environment
func Load() *Config {
	return &Config{
		Symbol:      getEnvString("SYMBOL", "BTCUSDT"),
		Interval:    getEnvString("INTERVAL", "15m"),
		CandleCount: getEnvInt("CANDLE_COUNT", 100),

		EMAFastPeriod: getEnvInt("EMA_FAST_PERIOD", 9),
		EMASlowPeriod: getEnvInt("EMA_SLOW_PERIOD", 21),
		RSIPeriod:     getEnvInt("RSI_PERIOD", 14),

		RSIOverbought: getEnvFloat("RSI_OVERBOUGHT", 70),
		RSIOversold:   getEnvFloat("RSI_OVERSOLD", 30),
		RSIBuyMin:     getEnvFloat("RSI_BUY_MIN", 50),
		RSISellMax:    getEnvFloat("RSI_SELL_MAX", 50),

		StopLossBufferPercent: getEnvFloat("STOP_LOSS_BUFFER_PERCENT", 0.5),
		RiskRewardRatio:       getEnvFloat("RISK_REWARD_RATIO", 2),
		PositionSizeUSDT:      getEnvFloat("POSITION_SIZE_USDT", 100),
		MaxRiskPercent:        getEnvFloat("MAX_RISK_PERCENT", 2),
		MinRiskReward:         getEnvFloat("MIN_RISK_REWARD", 1.5),
		MaxStopLossPercent:    getEnvFloat("MAX_STOP_LOSS_PERCENT", 5),
		AccountSizeUSDT:       getEnvFloat("ACCOUNT_SIZE_USDT", 1000),

		BinanceAPIKey:    os.Getenv("BINANCE_API_KEY"),
		BinanceAPISecret: os.Getenv("BINANCE_API_SECRET"),
		BinanceBaseURL:   getEnvString("BINANCE_BASE_URL", "https://api.binance.com"),
		RequestTimeout:   getEnvInt("REQUEST_TIMEOUT", 30),

		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID: getEnvInt64("TELEGRAM_CHAT_ID", 0),

		EnableBacktest: getEnvBool("ENABLE_BACKTEST", false),

		LogLevel: getEnvString("LOG_LEVEL", "info"),
	}
}

func getEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}
