package model

import "time"

// Candle represents a single price candle
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume,omitempty"`
}

// IndicatorSnapshot holds the indicator values at a single candle
type IndicatorSnapshot struct {
	EMAFast float64 `json:"ema_fast"`
	EMASlow float64 `json:"ema_slow"`
	RSI     float64 `json:"rsi"`
}

// SignalKind is the discrete trade decision
type SignalKind string

const (
	SignalBuy  SignalKind = "BUY"
	SignalSell SignalKind = "SELL"
	SignalHold SignalKind = "HOLD"
)

// Trend describes the relation between the fast and slow EMA
type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
	TrendNeutral Trend = "NEUTRAL"
)

// Crossover flags an EMA crossover between the previous and current candle
type Crossover struct {
	Bullish bool `json:"bullish"`
	Bearish bool `json:"bearish"`
}

// Signal is the classified outcome of one analysis pass
type Signal struct {
	Kind         SignalKind        `json:"signal"`
	Confidence   float64           `json:"confidence"`
	Indicators   IndicatorSnapshot `json:"indicators"`
	Trend        Trend             `json:"trend"`
	Crossover    Crossover         `json:"crossover"`
	CurrentPrice float64           `json:"current_price"`
	Timestamp    time.Time         `json:"timestamp"`
}

// Side is the position direction; empty for HOLD
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// RiskParameters holds the derived stop/target/size tuple for a signal.
// For HOLD, Side is empty, StopLoss/TakeProfit are nil and the remaining
// numeric fields are zero.
type RiskParameters struct {
	Signal            SignalKind `json:"signal"`
	Side              Side       `json:"side,omitempty"`
	Entry             float64    `json:"entry"`
	StopLoss          *float64   `json:"stop_loss"`
	TakeProfit        *float64   `json:"take_profit"`
	Quantity          float64    `json:"quantity"`
	PositionSizeUSDT  float64    `json:"position_size_usdt"`
	RiskRewardRatio   float64    `json:"risk_reward_ratio"`
	RiskAmount        float64    `json:"risk_amount"`
	PotentialProfit   float64    `json:"potential_profit"`
	StopLossPercent   float64    `json:"stop_loss_percent"`
	TakeProfitPercent float64    `json:"take_profit_percent"`
}

// Actionable reports whether the parameters describe a tradable setup
func (p RiskParameters) Actionable() bool {
	return p.Side == SideLong || p.Side == SideShort
}

// ValidationResult lists every violated risk rule in check order. When valid,
// Reasons holds a single informational entry.
type ValidationResult struct {
	Valid       bool     `json:"valid"`
	Reasons     []string `json:"reasons"`
	RiskPercent float64  `json:"risk_percent"`
}
