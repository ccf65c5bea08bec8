package notifier

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/algotrade-lab/signaler/internal/model"
)

// Telegram sends actionable signals to a chat
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	symbol string
	logger zerolog.Logger
}

// NewTelegram creates a notifier; fails when the token is invalid
func NewTelegram(token string, chatID int64, symbol string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &Telegram{
		bot:    bot,
		chatID: chatID,
		symbol: symbol,
		logger: log.With().Str("component", "telegram_notifier").Logger(),
	}, nil
}

// NotifySignal formats the signal with its risk parameters and sends it
func (t *Telegram) NotifySignal(signal model.Signal, params model.RiskParameters, validation model.ValidationResult) error {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%s %s* (confidence %.0f%%)\n", signal.Kind, t.symbol, signal.Confidence))
	sb.WriteString(fmt.Sprintf("Trend: %s | RSI: %.1f\n", signal.Trend, signal.Indicators.RSI))
	sb.WriteString(fmt.Sprintf("Entry: %.6f\n", params.Entry))
	if params.StopLoss != nil {
		sb.WriteString(fmt.Sprintf("Stop-loss: %.6f (%.2f%%)\n", *params.StopLoss, params.StopLossPercent))
	}
	if params.TakeProfit != nil {
		sb.WriteString(fmt.Sprintf("Take-profit: %.6f (%.2f%%)\n", *params.TakeProfit, params.TakeProfitPercent))
	}
	sb.WriteString(fmt.Sprintf("Quantity: %.4f (%.2f USDT)\n", params.Quantity, params.PositionSizeUSDT))
	sb.WriteString(fmt.Sprintf("R/R: %.2f | Risk: %.2f USDT\n", params.RiskRewardRatio, params.RiskAmount))
	if !validation.Valid {
		sb.WriteString("⚠️ Rejected by risk checks:\n")
		for _, reason := range validation.Reasons {
			sb.WriteString("• " + reason + "\n")
		}
	}

	msg := tgbotapi.NewMessage(t.chatID, sb.String())
	msg.ParseMode = "Markdown"

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}

	t.logger.Info().Str("signal", string(signal.Kind)).Msg("signal notification sent")
	return nil
}
