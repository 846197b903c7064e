package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"golang.org/x/time/rate"

	"solar-analytics/internal/config"
	"solar-analytics/internal/logging"
	"solar-analytics/internal/models"
	"solar-analytics/internal/utils"
)

// telegramLimiter is the global rate limiter for Telegram messages
var telegramLimiter *rate.Limiter

// initTelegramLimiter initializes the Telegram rate limiter
func initTelegramLimiter(ratePerSecond int) {
	telegramLimiter = rate.NewLimiter(rate.Limit(float64(ratePerSecond)), ratePerSecond)
}

// SendTelegram pushes an alert to the operator channel via the
// go-telegram/bot library.
func SendTelegram(ctx context.Context, alert models.Alert, cfg config.Config, logger *logging.Logger) error {
	if telegramLimiter == nil {
		initTelegramLimiter(cfg.Telegram.RateLimit)
	}

	if err := telegramLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit exceeded: %w", err)
	}

	if cfg.Telegram.BotToken == "" {
		return fmt.Errorf("missing TELEGRAM_BOT_TOKEN")
	}
	if cfg.Telegram.ChatID == 0 {
		return fmt.Errorf("missing TELEGRAM_CHAT_ID")
	}

	text := fmt.Sprintf(
		"*%s alert (%s)*\n%s\n\n"+
			"*Event:* %s\n"+
			"*Threshold:* %.2f\n"+
			"*Value:* %.2f",
		alert.Type,
		alert.Severity,
		alert.Message,
		alert.EventTime.Format(time.RFC3339),
		alert.ThresholdValue,
		alert.ActualValue,
	)

	return utils.Retry(logger, 3, time.Second, func() error {
		b, err := bot.New(cfg.Telegram.BotToken)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram bot: %w", err)
		}

		params := &bot.SendMessageParams{
			ChatID:    cfg.Telegram.ChatID,
			Text:      text,
			ParseMode: "Markdown",
		}
		if _, err := b.SendMessage(ctx, params); err != nil {
			return fmt.Errorf("failed to send Telegram message to chat_id %d: %w", cfg.Telegram.ChatID, err)
		}
		return nil
	})
}
