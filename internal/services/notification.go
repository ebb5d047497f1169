package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/irfndi/pricecast-go/internal/config"
)

// maxListedFailures caps the failed articles listed in one message.
const maxListedFailures = 5

// Notifier receives the summary of every price update run.
type Notifier interface {
	NotifyPriceUpdate(ctx context.Context, summary UpdateSummary) error
}

// MessageSender is the subset of the Telegram client used for alerts.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// NotificationService posts update summaries to a Telegram chat. Without a
// bot token or chat id it only logs.
type NotificationService struct {
	sender MessageSender
	chatID int64
	title  cases.Caser
	logger logrus.FieldLogger
}

// NewNotificationService creates the Telegram client when cfg is complete.
func NewNotificationService(cfg config.TelegramConfig, logger logrus.FieldLogger) *NotificationService {
	logger = logger.WithField("component", "notification")

	var sender MessageSender
	if cfg.BotToken != "" && cfg.ChatID != 0 {
		b, err := bot.New(cfg.BotToken, bot.WithSkipGetMe())
		if err != nil {
			logger.WithError(err).Warn("Telegram bot disabled")
		} else {
			sender = b
		}
	}

	return newNotificationService(sender, cfg.ChatID, logger)
}

func newNotificationService(sender MessageSender, chatID int64, logger logrus.FieldLogger) *NotificationService {
	return &NotificationService{
		sender: sender,
		chatID: chatID,
		title:  cases.Title(language.English),
		logger: logger,
	}
}

// Enabled reports whether messages are actually delivered.
func (ns *NotificationService) Enabled() bool {
	return ns.sender != nil
}

// NotifyPriceUpdate sends the run summary.
func (ns *NotificationService) NotifyPriceUpdate(ctx context.Context, summary UpdateSummary) error {
	message := ns.formatUpdateMessage(summary)
	if ns.sender == nil {
		ns.logger.WithField("updated", summary.Updated).Debug("Telegram not configured, skipping update notification")
		return nil
	}

	_, err := ns.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    ns.chatID,
		Text:      message,
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

func (ns *NotificationService) formatUpdateMessage(s UpdateSummary) string {
	var b strings.Builder

	header := "✅ *Price update finished*"
	switch {
	case s.Cancelled:
		header = "⏹ *Price update interrupted*"
	case s.Failed > 0:
		header = "⚠️ *Price update finished with errors*"
	}
	b.WriteString(header + "\n\n")

	fmt.Fprintf(&b, "🏪 Source: %s\n", ns.title.String(s.Source))
	fmt.Fprintf(&b, "📦 Products: %d\n", s.Total)
	fmt.Fprintf(&b, "💰 Updated: *%d*\n", s.Updated)
	fmt.Fprintf(&b, "❌ Failed: %d\n", s.Failed)
	fmt.Fprintf(&b, "⏱ Duration: %s\n", s.Duration.Round(time.Millisecond))

	if len(s.Failures) > 0 {
		listed := s.Failures
		if len(listed) > maxListedFailures {
			listed = listed[:maxListedFailures]
		}
		fmt.Fprintf(&b, "\nFailed articles: %s", strings.Join(listed, ", "))
		if extra := len(s.Failures) - len(listed); extra > 0 {
			fmt.Fprintf(&b, " and %d more", extra)
		}
		b.WriteString("\n")
	}

	return b.String()
}
