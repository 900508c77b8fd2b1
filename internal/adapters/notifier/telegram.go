package notifier

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/feldboy/aparmenttool/internal/core/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramChannel реализует DeliveryChannelPort через Telegram Bot API.
// Получатель - числовой chat_id.
type TelegramChannel struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramChannel(botToken string) (*TelegramChannel, error) {
	if botToken == "" {
		return nil, fmt.Errorf("telegram channel: bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram channel: failed to authorize bot: %w", err)
	}

	return &TelegramChannel{bot: bot}, nil
}

func (c *TelegramChannel) Channel() domain.Channel {
	return domain.ChannelTelegram
}

func (c *TelegramChannel) Send(ctx context.Context, recipient string, msg domain.OutgoingMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	chatID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return "", &domain.DeliveryError{
			Channel: domain.ChannelTelegram,
			Err:     fmt.Errorf("recipient %q is not a valid chat id: %w", recipient, err),
		}
	}

	tgMsg := tgbotapi.NewMessage(chatID, renderTelegramBody(msg))
	tgMsg.ParseMode = tgbotapi.ModeHTML
	tgMsg.DisableWebPagePreview = false

	sent, err := c.bot.Send(tgMsg)
	observeDelivery(domain.ChannelTelegram, err)
	if err != nil {
		return "", &domain.DeliveryError{
			Channel:   domain.ChannelTelegram,
			Transient: isTelegramTransient(err),
			Err:       err,
		}
	}

	return strconv.Itoa(sent.MessageID), nil
}

// renderTelegramBody собирает HTML-тело сообщения. Пользовательский текст
// экранируется, чтобы кавычки из объявлений не ломали разметку.
func renderTelegramBody(msg domain.OutgoingMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", html.EscapeString(msg.Title))
	b.WriteString(html.EscapeString(msg.Body))
	if msg.URL != "" {
		fmt.Fprintf(&b, "\n<a href=%q>View listing</a>", msg.URL)
	}
	return b.String()
}

// isTelegramTransient распознает сбои, которые имеет смысл ретраить.
func isTelegramTransient(err error) bool {
	text := err.Error()
	return strings.Contains(text, "Too Many Requests") ||
		strings.Contains(text, "retry after") ||
		strings.Contains(text, "Bad Gateway") ||
		strings.Contains(text, "timeout")
}
