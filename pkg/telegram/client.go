package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ashare-data-collector/pkg/notify"
)

// client is a notify.Notifier backed by a Telegram bot.
type client struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewClient creates a new Telegram notifier client.
func NewClient(botToken string, chatID int64) (notify.Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &client{
		bot:    bot,
		chatID: chatID,
	}, nil
}

// SendText sends a message to the configured Telegram chat.
func (c *client) SendText(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := c.bot.Send(msg)
	return err
}

// SendCard renders the card as a Markdown message; Telegram has no
// native card payload.
func (c *client) SendCard(title string, fields []notify.CardField) error {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("*%s*\n\n", title))
	for _, f := range fields {
		b.WriteString(fmt.Sprintf("*%s*: %s\n", f.Label, f.Value))
	}
	return c.SendText(b.String())
}
