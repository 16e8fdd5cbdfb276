package delivery

import (
	"context"
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"

	logx "classbell/pkg/logx"
)

// TelegramConfig configures the Telegram sink.
type TelegramConfig struct {
	Token  string
	ChatID int64
}

// TelegramSink delivers fired reminders as Telegram messages. Send-only; the
// bot never polls for updates.
type TelegramSink struct {
	bot    *tele.Bot
	chatID int64
	log    logx.Logger
}

func NewTelegramSink(cfg TelegramConfig, log logx.Logger) (*TelegramSink, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat_id is not set")
	}
	b, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &TelegramSink{bot: b, chatID: cfg.ChatID, log: log}, nil
}

func (s *TelegramSink) Notify(ctx context.Context, title, body string) error {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	chat := &tele.Chat{ID: s.chatID}
	text := title
	if body != "" {
		text += "\n" + body
	}
	_, err := s.bot.Send(chat, text, &tele.SendOptions{DisableWebPagePreview: true})
	return err
}
