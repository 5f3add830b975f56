package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	mail "gopkg.in/mail.v2"
)

// EmailConfig - параметры SMTP-канала доставки.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// EmailSender - запасной канал доставки напоминаний. Telegram остаётся
// основным; почта включается конфигом для тех, кто ботом не пользуется.
type EmailSender struct {
	cfg    EmailConfig
	dialer *mail.Dialer
}

// NewEmailSender создаёт отправителя поверх SMTP-диалера.
func NewEmailSender(cfg EmailConfig) *EmailSender {
	return &EmailSender{
		cfg:    cfg,
		dialer: mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// SendAll собирает все блоки напоминаний в одно письмо и отправляет
// его каждому адресату. Пустая пачка - валидный no-op.
func (s *EmailSender) SendAll(ctx context.Context, messages []string) error {
	if len(messages) == 0 {
		return nil
	}
	if len(s.cfg.To) == 0 {
		return fmt.Errorf("no email recipients configured")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	body := strings.Join(messages, "\n\n")

	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", s.cfg.To...)
	m.SetHeader("Subject", "Course announcement reminders")
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send reminder email: %w", err)
	}

	log.Printf("[INFO] reminder email sent to %d recipients", len(s.cfg.To))
	return nil
}
