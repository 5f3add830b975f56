package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/maine/moodle_bot_reminders/internal/announce"
)

const (
	// telegramRateLimitPerSecond - лимит Telegram Bot API: 30 сообщений в секунду
	telegramRateLimitPerSecond = 30
	// retryAttempts - количество попыток отправки при ошибке
	retryAttempts = 3
	// retryDelay - базовая задержка между попытками
	retryDelay = 2 * time.Second
	// rateLimitDelay - минимальная пауза между сообщениями
	rateLimitDelay = time.Second / telegramRateLimitPerSecond
)

// Sender реализует app.Sender: рассылает готовые блоки напоминаний
// всем подписанным получателям.
type Sender struct {
	client TelegramClient
}

// NewSender создаёт новый экземпляр отправителя.
func NewSender(client TelegramClient) *Sender {
	return &Sender{
		client: client,
	}
}

// Send отправляет каждое сообщение каждому получателю, соблюдая
// rate limit. Отказ одного получателя (заблокировал бота, удалил чат)
// не должен лишать напоминаний остальных, поэтому ошибка логируется
// и рассылка продолжается.
func (s *Sender) Send(ctx context.Context, recipients []announce.RecipientBinding, messages []string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients provided")
	}
	if len(messages) == 0 {
		return fmt.Errorf("no messages to send")
	}

	total := len(recipients) * len(messages)
	log.Printf("[INFO] sending %d reminder messages to %d recipients (total: %d)", len(messages), len(recipients), total)

	sent := 0
	lastSentTime := time.Now()

	for _, recipient := range recipients {
		for _, message := range messages {
			if elapsed := time.Since(lastSentTime); elapsed < rateLimitDelay {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(rateLimitDelay - elapsed):
				}
			}

			if err := s.sendWithRetry(ctx, recipient.ChatID, message); err != nil {
				log.Printf("[WARN] failed to send to %s (chat_id: %s) after %d attempts: %v",
					recipient.Name, recipient.ChatID, retryAttempts, err)
				continue
			}

			sent++
			lastSentTime = time.Now()
		}
	}

	log.Printf("[INFO] successfully sent %d/%d messages", sent, total)
	return nil
}

// Respond отправляет одиночный ответ (например, на поисковый запрос)
// в конкретный чат.
func (s *Sender) Respond(ctx context.Context, chatID string, text string) error {
	return s.sendWithRetry(ctx, chatID, text)
}

// sendWithRetry отправляет сообщение с повторами для временных ошибок.
func (s *Sender) sendWithRetry(ctx context.Context, chatID string, message string) error {
	var lastErr error

	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			delay := retryDelay * time.Duration(attempt)
			if delay > 10*time.Second {
				delay = 10 * time.Second
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := s.client.SendMessage(ctx, chatID, message)
		if err == nil {
			return nil
		}

		lastErr = err

		if !isRetryableError(err) {
			return err
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryableError отличает временные сбои от ошибок, при которых
// повтор заведомо не поможет (чат удалён, бот заблокирован).
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errLower := strings.ToLower(err.Error())
	for _, permanent := range []string{
		"chat not found",
		"bot was blocked",
		"user is deactivated",
		"chat_id is empty",
		"message is too long",
		"bad request",
	} {
		if strings.Contains(errLower, permanent) {
			return false
		}
	}

	return true
}
