package gemini

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiClient определяет интерфейс для работы с Gemini API.
// Это позволяет легко создавать моки для тестирования.
type GeminiClient interface {
	GenerateText(ctx context.Context, model string, prompt string) (string, error)
}

// Client инкапсулирует работу с Gemini API через официальный SDK.
type Client struct {
	client *genai.Client
}

// Убеждаемся, что Client реализует интерфейс GeminiClient.
var _ GeminiClient = (*Client)(nil)

// NewClient создаёт новый клиент для работы с Gemini API.
// Читает GEMINI_API_KEY из переменной окружения и явно передаёт его в SDK.
func NewClient() (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{client: client}, nil
}

// GenerateText отправляет запрос к Gemini API и возвращает текстовый ответ.
// Временные ошибки (429 RPM, 500, 502, 503, 504) повторяются с паузой;
// исчерпанная дневная квота возвращается сразу, повторять её бессмысленно.
func (c *Client) GenerateText(ctx context.Context, model string, prompt string) (string, error) {
	const maxRetries = 5
	const baseDelay = 12 * time.Second // минимум между запросами для RPM=5
	const overloadedDelay = 5 * time.Minute

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseDelay * time.Duration(attempt)
			if isServiceUnavailableError(lastErr.Error()) {
				delay = overloadedDelay
			} else if isRateLimitError(lastErr.Error()) {
				delay = time.Minute
			}
			if delay > overloadedDelay {
				delay = overloadedDelay
			}
			log.Printf("[INFO] retrying Gemini request (attempt %d/%d) after %v", attempt+1, maxRetries, delay)

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
		if err == nil {
			text, textErr := result.Text()
			if textErr != nil {
				return "", fmt.Errorf("get text from result: %w", textErr)
			}
			return text, nil
		}

		lastErr = err
		errStr := err.Error()

		if isQuotaExceededError(errStr) {
			return "", fmt.Errorf("gemini API quota exceeded (daily limit reached): %w", err)
		}
		if isRateLimitError(errStr) || isServiceUnavailableError(errStr) || isTemporaryError(errStr) {
			log.Printf("[WARN] transient Gemini API error: %v", err)
			continue
		}

		// Остальные ошибки не временные, повтор не поможет.
		return "", fmt.Errorf("generate content: %w", err)
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isQuotaExceededError - исчерпан дневной лимит (RPD), retry бесполезен.
// Дневная квота в 429 отличима по метрике free tier requests.
func isQuotaExceededError(errStr string) bool {
	errLower := strings.ToLower(errStr)
	return strings.Contains(errLower, "generate_content_free_tier_requests") ||
		strings.Contains(errLower, "quota exceeded") ||
		strings.Contains(errLower, "daily limit")
}

// isRateLimitError - минутный лимит запросов или токенов (RPM/TPM).
func isRateLimitError(errStr string) bool {
	if isQuotaExceededError(errStr) {
		return false
	}
	errLower := strings.ToLower(errStr)
	return strings.Contains(errLower, "429") ||
		strings.Contains(errLower, "rate limit") ||
		strings.Contains(errLower, "too many requests") ||
		strings.Contains(errLower, "resource exhausted")
}

// isServiceUnavailableError - модель перегружена, нужна длинная пауза.
func isServiceUnavailableError(errStr string) bool {
	errLower := strings.ToLower(errStr)
	return strings.Contains(errLower, "503") ||
		strings.Contains(errLower, "service unavailable") ||
		strings.Contains(errLower, "overloaded")
}

// isTemporaryError - прочие временные сбои на стороне сервиса.
func isTemporaryError(errStr string) bool {
	errLower := strings.ToLower(errStr)
	return strings.Contains(errLower, "500") ||
		strings.Contains(errLower, "502") ||
		strings.Contains(errLower, "504") ||
		strings.Contains(errLower, "internal server error") ||
		strings.Contains(errLower, "bad gateway") ||
		strings.Contains(errLower, "gateway timeout")
}
