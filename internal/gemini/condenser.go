package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/maine/moodle_bot_reminders/internal/announce"
	"github.com/maine/moodle_bot_reminders/internal/config"
)

// Condenser реализует app.Condenser: сокращает многословные объявления
// до пары предложений через Gemini API, чтобы напоминание читалось
// с телефона за секунды.
type Condenser struct {
	client    GeminiClient
	cfg       config.Gemini
	batchSize int
	maxLen    int
}

// NewCondenser создаёт новый экземпляр сокращателя.
func NewCondenser(client GeminiClient, geminiCfg config.Gemini) *Condenser {
	batchSize := geminiCfg.BatchSize
	if batchSize <= 0 {
		batchSize = 5 // дефолтное значение
	}
	maxLen := geminiCfg.MaxMessageLength
	if maxLen <= 0 {
		maxLen = 600
	}
	return &Condenser{
		client:    client,
		cfg:       geminiCfg,
		batchSize: batchSize,
		maxLen:    maxLen,
	}
}

// Condense возвращает сокращённые тексты по id объявления.
// Короткие объявления не трогаются вовсе; для них (и для объявлений,
// по которым модель не ответила) подмены в результате нет, и форматтер
// возьмёт исходный текст. Сбой сокращения не критичен для пайплайна.
func (c *Condenser) Condense(ctx context.Context, anns []announce.Announcement) (map[string]string, error) {
	var long []announce.Announcement
	for _, a := range anns {
		if len(a.Message) > c.maxLen {
			long = append(long, a)
		}
	}
	if len(long) == 0 {
		return nil, nil
	}

	totalBatches := (len(long) + c.batchSize - 1) / c.batchSize
	log.Printf("[INFO] condensing %d long announcements in %d batches", len(long), totalBatches)

	// Минимальная задержка между запросами для соблюдения RPM=5.
	const minDelayBetweenRequests = 12 * time.Second
	lastRequestTime := time.Now()

	overrides := make(map[string]string, len(long))
	for i := 0; i < len(long); i += c.batchSize {
		end := i + c.batchSize
		if end > len(long) {
			end = len(long)
		}

		if i > 0 {
			if elapsed := time.Since(lastRequestTime); elapsed < minDelayBetweenRequests {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(minDelayBetweenRequests - elapsed):
				}
			}
		}

		if err := c.condenseBatch(ctx, long[i:end], overrides); err != nil {
			return nil, fmt.Errorf("condense batch [%d-%d]: %w", i, end-1, err)
		}
		lastRequestTime = time.Now()
	}

	return overrides, nil
}

func (c *Condenser) condenseBatch(ctx context.Context, batch []announce.Announcement, overrides map[string]string) error {
	input := make([]condenseInput, 0, len(batch))
	for _, a := range batch {
		input = append(input, condenseInput{
			ID:      a.ID,
			Title:   a.Title,
			Message: a.Message,
		})
	}

	inputJSON, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("marshal input: %w", err)
	}

	responseText, err := c.client.GenerateText(ctx, c.cfg.Model, c.buildPrompt(string(inputJSON)))
	if err != nil {
		return fmt.Errorf("generate text: %w", err)
	}

	var parsed []condenseResponse
	if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
		// Модель любит оборачивать ответ в markdown-ограду, пробуем
		// вырезать из текста собственно JSON.
		cleaned := extractJSON(responseText)
		if cleaned == "" {
			return fmt.Errorf("unmarshal response: %w (raw: %s)", err, responseText)
		}
		if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
			return fmt.Errorf("unmarshal cleaned response: %w (raw: %s)", err, responseText)
		}
	}

	for _, r := range parsed {
		if summary := strings.TrimSpace(r.Summary); summary != "" {
			overrides[r.ID] = summary
		}
	}

	return nil
}

func (c *Condenser) buildPrompt(inputJSON string) string {
	return fmt.Sprintf(`You are an assistant preparing course announcement reminders for students.
You will be given a JSON list of announcements, each with a unique id, a title and a full message.
For each announcement write a condensed version of the message, at most 2-3 sentences, keeping every date, time, room number and link exactly as written.
Do not invent facts that are not in the message. Keep a neutral, informative tone.
Return a JSON list of objects with no extra commentary. Format:
[{"id": "<announcement id>", "summary": "<condensed message>"}, ...]

Input:
%s`, inputJSON)
}

// extractJSON вырезает первый JSON-массив из произвольного текста.
func extractJSON(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

type condenseInput struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type condenseResponse struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
}
