package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/maine/moodle_bot_reminders/internal/announce"
	"github.com/maine/moodle_bot_reminders/internal/deadline"
)

// Формы ответов lib/ajax/service.php. Портал всегда отвечает массивом
// по числу вызовов в запросе; мы шлём по одному вызову за раз.
type (
	serviceResponse struct {
		Error bool            `json:"error"`
		Data  json.RawMessage `json:"data"`
	}

	notificationsData struct {
		Notifications []notification `json:"notifications"`
	}

	notification struct {
		ID                int64  `json:"id"`
		Subject           string `json:"subject"`
		FullMessage       string `json:"fullmessage"`
		TimeCreated       int64  `json:"timecreated"`
		TimeCreatedPretty string `json:"timecreatedpretty"`
	}

	coursesData struct {
		Courses []course `json:"courses"`
	}

	course struct {
		Shortname string `json:"shortname"`
		Fullname  string `json:"fullname"`
		ViewURL   string `json:"viewurl"`
	}
)

// FileCollector реализует app.Collector поверх дампов портала
// (results.json и courses.json, как их пишет cmd/fetch-moodle).
// Используется в офлайн-режиме и в тестах.
type FileCollector struct {
	resultsPath string
	coursesPath string
	clock       func() time.Time
}

// NewFileCollector создаёт коллектор дампов.
func NewFileCollector(resultsPath, coursesPath string, clock func() time.Time) *FileCollector {
	if clock == nil {
		clock = time.Now
	}
	return &FileCollector{
		resultsPath: resultsPath,
		coursesPath: coursesPath,
		clock:       clock,
	}
}

// Collect читает дамп объявлений.
func (c *FileCollector) Collect(ctx context.Context) ([]announce.RawRecord, error) {
	data, err := os.ReadFile(c.resultsPath)
	if err != nil {
		return nil, fmt.Errorf("read results dump: %w", err)
	}
	return parseNotifications(data, c.clock())
}

// Subjects читает дамп курсов и строит маппинг код - имя предмета.
func (c *FileCollector) Subjects(ctx context.Context) (map[string]string, error) {
	data, err := os.ReadFile(c.coursesPath)
	if err != nil {
		return nil, fmt.Errorf("read courses dump: %w", err)
	}
	return parseCourses(data)
}

// parseNotifications разворачивает ответ портала в сырые записи.
// Отметка времени берётся из unix-поля; у старых дампов его нет,
// тогда разбирается человекочитаемое "N days ago" относительно now.
func parseNotifications(data []byte, now time.Time) ([]announce.RawRecord, error) {
	payload, err := unwrapService(data)
	if err != nil {
		return nil, fmt.Errorf("notifications envelope: %w", err)
	}

	var inner notificationsData
	if err := json.Unmarshal(payload, &inner); err != nil {
		return nil, fmt.Errorf("unmarshal notifications: %w", err)
	}

	records := make([]announce.RawRecord, 0, len(inner.Notifications))
	for _, n := range inner.Notifications {
		records = append(records, announce.RawRecord{
			ID:          recordID(n.ID),
			Subject:     n.Subject,
			FullMessage: n.FullMessage,
			CreatedAt:   createdAt(n, now),
		})
	}
	return records, nil
}

// parseCourses строит маппинг shortname - человекочитаемое имя.
// Имя предмета - это fullname до первого дефиса, с раскрытыми
// HTML-сущностями (портал любит &amp; в названиях).
func parseCourses(data []byte) (map[string]string, error) {
	payload, err := unwrapService(data)
	if err != nil {
		return nil, fmt.Errorf("courses envelope: %w", err)
	}

	var inner coursesData
	if err := json.Unmarshal(payload, &inner); err != nil {
		return nil, fmt.Errorf("unmarshal courses: %w", err)
	}

	subjects := make(map[string]string, len(inner.Courses))
	for _, c := range inner.Courses {
		name, _, _ := strings.Cut(html.UnescapeString(c.Fullname), "-")
		subjects[c.Shortname] = strings.TrimSpace(name)
	}
	return subjects, nil
}

func unwrapService(data []byte) (json.RawMessage, error) {
	var envelope []serviceResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	if len(envelope) == 0 {
		return nil, fmt.Errorf("empty service response")
	}
	if envelope[0].Error {
		return nil, fmt.Errorf("service response carries error flag")
	}
	return envelope[0].Data, nil
}

// recordID отдаёт id портала, а при его отсутствии генерирует UUID,
// чтобы запись не потеряла идентичность внутри одного запуска.
// Сгенерированный id не переживает перезапуск, о чём пишется warning.
func recordID(id int64) string {
	if id > 0 {
		return strconv.FormatInt(id, 10)
	}
	generated := uuid.NewString()
	log.Printf("[WARN] notification without id, generated %s", generated)
	return generated
}

func createdAt(n notification, now time.Time) time.Time {
	if n.TimeCreated > 0 {
		return time.Unix(n.TimeCreated, 0)
	}
	if n.TimeCreatedPretty != "" {
		if formatted, err := deadline.ParseRelative(n.TimeCreatedPretty, now); err == nil && formatted != "" {
			if t, err := time.Parse(deadline.DateFormat, formatted); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
