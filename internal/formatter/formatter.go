package formatter

import (
	"fmt"
	"strings"

	"github.com/maine/moodle_bot_reminders/internal/announce"
)

const (
	// telegramMaxMessageLength - максимальная длина сообщения в Telegram (4096 символов)
	telegramMaxMessageLength = 4096
	// rule - горизонтальная линия между блоками объявлений
	rule = "---------------------------------------------------------------------"
	// createdAtFormat - формат отметки времени публикации
	createdAtFormat = "Monday January 2 2006 15:04"
)

// Formatter реализует app.Formatter: собирает из объявлений блочные
// текстовые сообщения для Telegram.
type Formatter struct{}

// New создаёт новый экземпляр форматтера.
func New() *Formatter {
	return &Formatter{}
}

// BuildMessages форматирует каждое объявление в помеченный блок и
// упаковывает блоки в сообщения, не превышающие лимит Telegram.
// Блок никогда не разрывается между сообщениями.
//
// overrides подменяет исходный текст сокращённой версией по id
// объявления; отсутствие подмены означает исходный текст.
func (f *Formatter) BuildMessages(anns []announce.Announcement, overrides map[string]string) ([]string, error) {
	if len(anns) == 0 {
		return nil, nil
	}

	blocks := make([]string, 0, len(anns))
	for _, a := range anns {
		blocks = append(blocks, f.formatBlock(a, overrides[a.ID]))
	}

	return packBlocks(blocks), nil
}

// formatBlock собирает один блок. Пустые поля пропускаются целиком:
// объявление без дедлайна не получает строку "Deadline:".
func (f *Formatter) formatBlock(a announce.Announcement, override string) string {
	var sb strings.Builder

	sb.WriteString(rule + "\n")
	sb.WriteString("Title: " + a.Title + "\n")
	if a.SubjectName != "" {
		sb.WriteString("Subject: " + a.SubjectName + "\n")
	}

	message := a.Message
	if override != "" {
		message = override
	}
	if message != "" {
		sb.WriteString("Message: " + message + "\n")
	}

	if a.Deadline != nil {
		sb.WriteString("Deadline: " + a.Deadline.Date + "\n")
	}
	if !a.CreatedAt.IsZero() {
		sb.WriteString("Time created: " + a.CreatedAt.Format(createdAtFormat) + "\n")
	}
	sb.WriteString(rule)

	return sb.String()
}

// packBlocks раскладывает блоки по сообщениям в пределах лимита.
// Блок, который сам по себе больше лимита, обрезается с многоточием -
// лучше усечённое напоминание, чем отказ Telegram принять сообщение.
func packBlocks(blocks []string) []string {
	var messages []string
	var current strings.Builder

	for _, block := range blocks {
		if len(block) > telegramMaxMessageLength {
			block = block[:telegramMaxMessageLength-3] + "..."
		}

		addition := block
		if current.Len() > 0 {
			addition = "\n\n" + block
		}

		if current.Len()+len(addition) > telegramMaxMessageLength {
			messages = append(messages, current.String())
			current.Reset()
			addition = block
		}
		current.WriteString(addition)
	}

	if current.Len() > 0 {
		messages = append(messages, current.String())
	}

	if len(messages) > 1 {
		for i := range messages {
			messages[i] = fmt.Sprintf("Reminders (%d/%d)\n\n%s", i+1, len(messages), messages[i])
		}
	}

	return messages
}
