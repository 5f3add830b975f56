package search

import (
	"fmt"
	"strings"

	"github.com/maine/moodle_bot_reminders/internal/announce"
)

// Service реализует app.SearchService: готовые текстовые ответы
// на запросы "/search" из Telegram.
type Service struct{}

// NewService создаёт сервис поиска.
func NewService() *Service {
	return &Service{}
}

// Answer формирует ответ на запрос. Единственное совпадение отдаётся
// с подсветкой; несколько - нумерованным списком заголовков.
// Отсутствие совпадений - дружелюбный ответ, а не ошибка.
func (s *Service) Answer(batch []announce.Announcement, query string) string {
	found, highlighted := Search(batch, query)
	switch len(found) {
	case 0:
		return "Nothing found."
	case 1:
		return highlighted[found[0].ID]
	default:
		return View(found)
	}
}

// Search выбирает объявления, в тексте или заголовке которых
// встречается запрос (без учёта регистра). Вторым значением
// возвращаются подсвеченные версии текста по id объявления,
// готовые для подстановки в форматтер.
func Search(batch []announce.Announcement, query string) ([]announce.Announcement, map[string]string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	var found []announce.Announcement
	highlighted := make(map[string]string)

	needle := strings.ToLower(query)
	for _, a := range batch {
		if !strings.Contains(strings.ToLower(a.Message), needle) &&
			!strings.Contains(strings.ToLower(a.Title), needle) {
			continue
		}
		found = append(found, a)
		highlighted[a.ID] = Highlight(a.Message, query)
	}

	return found, highlighted
}

// Highlight оборачивает вхождения запроса в квадратные скобки.
// Подсвечиваются основные регистровые варианты запроса: как введён,
// нижний регистр, верхний регистр и с заглавной буквы.
func Highlight(text, query string) string {
	if query == "" {
		return text
	}

	seen := make(map[string]struct{}, 4)
	for _, v := range []string{
		query,
		strings.ToLower(query),
		strings.ToUpper(query),
		title(query),
	} {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		text = strings.ReplaceAll(text, v, "["+v+"]")
	}

	return text
}

// View собирает нумерованный список заголовков для ответа на поисковый
// запрос, когда полные блоки не нужны.
func View(batch []announce.Announcement) string {
	if len(batch) == 0 {
		return "Nothing found."
	}

	var sb strings.Builder
	for i, a := range batch {
		fmt.Fprintf(&sb, "%d. %s", i+1, a.Title)
		if a.SubjectName != "" {
			fmt.Fprintf(&sb, " (%s)", a.SubjectName)
		}
		if i < len(batch)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
