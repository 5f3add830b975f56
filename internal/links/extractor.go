package links

import (
	"regexp"
	"strings"
)

// urlPattern сознательно широкая: портал вставляет ссылки без
// разметки, иногда с хвостовой пунктуацией, и лучше захватить
// лишний символ, чем потерять ссылку.
var urlPattern = regexp.MustCompile(`http[s]?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)

// meetingMarkers — подстроки, по которым ссылка считается ссылкой
// на онлайн-встречу. Сравнение регистронезависимое.
var meetingMarkers = []string{"zoom", "teams", "meet", "webex", "meeting"}

// Extractor выбирает из текста объявления ссылки на онлайн-встречи.
type Extractor struct{}

// New создаёт новый экстрактор ссылок.
func New() *Extractor {
	return &Extractor{}
}

// Extract возвращает все meeting-ссылки в порядке появления в тексте.
// Ошибок не бывает: текст без ссылок даёт пустой результат.
func (e *Extractor) Extract(message string) []string {
	var out []string
	for _, u := range urlPattern.FindAllString(message, -1) {
		if isMeetingLink(u) {
			out = append(out, u)
		}
	}
	return out
}

func isMeetingLink(u string) bool {
	lower := strings.ToLower(u)
	for _, marker := range meetingMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
