package ingest

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/maine/moodle_bot_reminders/internal/announce"
)

// banner — строка-разделитель, которой портал отбивает служебную
// шапку от собственно текста объявления.
const banner = "---------------------------------------------------------------------"

// Ingestor превращает сырые записи портала в объявления.
// Никаких побочных эффектов: одна запись на входе, одно объявление
// или MalformedRecordError на выходе.
type Ingestor struct{}

// New создаёт новый инжестор.
func New() *Ingestor {
	return &Ingestor{}
}

// Ingest строит Announcement из сырой записи.
// Тело сообщения сначала разворачивается из HTML в плоский текст,
// затем обрезается до фрагмента после последнего баннера-разделителя.
// Запись без баннера считается битой и отбрасывается.
func (i *Ingestor) Ingest(rec announce.RawRecord) (announce.Announcement, error) {
	if strings.TrimSpace(rec.Subject) == "" {
		return announce.Announcement{}, &announce.MalformedRecordError{
			ID:     rec.ID,
			Reason: "empty subject",
		}
	}

	text := flattenHTML(rec.FullMessage)

	idx := strings.LastIndex(text, banner)
	if idx < 0 {
		return announce.Announcement{}, &announce.MalformedRecordError{
			ID:     rec.ID,
			Reason: "banner separator not found",
		}
	}

	body := strings.TrimSpace(text[idx+len(banner):])

	return announce.Announcement{
		ID:        rec.ID,
		Title:     rec.Subject,
		Message:   body,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// flattenHTML сводит HTML-разметку к плоскому тексту.
// Портал отдаёт fullmessage то как HTML, то как plain text, поэтому
// разметка убирается только если она похожа на разметку.
func flattenHTML(s string) string {
	if !strings.Contains(s, "<") {
		return html.UnescapeString(s)
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			sb.WriteString(n.Data)
		case n.Type == html.ElementNode && (n.Data == "br" || n.Data == "p" || n.Data == "div"):
			sb.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return sb.String()
}
