package dedup

import (
	"log"
	"strings"

	"github.com/maine/moodle_bot_reminders/internal/announce"
)

// postponedMarkers — фразы, по которым объявление считается переносом
// ранее анонсированного события.
var postponedMarkers = []string{"postponed", "new date", "delayed"}

// similarityThreshold — минимальная похожесть заголовков, при которой
// два объявления считаются версиями одного события.
const similarityThreshold = 0.7

// Resolver гасит устаревшие версии перенесённых событий.
// Когда событие переносят, портал публикует новое объявление с почти
// тем же заголовком; напоминать по обоим нельзя, иначе студент получит
// напоминание о дате, которой больше нет.
type Resolver struct{}

// New создаёт новый резолвер переносов.
func New() *Resolver {
	return &Resolver{}
}

// Resolve находит объявления-переносы и снимает классификацию со всех
// устаревших версий события. Выживает самая свежая версия по CreatedAt,
// будь то сам перенос или более позднее объявление из той же группы.
// Пачка модифицируется на месте и возвращается.
func (r *Resolver) Resolve(batch []announce.Announcement) []announce.Announcement {
	for i := range batch {
		if !mentionsPostponement(batch[i].Title) {
			continue
		}

		group := []int{i}
		for j := range batch {
			if j == i || batch[j].SubjectCode != batch[i].SubjectCode {
				continue
			}
			a := strings.ToLower(batch[i].Title)
			b := strings.ToLower(batch[j].Title)
			if a == b {
				continue
			}
			if Ratio(a, b) >= similarityThreshold {
				group = append(group, j)
			}
		}
		if len(group) == 1 {
			continue
		}

		latest := group[0]
		for _, j := range group[1:] {
			if batch[j].CreatedAt.After(batch[latest].CreatedAt) {
				latest = j
			}
		}

		for _, j := range group {
			if j == latest || batch[j].Kind == announce.KindNone {
				continue
			}
			log.Printf("[INFO] announcement %s superseded by %s, dropping kind %q",
				batch[j].ID, batch[latest].ID, batch[j].Kind)
			batch[j].Kind = announce.KindNone
		}
	}
	return batch
}

func mentionsPostponement(title string) bool {
	lower := strings.ToLower(title)
	for _, marker := range postponedMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Ratio считает похожесть двух строк как 2*LCS/(len(a)+len(b)),
// где LCS — длина наибольшей общей подпоследовательности байт.
// Две пустые строки считаются идентичными.
func Ratio(a, b string) float64 {
	if len(a)+len(b) == 0 {
		return 1
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	return 2 * float64(prev[len(b)]) / float64(len(a)+len(b))
}
