package deadline

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/maine/moodle_bot_reminders/internal/announce"
)

// DateFormat — детерминированный формат дедлайна во всей системе.
const DateFormat = "Monday January 2 2006"

const (
	monthNames   = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`
	weekdayNames = `mon(?:day)?|tue(?:s(?:day)?)?|wed(?:nesday)?|thu(?:rs(?:day)?)?|fri(?:day)?|sat(?:urday)?|sun(?:day)?`

	// contextWindow — сколько символов вокруг числового кандидата
	// просматривается в поисках названия дня недели или месяца.
	contextWindow = 40
)

var (
	monthFirstPattern = regexp.MustCompile(`(?i)\b(` + monthNames + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:\s*,?\s*(\d{4}))?\b`)
	dayFirstPattern   = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthNames + `)\.?(?:\s*,?\s*(\d{4}))?\b`)
	numericPattern    = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)

	contextPattern = regexp.MustCompile(`(?i)\b(?:` + weekdayNames + `|` + monthNames + `)\b`)

	// timePattern распознаёт явное время сразу после даты,
	// с опциональной меткой таймзоны.
	timePattern = regexp.MustCompile(`(?i)^[\s,]*(?:at\s+)?(\d{1,2}):(\d{2})(?:\s*(am|pm))?(\s*(?:gmt|utc|est|edt|eet|cet|cest|[+-]\d{2}:?\d{2}))?`)

	clockPattern = regexp.MustCompile(`\d{1,2}:\d{2}`)
)

var monthIndex = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Extractor извлекает дедлайны из свободного текста объявления.
// Это эвристика на регулярках, а не NLP: кандидат засчитывается,
// только если рядом есть название дня недели или месяца, чтобы
// не срабатывать на посторонних числах.
type Extractor struct{}

// NewExtractor создаёт новый экстрактор дедлайнов.
func NewExtractor() *Extractor {
	return &Extractor{}
}

type candidate struct {
	start, end int
	day        int
	month      time.Month
	year       int
	qualified  bool
}

// Extract ищет первое подходящее выражение даты в тексте.
// Отсутствие даты — валидный результат, а не ошибка.
// now передаётся явно, чтобы тесты могли зафиксировать опорное время.
func (e *Extractor) Extract(message string, now time.Time) (announce.Deadline, bool) {
	return e.extract(message, now, true)
}

func (e *Extractor) extract(message string, now time.Time, allowRetry bool) (announce.Deadline, bool) {
	cand, ok := firstCandidate(message)
	if !ok {
		return announce.Deadline{}, false
	}

	year := cand.year
	if year == 0 {
		year = now.Year()
	}

	hour, minute, tzText, clockText := parseTrailingTime(message[cand.end:])

	// Best-effort обход путаницы с таймзонами: если у найденной даты
	// есть явное время с таймзоной, а ровно то же "H:MM" уже встречалось
	// раньше по тексту, это эхо выкидывается и извлечение повторяется
	// один раз. Посторонние времена раньше по тексту не трогаются.
	// Это костыль под конкретное поведение портала, а не общее решение.
	if allowRetry && tzText != "" && clockText != "" {
		for _, m := range clockPattern.FindAllStringIndex(message, -1) {
			if m[0] >= cand.start {
				break
			}
			if message[m[0]:m[1]] != clockText {
				continue
			}
			stripped := message[:m[0]] + message[m[1]:]
			if d, ok := e.extract(stripped, now, false); ok {
				return d, true
			}
			break
		}
	}

	due := time.Date(year, cand.month, cand.day, hour, minute, 0, 0, now.Location())

	return announce.Deadline{
		Date:      due.Format(DateFormat),
		DayOffset: wholeDays(due.Sub(now)),
	}, true
}

// firstCandidate собирает кандидатов всех трёх форм и возвращает
// первого подходящего в порядке следования по документу.
func firstCandidate(message string) (candidate, bool) {
	var all []candidate

	for _, m := range monthFirstPattern.FindAllStringSubmatchIndex(message, -1) {
		c := candidate{start: m[0], end: m[1], qualified: true}
		c.month = lookupMonth(message[m[2]:m[3]])
		c.day = atoi(message[m[4]:m[5]])
		if m[6] >= 0 {
			c.year = atoi(message[m[6]:m[7]])
		}
		all = append(all, c)
	}

	for _, m := range dayFirstPattern.FindAllStringSubmatchIndex(message, -1) {
		c := candidate{start: m[0], end: m[1], qualified: true}
		c.day = atoi(message[m[2]:m[3]])
		c.month = lookupMonth(message[m[4]:m[5]])
		if m[6] >= 0 {
			c.year = atoi(message[m[6]:m[7]])
		}
		all = append(all, c)
	}

	for _, m := range numericPattern.FindAllStringSubmatchIndex(message, -1) {
		c := candidate{start: m[0], end: m[1]}
		c.day = atoi(message[m[2]:m[3]])
		c.month = time.Month(atoi(message[m[4]:m[5]]))
		c.year = atoi(message[m[6]:m[7]])
		// Числовая дата легко путается с посторонними числами,
		// поэтому требуется день недели или месяц в ближайшем контексте.
		c.qualified = contextPattern.MatchString(window(message, c.start, c.end))
		all = append(all, c)
	}

	best := candidate{start: -1}
	for _, c := range all {
		if !c.qualified || !validDate(c) {
			continue
		}
		if best.start < 0 || c.start < best.start {
			best = c
		}
	}
	if best.start < 0 {
		return candidate{}, false
	}
	return best, true
}

func parseTrailingTime(tail string) (hour, minute int, tzText, clockText string) {
	m := timePattern.FindStringSubmatch(tail)
	if m == nil {
		return 0, 0, "", ""
	}
	hour = atoi(m[1])
	minute = atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, 0, "", ""
	}
	switch strings.ToLower(m[3]) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	return hour, minute, strings.TrimSpace(m[4]), m[1] + ":" + m[2]
}

func lookupMonth(name string) time.Month {
	return monthIndex[strings.ToLower(name)[:3]]
}

func validDate(c candidate) bool {
	if c.month < time.January || c.month > time.December {
		return false
	}
	return c.day >= 1 && c.day <= 31
}

func window(s string, start, end int) string {
	lo := start - contextWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + contextWindow
	if hi > len(s) {
		hi = len(s)
	}
	return s[lo:hi]
}

// wholeDays усекает длительность до целых суток, к нулю.
func wholeDays(d time.Duration) int {
	return int(d / (24 * time.Hour))
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
