package deadline

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/maine/moodle_bot_reminders/internal/announce"
)

var (
	relativePattern = regexp.MustCompile(`(?i)\b(\d+)\s+(day|days|week|weeks|month|months|year|years|decade|decades|century|centuries)\s+ago\b`)
	agoPattern      = regexp.MustCompile(`(?i)\bago\b`)
	dayWordPattern  = regexp.MustCompile(`(?i)\b(day|today|tomorrow|yesterday)\b`)

	nonAlnumPattern = regexp.MustCompile(`[^a-zA-Z0-9 ]+`)
)

// ParseRelative разбирает относительные выражения времени вида
// "N units ago" относительно опорного момента. Пустой результат без
// ошибки означает, что выражения в тексте нет; ошибка возвращается
// только при неоднозначности.
//
// Семантика единиц расходится намеренно: день и неделя считаются
// точными 24-часовыми интервалами, месяц и год — календарной
// арифметикой с прижатием числа к последнему дню короткого месяца.
func ParseRelative(s string, anchor time.Time) (string, error) {
	clean := strings.TrimSpace(nonAlnumPattern.ReplaceAllString(s, " "))
	if clean == "" {
		return "", nil
	}

	matches := relativePattern.FindAllStringSubmatch(clean, -1)
	if len(matches) == 0 {
		return "", nil
	}
	if len(matches) > 1 || len(agoPattern.FindAllString(clean, -1)) > 1 {
		return "", &announce.AmbiguousClassificationError{Reason: "more than one relative time phrase"}
	}
	if len(dayWordPattern.FindAllString(clean, -1)) > 1 {
		return "", &announce.AmbiguousClassificationError{Reason: "conflicting day words"}
	}

	n, err := strconv.Atoi(matches[0][1])
	if err != nil {
		return "", nil
	}

	var then time.Time
	switch unit := strings.ToLower(matches[0][2]); strings.TrimSuffix(unit, "s") {
	case "day":
		then = anchor.Add(-time.Duration(n) * 24 * time.Hour)
	case "week":
		then = anchor.Add(-time.Duration(n) * 7 * 24 * time.Hour)
	case "month":
		then = addMonths(anchor, -n)
	case "year":
		then = addMonths(anchor, -12*n)
	case "decade":
		then = addMonths(anchor, -120*n)
	case "century", "centurie":
		then = addMonths(anchor, -1200*n)
	default:
		return "", nil
	}

	return then.Format(DateFormat), nil
}

// addMonths сдвигает дату на n месяцев, прижимая число к последнему
// дню месяца вместо стандартного переноса time.AddDate
// (31 января - 1 месяц должно давать 31 декабря, а не 2-3 января).
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + n
	y += total / 12
	total %= 12
	if total < 0 {
		total += 12
		y--
	}
	month := time.Month(total + 1)
	if max := daysIn(y, month); d > max {
		d = max
	}
	h, min, sec := t.Clock()
	return time.Date(y, month, d, h, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
