package classify

import (
	"log"
	"regexp"
	"strings"

	"github.com/maine/moodle_bot_reminders/internal/announce"
)

// kindAliases сводит каждый токен (включая множественное число)
// к каноничному типу. Всё экзаменационное семейство схлопывается
// в KindExam, остальные токены дают свой буквальный тип.
var kindAliases = map[string]announce.Kind{
	"quiz":     announce.KindExam,
	"quizzes":  announce.KindExam,
	"test":     announce.KindExam,
	"tests":    announce.KindExam,
	"exam":     announce.KindExam,
	"exams":    announce.KindExam,
	"grades":   announce.KindExam,
	"midterm":  announce.KindExam,
	"midterms": announce.KindExam,
	"lab":      announce.KindLab,
	"labs":     announce.KindLab,
	"project":  announce.KindProject,
	"projects": announce.KindProject,
	"session":  announce.KindSession,
	"sessions": announce.KindSession,
}

var kindPattern = regexp.MustCompile(`(?i)\b(quiz(?:zes)?|tests?|exams?|grades|midterms?|labs?|projects?|sessions?)\b`)

// Classifier резолвит код предмета в человекочитаемое имя и
// классифицирует тип объявления по закрытому набору токенов.
type Classifier struct{}

// New создаёт новый классификатор.
func New() *Classifier {
	return &Classifier{}
}

// Classify заполняет производные поля SubjectCode, SubjectName и Kind.
// Заголовок режется по первому ":"; без двоеточия кодом считается весь
// заголовок, а тип остаётся пустым. Неизвестный код предмета — фатально
// для этого объявления: оно исключается из выдачи, не дефолтится молча.
func (c *Classifier) Classify(a announce.Announcement, subjects map[string]string) (announce.Announcement, error) {
	code, rest, found := strings.Cut(a.Title, ":")
	a.SubjectCode = strings.TrimSpace(code)

	name, ok := subjects[a.SubjectCode]
	if !ok {
		return a, &announce.UnknownSubjectError{ID: a.ID, Code: a.SubjectCode}
	}
	a.SubjectName = name

	if !found {
		a.Kind = announce.KindNone
		return a, nil
	}

	kind, err := KindOf(rest)
	if err != nil {
		// Неоднозначная классификация не угадывается: поле остаётся пустым.
		log.Printf("[DEBUG] record %s left uncategorized: %v", a.ID, err)
	}
	a.Kind = kind

	return a, nil
}

// KindOf ищет токены типов в свободном тексте и возвращает каноничный
// тип. Ноль найденных или больше одного различного типа — неоднозначно,
// возвращается KindNone вместе с AmbiguousClassificationError.
func KindOf(text string) (announce.Kind, error) {
	matches := kindPattern.FindAllString(strings.ToLower(text), -1)
	if len(matches) == 0 {
		return announce.KindNone, &announce.AmbiguousClassificationError{Reason: "no kind token found"}
	}

	distinct := make(map[announce.Kind]struct{}, 1)
	var kind announce.Kind
	for _, m := range matches {
		k, ok := kindAliases[m]
		if !ok {
			continue
		}
		distinct[k] = struct{}{}
		kind = k
	}

	if len(distinct) != 1 {
		return announce.KindNone, &announce.AmbiguousClassificationError{Reason: "more than one kind token found"}
	}
	return kind, nil
}
