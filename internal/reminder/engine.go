package reminder

import (
	"log"

	"github.com/maine/moodle_bot_reminders/internal/announce"
)

// reminderWindowDays — за сколько дней до дедлайна начинаются
// напоминания.
const reminderWindowDays = 7

// RecordStore — персистентное состояние напоминаний между запусками.
// Get возвращает false вторым значением, если записи нет.
type RecordStore interface {
	Get(announcementID string) (announce.ReminderRecord, bool, error)
	Put(rec announce.ReminderRecord) error
	Delete(announcementID string) error
}

// Engine решает, по каким объявлениям пора напоминать.
//
// Контракт: не больше двух напоминаний на объявление за всю его жизнь —
// одно при входе в недельное окно и одно в последний день. Движок
// обязан быть идемпотентным: повторный запуск в тот же день не должен
// дать повторного сообщения, поэтому каждый переход фиксируется
// в сторе до того, как объявление попадёт в выдачу.
type Engine struct {
	store RecordStore
}

// NewEngine создаёт движок напоминаний поверх стора.
func NewEngine(store RecordStore) *Engine {
	return &Engine{store: store}
}

// Evaluate прогоняет пачку классифицированных объявлений через машину
// состояний и возвращает те, по которым нужно отправить напоминание.
// Сбой стора не валит пачку: объявление пропускается с warning и будет
// повторено на следующем запуске.
func (e *Engine) Evaluate(batch []announce.Announcement) []announce.Announcement {
	var due []announce.Announcement

	for _, a := range batch {
		if a.Kind == announce.KindNone {
			continue
		}

		emit, err := e.step(a)
		if err != nil {
			log.Printf("[WARN] skipping announcement %s this run: %v", a.ID, err)
			continue
		}
		if emit {
			due = append(due, a)
		}
	}

	return due
}

func (e *Engine) step(a announce.Announcement) (bool, error) {
	// Дедлайн прошёл или не распознан: запись больше не нужна.
	if a.Deadline == nil || a.Deadline.DayOffset <= 0 {
		if err := e.store.Delete(a.ID); err != nil {
			return false, &announce.StoreAccessError{Op: "delete", AnnouncementID: a.ID, Err: err}
		}
		return false, nil
	}

	rec, found, err := e.store.Get(a.ID)
	if err != nil {
		return false, &announce.StoreAccessError{Op: "get", AnnouncementID: a.ID, Err: err}
	}
	if !found {
		rec = announce.ReminderRecord{AnnouncementID: a.ID}
	}

	switch offset := a.Deadline.DayOffset; {
	case offset == 1 && rec.StrikeCount <= 1:
		// Последний день: финальное напоминание. Счётчик исчерпывается
		// до выдачи, чтобы повторный запуск в тот же день молчал;
		// сама запись удалится после прохода дедлайна.
		rec.StrikeCount = 2
		if err := e.store.Put(rec); err != nil {
			return false, &announce.StoreAccessError{Op: "put", AnnouncementID: a.ID, Err: err}
		}
		return true, nil

	case offset > reminderWindowDays:
		return false, nil

	case rec.StrikeCount == 0:
		// Вход в недельное окно: первое напоминание.
		rec.StrikeCount = 1
		if err := e.store.Put(rec); err != nil {
			return false, &announce.StoreAccessError{Op: "put", AnnouncementID: a.ID, Err: err}
		}
		return true, nil
	}

	return false, nil
}
