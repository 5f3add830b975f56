package announce

import "time"

// Kind — закрытый набор типов объявления. Любой токен вне набора
// схлопывается в KindNone и никогда не протекает дальше в сыром виде.
type Kind string

const (
	KindNone    Kind = ""
	KindExam    Kind = "exam"
	KindLab     Kind = "lab"
	KindProject Kind = "project"
	KindSession Kind = "session"
)

// RawRecord описывает сырую запись из портала до разбора.
type RawRecord struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"` // формат "<CODE>:<type-or-empty>"
	FullMessage string    `json:"fullmessage"`
	CreatedAt   time.Time `json:"created_at"`
}

// Announcement — одно классифицированное объявление.
// Производные поля заполняются этапами пайплайна; каждая горутина
// владеет своим экземпляром, общих мутаций нет.
type Announcement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
	SubjectCode string    `json:"subject_code"`
	SubjectName string    `json:"subject_name"`
	Kind        Kind      `json:"kind,omitempty"`
	Deadline    *Deadline `json:"deadline,omitempty"`
	Links       []string  `json:"links,omitempty"`
}

// Deadline — извлечённый из текста дедлайн.
type Deadline struct {
	// Date в детерминированном формате "Monday January 2 2006".
	Date string `json:"date"`
	// DayOffset — целые сутки от опорного времени до дедлайна,
	// усечение к нулю; отрицательное значение - дедлайн в прошлом.
	// Пересчитывается на каждом запуске, никогда не кэшируется.
	DayOffset int `json:"day_offset"`
}

// ReminderRecord — запись о напоминаниях по одному объявлению.
// Хранится вне памяти процесса и переживает рестарты.
type ReminderRecord struct {
	AnnouncementID string
	StrikeCount    int
}

// SearchRequest — поисковый запрос, накопившийся от пользователя
// между запусками пайплайна.
type SearchRequest struct {
	ChatID string
	Query  string
}

// State хранит служебную информацию бота между запусками.
type State struct {
	LastRun    time.Time          `json:"last_run"`
	Recipients []RecipientBinding `json:"recipients"`
	Telegram   TelegramState      `json:"telegram"`
}

// RecipientBinding хранит известные чаты для рассылки.
type RecipientBinding struct {
	Name      string    `json:"name"`
	ChatID    string    `json:"chat_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TelegramState хранит служебную информацию для взаимодействия с Bot API.
type TelegramState struct {
	LastUpdateID int64 `json:"last_update_id"`
}
