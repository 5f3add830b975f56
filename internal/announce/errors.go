package announce

import "fmt"

// MalformedRecordError — сырая запись не имеет обязательной формы
// (нет баннера-разделителя, пустой заголовок). Запись отбрасывается,
// остальная пачка обрабатывается дальше.
type MalformedRecordError struct {
	ID     string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %s: %s", e.ID, e.Reason)
}

// UnknownSubjectError — код предмета отсутствует в маппинге.
// Объявление исключается из выдачи; скорее всего маппинг устарел,
// поэтому оператору пишется warning, но пачка не падает.
type UnknownSubjectError struct {
	ID   string
	Code string
}

func (e *UnknownSubjectError) Error() string {
	return fmt.Sprintf("unknown subject code %q in record %s", e.Code, e.ID)
}

// AmbiguousClassificationError — найдено ноль или больше одного
// токена типа, либо в одном предложении несколько офсетных фраз,
// либо запрещённая комбинация явных/неявных единиц дня.
// Поле остаётся пустым, ошибка наружу не протекает.
type AmbiguousClassificationError struct {
	Reason string
}

func (e *AmbiguousClassificationError) Error() string {
	return "ambiguous classification: " + e.Reason
}

// StoreAccessError — сбой чтения/записи персистентного стора.
// Обрабатывается per-announcement: объявление пропускается и будет
// повторено на следующем запуске.
type StoreAccessError struct {
	Op             string
	AnnouncementID string
	Err            error
}

func (e *StoreAccessError) Error() string {
	return fmt.Sprintf("reminder store %s for %s: %v", e.Op, e.AnnouncementID, e.Err)
}

func (e *StoreAccessError) Unwrap() error { return e.Err }
