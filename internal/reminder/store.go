package reminder

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/maine/moodle_bot_reminders/internal/announce"
)

const schema = `
CREATE TABLE IF NOT EXISTS reminder_record (
	announcement_id TEXT PRIMARY KEY,
	strike_count    INTEGER NOT NULL DEFAULT 0,
	changed         TIMESTAMP NOT NULL
);`

// SQLiteStore хранит записи напоминаний в локальной базе SQLite.
// Одна строка на объявление; записи удаляются, как только дедлайн
// прошёл, так что база не растёт бесконечно.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore открывает (и при необходимости создаёт) базу по пути
// path и накатывает схему.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open reminder db %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init reminder db schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close закрывает базу.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get читает запись по id объявления.
func (s *SQLiteStore) Get(announcementID string) (announce.ReminderRecord, bool, error) {
	row := s.db.QueryRow(
		`SELECT announcement_id, strike_count FROM reminder_record WHERE announcement_id = ?`,
		announcementID)

	var rec announce.ReminderRecord
	err := row.Scan(&rec.AnnouncementID, &rec.StrikeCount)
	if errors.Is(err, sql.ErrNoRows) {
		return announce.ReminderRecord{}, false, nil
	}
	if err != nil {
		return announce.ReminderRecord{}, false, err
	}
	return rec, true, nil
}

// Put создаёт или обновляет запись.
func (s *SQLiteStore) Put(rec announce.ReminderRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO reminder_record (announcement_id, strike_count, changed)
		 VALUES (?, ?, ?)
		 ON CONFLICT(announcement_id) DO UPDATE SET
		 	strike_count = excluded.strike_count,
		 	changed = excluded.changed`,
		rec.AnnouncementID, rec.StrikeCount, time.Now().UTC())
	return err
}

// Delete удаляет запись. Удаление отсутствующей записи не ошибка.
func (s *SQLiteStore) Delete(announcementID string) error {
	_, err := s.db.Exec(
		`DELETE FROM reminder_record WHERE announcement_id = ?`, announcementID)
	return err
}
