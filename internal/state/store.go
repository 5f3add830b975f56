package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/maine/moodle_bot_reminders/internal/announce"
)

// FileStore хранит состояние бота (получатели, отметка последнего
// запуска, офсет getUpdates) в JSON-файле.
type FileStore struct {
	path string
}

// NewFileStore создаёт новый файловый стор.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load читает состояние из файла. Отсутствующий файл - первый запуск,
// возвращается пустое состояние. Повреждённый JSON откладывается
// в .broken для диагностики, и пайплайн продолжает с пустого состояния:
// потерять подписчиков до следующего их сообщения лучше, чем не
// отправить напоминания вовсе.
func (s *FileStore) Load(ctx context.Context) (announce.State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return announce.State{}, nil
		}
		return announce.State{}, fmt.Errorf("read state file: %w", err)
	}

	var st announce.State
	if err := json.Unmarshal(data, &st); err != nil {
		brokenPath := s.path + ".broken"
		_ = os.WriteFile(brokenPath, data, 0644)
		return announce.State{}, nil
	}

	return st, nil
}

// Save записывает состояние атомарно: сначала во временный файл,
// затем rename поверх основного.
func (s *FileStore) Save(ctx context.Context, st announce.State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp state file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp state file: %w", err)
	}

	return nil
}
