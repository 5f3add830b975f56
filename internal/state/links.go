package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LinksStore хранит дайджест ссылок на онлайн-встречи по предметам
// в JSON-файле рядом с файлом состояния. Формат: имя предмета -
// список ссылок из последнего объявления с этим предметом.
type LinksStore struct {
	path string
}

// NewLinksStore создаёт новый стор дайджеста ссылок.
func NewLinksStore(path string) *LinksStore {
	return &LinksStore{path: path}
}

// Load читает дайджест. Отсутствующий или повреждённый файл даёт
// пустой дайджест: это вспомогательные данные, терять их не страшно.
func (s *LinksStore) Load(ctx context.Context) (map[string][]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]string{}, nil
		}
		return nil, fmt.Errorf("read links file: %w", err)
	}

	links := map[string][]string{}
	if err := json.Unmarshal(data, &links); err != nil {
		return map[string][]string{}, nil
	}
	return links, nil
}

// Save записывает дайджест атомарно, тем же приёмом, что и FileStore.
func (s *LinksStore) Save(ctx context.Context, links map[string][]string) error {
	data, err := json.MarshalIndent(links, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal links: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create links directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp links file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp links file: %w", err)
	}

	return nil
}
