package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type (
	// Root объединяет все конфигурационные блоки.
	Root struct {
		Pipeline Pipeline `yaml:"pipeline"`
		Moodle   Moodle   `yaml:"moodle"`
		Gemini   Gemini   `yaml:"gemini"`
		Email    Email    `yaml:"email"`
	}

	// Pipeline описывает параметры главного пайплайна.
	Pipeline struct {
		StatePath       string `yaml:"state_path"`
		LinksPath       string `yaml:"links_path"`
		ReminderDBPath  string `yaml:"reminder_db_path"`
		ResultsPath     string `yaml:"results_path"` // дамп объявлений для офлайн-режима
		CoursesPath     string `yaml:"courses_path"` // дамп курсов для офлайн-режима
		AutoSubscribe   bool   `yaml:"auto_subscribe"`
		ClassifyWorkers int    `yaml:"classify_workers"`
	}

	// Moodle содержит адреса портала. Логин и пароль приходят только
	// из переменных окружения, в YAML их не бывает.
	Moodle struct {
		BaseURL  string `yaml:"base_url"`
		LoginURL string `yaml:"login_url"`
	}

	// Gemini содержит настройки модели сокращения сообщений.
	Gemini struct {
		Model            string `yaml:"model"`
		BatchSize        int    `yaml:"batch_size"`
		MaxMessageLength int    `yaml:"max_message_length"` // порог, после которого сообщение сокращается
	}

	// Email описывает запасной почтовый канал доставки.
	Email struct {
		Enabled bool     `yaml:"enabled"`
		Host    string   `yaml:"host"`
		Port    int      `yaml:"port"`
		From    string   `yaml:"from"`
		To      []string `yaml:"to"`
	}
)

// LoadRoot читает основной файл конфигурации.
func LoadRoot(path string) (Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Root{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Root
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Root{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
