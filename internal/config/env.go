package config

import (
	"fmt"
	"os"
)

// EnvConfig содержит токены и другие переменные окружения.
type EnvConfig struct {
	TelegramBotToken string
	MoodleUsername   string
	MoodlePassword   string
	GeminiAPIKey     string
	SMTPUsername     string
	SMTPPassword     string
	LogLevel         string
	ForceDispatch    bool
	SkipGemini       bool // Пропустить сокращение сообщений через Gemini
	Offline          bool // Читать дампы вместо живого портала
}

// LoadEnvConfig читает переменные окружения и возвращает конфигурацию.
// Возвращает ошибку, если обязательные переменные отсутствуют или пустые.
func LoadEnvConfig() (*EnvConfig, error) {
	tgToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if tgToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is required")
	}

	offline := os.Getenv("OFFLINE") == "1"

	// Учётка портала нужна только при живом сборе.
	username := os.Getenv("MOODLE_USERNAME")
	password := os.Getenv("MOODLE_PASSWORD")
	if !offline && (username == "" || password == "") {
		return nil, fmt.Errorf("MOODLE_USERNAME and MOODLE_PASSWORD environment variables are required (or set OFFLINE=1)")
	}

	skipGemini := os.Getenv("SKIP_GEMINI") == "1"

	// GEMINI_API_KEY обязателен только если сокращение не отключено.
	geminiKey := os.Getenv("GEMINI_API_KEY")
	if !skipGemini && geminiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required (or set SKIP_GEMINI=1)")
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	return &EnvConfig{
		TelegramBotToken: tgToken,
		MoodleUsername:   username,
		MoodlePassword:   password,
		GeminiAPIKey:     geminiKey,
		SMTPUsername:     os.Getenv("SMTP_USERNAME"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		LogLevel:         logLevel,
		ForceDispatch:    os.Getenv("FORCE_DISPATCH") == "1",
		SkipGemini:       skipGemini,
		Offline:          offline,
	}, nil
}
