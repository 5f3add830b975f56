package main

import (
	"context"
	"log"
	"os"

	"github.com/hashicorp/logutils"

	"github.com/maine/moodle_bot_reminders/internal/app"
	"github.com/maine/moodle_bot_reminders/internal/classify"
	"github.com/maine/moodle_bot_reminders/internal/config"
	"github.com/maine/moodle_bot_reminders/internal/deadline"
	"github.com/maine/moodle_bot_reminders/internal/dedup"
	"github.com/maine/moodle_bot_reminders/internal/formatter"
	"github.com/maine/moodle_bot_reminders/internal/gemini"
	"github.com/maine/moodle_bot_reminders/internal/ingest"
	"github.com/maine/moodle_bot_reminders/internal/links"
	"github.com/maine/moodle_bot_reminders/internal/notify"
	"github.com/maine/moodle_bot_reminders/internal/reminder"
	"github.com/maine/moodle_bot_reminders/internal/search"
	"github.com/maine/moodle_bot_reminders/internal/sources"
	"github.com/maine/moodle_bot_reminders/internal/state"
	"github.com/maine/moodle_bot_reminders/internal/telegram"
)

func main() {
	ctx := context.Background()

	// Загружаем конфигурацию из YAML
	rootCfg, err := config.LoadRoot("configs/pipeline.yaml")
	if err != nil {
		log.Fatalf("load pipeline config: %v", err)
	}

	// Загружаем переменные окружения (токены)
	envCfg, err := config.LoadEnvConfig()
	if err != nil {
		log.Fatalf("load env config: %v", err)
	}

	log.SetOutput(&logutils.LevelFilter{
		Levels:   []logutils.LogLevel{"DEBUG", "INFO", "WARN", "ERROR"},
		MinLevel: logutils.LogLevel(envCfg.LogLevel),
		Writer:   os.Stderr,
	})

	// Источник объявлений: живой портал или офлайн-дампы
	var collector app.Collector
	if envCfg.Offline {
		collector = sources.NewFileCollector(
			orDefault(rootCfg.Pipeline.ResultsPath, "bot_data/results.json"),
			orDefault(rootCfg.Pipeline.CoursesPath, "bot_data/courses.json"),
			nil)
	} else {
		session, err := sources.NewSession(
			rootCfg.Moodle.BaseURL, rootCfg.Moodle.LoginURL,
			envCfg.MoodleUsername, envCfg.MoodlePassword)
		if err != nil {
			log.Fatalf("create portal session: %v", err)
		}
		collector = sources.NewMoodleCollector(session, 0, nil)
	}

	reminderStore, err := reminder.OpenSQLiteStore(orDefault(rootCfg.Pipeline.ReminderDBPath, "bot_data/reminders.db"))
	if err != nil {
		log.Fatalf("open reminder store: %v", err)
	}
	defer reminderStore.Close()

	tgClient := telegram.NewClient(envCfg.TelegramBotToken)

	// Сокращатель включается только при доступном Gemini
	var condenser app.Condenser
	if !envCfg.SkipGemini {
		geminiClient, err := gemini.NewClient()
		if err != nil {
			log.Fatalf("create Gemini client: %v", err)
		}
		condenser = gemini.NewCondenser(geminiClient, rootCfg.Gemini)
	}

	var recipientResolver app.RecipientResolver
	if rootCfg.Pipeline.AutoSubscribe {
		recipientResolver = telegram.NewRecipientManager(tgClient, true)
	}

	var email app.EmailNotifier
	if rootCfg.Email.Enabled {
		email = notify.NewEmailSender(notify.EmailConfig{
			Host:     rootCfg.Email.Host,
			Port:     rootCfg.Email.Port,
			Username: envCfg.SMTPUsername,
			Password: envCfg.SMTPPassword,
			From:     rootCfg.Email.From,
			To:       rootCfg.Email.To,
		})
	}

	p := app.NewPipeline(app.PipelineDeps{
		Collector:       collector,
		Ingestor:        ingest.New(),
		Classifier:      classify.New(),
		Deadlines:       deadline.NewExtractor(),
		Links:           links.New(),
		Postponed:       dedup.New(),
		Reminders:       reminder.NewEngine(reminderStore),
		Condenser:       condenser,
		Formatter:       formatter.New(),
		Sender:          telegram.NewSender(tgClient),
		Recipients:      recipientResolver,
		Search:          search.NewService(),
		StateStore:      state.NewFileStore(orDefault(rootCfg.Pipeline.StatePath, "bot_data/state.json")),
		LinksStore:      state.NewLinksStore(orDefault(rootCfg.Pipeline.LinksPath, "bot_data/links_and_meetings.json")),
		Email:           email,
		Clock:           nil, // используем time.Now по умолчанию
		ClassifyWorkers: rootCfg.Pipeline.ClassifyWorkers,
		ForceDispatch:   envCfg.ForceDispatch,
	})

	if err := p.Run(ctx); err != nil {
		log.Fatalf("pipeline failed: %v", err)
	}

	log.Println("[INFO] pipeline completed successfully")
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
