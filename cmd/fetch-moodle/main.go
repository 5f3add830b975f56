package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/hashicorp/logutils"

	"github.com/maine/moodle_bot_reminders/internal/config"
	"github.com/maine/moodle_bot_reminders/internal/sources"
)

// Утилита для ручного съёма дампов портала: логинится, забирает
// объявления и курсы и пишет их в results.json / courses.json.
// Дампы скармливаются пайплайну в офлайн-режиме (OFFLINE=1)
// и используются как фикстуры в тестах.
func main() {
	ctx := context.Background()

	rootCfg, err := config.LoadRoot("configs/pipeline.yaml")
	if err != nil {
		log.Fatalf("load pipeline config: %v", err)
	}

	username := os.Getenv("MOODLE_USERNAME")
	password := os.Getenv("MOODLE_PASSWORD")
	if username == "" || password == "" {
		log.Fatal("MOODLE_USERNAME and MOODLE_PASSWORD environment variables are required")
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}
	log.SetOutput(&logutils.LevelFilter{
		Levels:   []logutils.LogLevel{"DEBUG", "INFO", "WARN", "ERROR"},
		MinLevel: logutils.LogLevel(logLevel),
		Writer:   os.Stderr,
	})

	session, err := sources.NewSession(
		rootCfg.Moodle.BaseURL, rootCfg.Moodle.LoginURL, username, password)
	if err != nil {
		log.Fatalf("create portal session: %v", err)
	}

	log.Println("[INFO] logging in...")
	if err := session.Login(ctx); err != nil {
		log.Fatalf("login failed: %v", err)
	}

	log.Println("[INFO] fetching notifications...")
	results, err := session.FetchNotifications(ctx, 20)
	if err != nil {
		log.Fatalf("fetch notifications: %v", err)
	}

	log.Println("[INFO] fetching courses...")
	courses, err := session.FetchCourses(ctx)
	if err != nil {
		log.Fatalf("fetch courses: %v", err)
	}

	resultsPath := rootCfg.Pipeline.ResultsPath
	if resultsPath == "" {
		resultsPath = "bot_data/results.json"
	}
	coursesPath := rootCfg.Pipeline.CoursesPath
	if coursesPath == "" {
		coursesPath = "bot_data/courses.json"
	}

	if err := os.MkdirAll(filepath.Dir(resultsPath), 0755); err != nil {
		log.Fatalf("create dump directory: %v", err)
	}
	if err := os.WriteFile(resultsPath, results, 0644); err != nil {
		log.Fatalf("write %s: %v", resultsPath, err)
	}
	if err := os.WriteFile(coursesPath, courses, 0644); err != nil {
		log.Fatalf("write %s: %v", coursesPath, err)
	}

	log.Printf("[INFO] dumps written to %s and %s", resultsPath, coursesPath)
}
