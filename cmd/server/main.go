package main

import (
	"log/slog"
	"os"

	"go-notes-server/internal/app"
	"go-notes-server/internal/logger"
)

func main() {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var logHandler slog.Handler
	if os.Getenv("LOG_FORMAT") == "json" {
		logHandler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// Custom colored handler for the dev console
		logHandler = logger.NewPrettyHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(logHandler))

	application, err := app.New()
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
