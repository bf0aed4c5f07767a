package main

import (
	"log/slog"

	"github.com/nebari-dev/mysql-topology/pkg/status"
)

// statusLogHandler returns a status.Handler that logs updates using slog, so
// pipeline packages report progress without depending on a logger.
func statusLogHandler(logger *slog.Logger) status.Handler {
	return func(update status.Update) {
		attrs := []any{"message", update.Message}

		if update.Deployment != "" {
			attrs = append(attrs, "deployment", update.Deployment)
		}
		if update.Stage != "" {
			attrs = append(attrs, "stage", string(update.Stage))
		}
		for key, value := range update.Fields {
			attrs = append(attrs, key, value)
		}

		switch update.Level {
		case status.LevelProgress:
			logger.Info("Progress", attrs...)
		case status.LevelSuccess:
			logger.Info("Success", attrs...)
		case status.LevelWarning:
			logger.Warn("Warning", attrs...)
		case status.LevelError:
			logger.Error("Error", attrs...)
		default:
			logger.Info("Status", attrs...)
		}
	}
}
