package logging

import (
	"log/slog"
	"os"
)

// Setup installs a JSON stdout logger as the slog default and returns its
// handler so it can be fanned out once the database is up. Development
// environments also log DEBUG.
func Setup(appEnv string) slog.Handler {
	level := slog.LevelInfo
	if appEnv == "development" {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
	return handler
}
