package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. JSON output so broker and
// HTTP log lines stay machine-parseable in one stream.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
