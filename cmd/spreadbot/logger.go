package main

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alejandrodnm/spreadbot/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLogger instala el logger por defecto. Escribe a stdout y/o a un
// archivo rotado por lumberjack. La función devuelta cierra el archivo.
func setupLogger(cfg config.LoggingConfig) func() {
	var writers []io.Writer
	closeFn := func() {}

	if cfg.LogToConsole || !cfg.LogToFile {
		writers = append(writers, os.Stdout)
	}
	if cfg.LogToFile {
		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		writers = append(writers, rotator)
		closeFn = func() { rotator.Close() }
	}

	slog.SetDefault(slog.New(newHandler(io.MultiWriter(writers...), cfg)))
	return closeFn
}

func newHandler(w io.Writer, cfg config.LoggingConfig) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
