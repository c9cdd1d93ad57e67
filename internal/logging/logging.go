// Package logging sets up the binaries' slog logger.
package logging

import (
	"io"
	"log/slog"
	"runtime"
	"runtime/debug"

	"github.com/microsoft/soundscape-core/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes JSON records to console and, when a log file is
// configured, to a rotating file.
type Logger struct {
	*slog.Logger
	file *lumberjack.Logger
}

func New(cfg config.LoggingConfig, console io.Writer) (*Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	w := console
	var file *lumberjack.Logger
	if cfg.File != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		if level == slog.LevelDebug {
			file.MaxSize = max(file.MaxSize, 512)
		}
		w = io.MultiWriter(console, file)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	l := &Logger{Logger: slog.New(h), file: file}

	l.Info("system information",
		slog.String("GOARCH", runtime.GOARCH),
		slog.String("GOOS", runtime.GOOS),
		slog.Int("NumCPUs", runtime.NumCPU()))
	if bi, ok := debug.ReadBuildInfo(); ok {
		l.Info("build", slog.String("go_version", bi.GoVersion), slog.String("path", bi.Path))
	}

	return l, nil
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
