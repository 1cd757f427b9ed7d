package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

type Options struct {
	Level  logrus.Level
	Format string
	// Path, when set, duplicates output into the given file.
	Path string
}

// NewLogger builds the process logger. The returned file is nil unless Path is set
// and must be closed by the caller on shutdown.
func NewLogger(opts Options) (*os.File, *logrus.Logger, error) {
	logger := logrus.New()
	logger.SetLevel(opts.Level)
	if opts.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if opts.Path == "" {
		logger.SetOutput(os.Stdout)
		return nil, logger, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, f))
	return f, logger, nil
}

func ConsoleLogger(level logrus.Level) *logrus.Logger {
	_, logger, _ := NewLogger(Options{Level: level})
	return logger
}
