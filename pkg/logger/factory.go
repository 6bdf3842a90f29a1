package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger implements utils.ExtendedLogger without any global state.
type Logger struct {
	logger *logrus.Logger
	file   *os.File
}

// New creates a logger with the given level ("debug", "info", ...),
// format ("text" or "json") and optional log file. When logFile is
// empty, output goes to stdout only.
func New(level, format, logFile string) (Logger, error) {
	l := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return Logger{}, fmt.Errorf("invalid log level: %w", err)
	}
	l.SetLevel(logLevel)

	switch strings.ToLower(format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	default:
		return Logger{}, fmt.Errorf("unsupported log format: %s", format)
	}

	var file *os.File
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return Logger{}, fmt.Errorf("failed to create log directory: %w", err)
		}
		//nolint:gosec // G304: logFile comes from configuration, not user input
		file, err = os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return Logger{}, fmt.Errorf("failed to open log file: %w", err)
		}
		l.SetOutput(io.MultiWriter(file, os.Stdout))
	} else {
		l.SetOutput(os.Stdout)
	}

	return Logger{logger: l, file: file}, nil
}

// NewTestLogger creates a quiet logger for tests.
func NewTestLogger() Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	l.SetOutput(io.Discard)
	return Logger{logger: l}
}

func (l Logger) Debug(args ...interface{})                 { l.logger.Debug(args...) }
func (l Logger) Debugf(format string, args ...interface{}) { l.logger.Debugf(format, args...) }
func (l Logger) Info(args ...interface{})                  { l.logger.Info(args...) }
func (l Logger) Infof(format string, args ...interface{})  { l.logger.Infof(format, args...) }
func (l Logger) Warn(args ...interface{})                  { l.logger.Warn(args...) }
func (l Logger) Warnf(format string, args ...interface{})  { l.logger.Warnf(format, args...) }
func (l Logger) Error(args ...interface{})                 { l.logger.Error(args...) }
func (l Logger) Errorf(format string, args ...interface{}) { l.logger.Errorf(format, args...) }

func (l Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.logger.WithField(key, value)
}

func (l Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.logger.WithFields(fields)
}

func (l Logger) WithError(err error) *logrus.Entry {
	return l.logger.WithError(err)
}

// Close closes the log file, if any.
func (l Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
