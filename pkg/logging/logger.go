// Package logging provides the workspace log writer: a rotating file log
// with an optional JSON line mode. Loggers are passed in explicitly; a nil
// *Logger is valid everywhere and disables logging.
package logging

import (
	"encoding/json"
	"fmt"
	"log"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the log file and rotation policy.
type Options struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	JSONMode   bool
}

// Logger writes workspace activity to a rotating log file.
type Logger struct {
	logger   *log.Logger
	file     *lumberjack.Logger
	jsonMode bool
}

// New creates a logger writing to the configured file. Rotation defaults:
// 15 MB per file, 3 backups, 28 days retention.
func New(opts Options) *Logger {
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 15
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 3
	}
	if opts.MaxAgeDays <= 0 {
		opts.MaxAgeDays = 28
	}
	file := &lumberjack.Logger{
		Filename:   opts.Filename,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	return &Logger{
		logger:   log.New(file, "", log.LstdFlags),
		file:     file,
		jsonMode: opts.JSONMode,
	}
}

// Close releases the underlying log file.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Logf logs a formatted message.
func (l *Logger) Logf(format string, v ...any) {
	if l == nil {
		return
	}
	if l.jsonMode {
		_ = json.NewEncoder(l.logger.Writer()).Encode(map[string]any{
			"level": "info",
			"msg":   fmt.Sprintf(format, v...),
		})
		return
	}
	l.logger.Printf(format, v...)
}

// LogError logs an error.
func (l *Logger) LogError(err error) {
	if l == nil || err == nil {
		return
	}
	if l.jsonMode {
		_ = json.NewEncoder(l.logger.Writer()).Encode(map[string]any{
			"level": "error",
			"error": err.Error(),
		})
		return
	}
	l.logger.Printf("Error: %s", err)
}

// LogOperation logs a named workspace operation with free-form details.
func (l *Logger) LogOperation(operation, details string) {
	if l == nil {
		return
	}
	if l.jsonMode {
		_ = json.NewEncoder(l.logger.Writer()).Encode(map[string]any{
			"level":     "info",
			"operation": operation,
			"details":   details,
		})
		return
	}
	l.logger.Printf("Operation: %s, Details: %s", operation, details)
}
