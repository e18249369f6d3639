package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var log = zerolog.New(io.Discard)
var logFile *os.File

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return fmt.Sprintf("[%s]", i)
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	return output
}

// Init sets up console logging on stdout at the given level.
// An unknown level falls back to info. The DEBUG environment variable forces debug.
func Init(level string) {
	log = zerolog.New(consoleWriter(os.Stdout)).With().Timestamp().Logger()
	SetLevel(level)
}

// InitFileOnly initializes the logger to write only to a file (for TUI mode)
func InitFileOnly(logDir, level string) (string, error) {
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create logs directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(logDir, fmt.Sprintf("rotki-client_%s.log", timestamp))

	var err error
	logFile, err = os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}

	// JSON lines in the file, easier to grep than the console format
	log = zerolog.New(logFile).With().Timestamp().Logger()
	SetLevel(level)

	Info("Logger initialized in file-only mode: %s", logPath)
	return logPath, nil
}

// SetLevel changes the global log level.
func SetLevel(level string) {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	if _, exists := os.LookupEnv("DEBUG"); exists {
		parsed = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// Close closes the log file if it's open
func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// SetOutput sets the output destination for the logger
func SetOutput(w io.Writer) {
	log = zerolog.New(consoleWriter(w)).With().Timestamp().Logger()
}

// Debug logs a debug message
func Debug(msg string, args ...interface{}) {
	log.Debug().Msgf(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...interface{}) {
	log.Info().Msgf(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...interface{}) {
	log.Warn().Msgf(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...interface{}) {
	log.Error().Msgf(msg, args...)
}

// Fatal logs a fatal message and exits the program
func Fatal(msg string, args ...interface{}) {
	log.Fatal().Msgf(msg, args...)
}

// Task logs a message tagged with the task id and type.
func Task(level zerolog.Level, id int64, taskType string, msg string, args ...interface{}) {
	log.WithLevel(level).Int64("task_id", id).Str("task_type", taskType).Msgf(msg, args...)
}
