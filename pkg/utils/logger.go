package utils

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	zl zerolog.Logger
}

var defaultLogger *Logger

func init() {
	defaultLogger = NewLogger("info")
}

func parseLevel(levelStr string) zerolog.Level {
	switch levelStr {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func consoleWriter() io.Writer {
	return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
}

func newLogger(levelStr string, w io.Writer) *Logger {
	zl := zerolog.New(w).Level(parseLevel(levelStr)).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

func NewLogger(levelStr string) *Logger {
	return newLogger(levelStr, consoleWriter())
}

// NewFileLogger writes to the console and to a rotated log file.
func NewFileLogger(levelStr, filePath string) *Logger {
	file := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    100, // megabytes
		MaxBackups: 7,
		MaxAge:     30, // days
		Compress:   true,
	}
	return newLogger(levelStr, zerolog.MultiLevelWriter(consoleWriter(), file))
}

// SetDefault replaces the logger used by the global logging functions.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

func (l *Logger) Debug(format string, v ...interface{}) {
	l.zl.Debug().Msgf(format, v...)
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.zl.Info().Msgf(format, v...)
}

func (l *Logger) Warn(format string, v ...interface{}) {
	l.zl.Warn().Msgf(format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.zl.Error().Msgf(format, v...)
}

// Global logging functions
func LogDebug(msg string) {
	defaultLogger.Debug(msg)
}

func LogInfo(msg string) {
	defaultLogger.Info(msg)
}

func LogWarn(msg string) {
	defaultLogger.Warn(msg)
}

func LogError(msg string) {
	defaultLogger.Error(msg)
}
