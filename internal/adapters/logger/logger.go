// Package logger implements the logging adapter on logrus, with optional
// rotated JSON log files written through lumberjack.
package logger

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
)

// Logger implements ports.Logger using logrus.
type Logger struct {
	core  *core
	entry *logrus.Entry
}

// core is shared by a logger and every logger derived from it with WithField.
type core struct {
	mu   sync.Mutex
	base *logrus.Logger
	file *lumberjack.Logger
}

// New creates a Logger writing human readable records to stderr at info level.
func New() *Logger {
	return NewWithWriter(os.Stderr)
}

// NewWithWriter creates a Logger writing human readable records to w.
func NewWithWriter(w io.Writer) *Logger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetLevel(logrus.InfoLevel)
	base.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
	return &Logger{
		core:  &core{base: base},
		entry: logrus.NewEntry(base),
	}
}

// SetOutput updates the console destination.
func (l *Logger) SetOutput(w io.Writer) {
	l.core.base.SetOutput(w)
}

// Debug logs a diagnostic message.
func (l *Logger) Debug(msg string) {
	l.entry.Debug(msg)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.entry.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.entry.Warn(msg)
}

// Error logs an error, flattening zerr metadata along the chain into fields.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}
	l.entry.WithFields(errorFields(err)).Error(err.Error())
}

// WithField returns a logger that attaches key=value to every record.
func (l *Logger) WithField(key string, value any) ports.Logger {
	return &Logger{core: l.core, entry: l.entry.WithField(key, value)}
}

// WithError returns a logger that attaches err and its zerr metadata to every record.
func (l *Logger) WithError(err error) ports.Logger {
	if err == nil {
		return l
	}
	return &Logger{core: l.core, entry: l.entry.WithFields(errorFields(err)).WithError(err)}
}

// Configure sets the level and starts the rotated log file in folder.
// If the folder cannot be created the console output is kept and the error returned.
func (l *Logger) Configure(level domain.LogLevel, folder string) error {
	c := l.core
	c.mu.Lock()
	defer c.mu.Unlock()

	c.base.SetLevel(toLogrusLevel(level))

	if folder == "" || c.file != nil {
		return nil
	}
	if err := os.MkdirAll(folder, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create log folder"), "path", folder)
	}
	c.file = &lumberjack.Logger{
		Filename:   filepath.Join(folder, domain.LogFileName),
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		LocalTime:  true,
	}
	c.base.AddHook(&fileHook{
		w:         c.file,
		formatter: &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano},
	})
	return nil
}

// Close releases the log file, if one was opened.
func (l *Logger) Close() error {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	if l.core.file == nil {
		return nil
	}
	return l.core.file.Close()
}

func toLogrusLevel(level domain.LogLevel) logrus.Level {
	switch level {
	case domain.LogLevelTrace:
		return logrus.TraceLevel
	case domain.LogLevelDebug:
		return logrus.DebugLevel
	case domain.LogLevelWarn:
		return logrus.WarnLevel
	case domain.LogLevelError:
		return logrus.ErrorLevel
	case domain.LogLevelMute:
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

func errorFields(err error) logrus.Fields {
	fields := logrus.Fields{}
	for e := err; e != nil; e = errors.Unwrap(e) {
		z, ok := e.(*zerr.Error)
		if !ok {
			continue
		}
		for k, v := range z.Metadata() {
			// The outermost value wins.
			if _, exists := fields[k]; !exists {
				fields[k] = v
			}
		}
	}
	return fields
}

// fileHook mirrors every record into the rotated log file as JSON.
type fileHook struct {
	w         io.Writer
	formatter logrus.Formatter
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.w.Write(line)
	return err
}
