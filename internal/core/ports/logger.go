package ports

import "go.trai.ch/backfill/internal/core/domain"

// Logger defines the interface for logging.
//
//go:generate mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(err error)

	// WithField returns a logger that attaches key=value to every record.
	WithField(key string, value any) Logger

	// WithError returns a logger that attaches err and its metadata to every record.
	WithError(err error) Logger

	// Configure applies the resolved level and, when folder is not empty, starts
	// writing a rotated log file inside it.
	Configure(level domain.LogLevel, folder string) error
}
