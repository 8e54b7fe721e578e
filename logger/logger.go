package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger wraps the process-wide logrus logger.
type Logger struct {
	*logrus.Logger
	service string
}

// New returns a JSON logger tagged with the service name. Level names follow
// logrus ("debug", "info", "warn", "error"); anything else means info.
func New(service, level string) *Logger {
	return NewWithOutput(service, level, os.Stdout)
}

func NewWithOutput(service, level string, out io.Writer) *Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	log.SetOutput(out)

	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	return &Logger{Logger: log, service: service}
}

// Entry returns an entry carrying the service field.
func (l *Logger) Entry() *logrus.Entry {
	return l.WithField("service", l.service)
}

// WithRequestID adds the request ID to an entry.
func (l *Logger) WithRequestID(requestID string) *logrus.Entry {
	return l.Entry().WithField("request_id", requestID)
}

// Discard is a logger for tests.
func Discard() *Logger {
	return NewWithOutput("test", "panic", io.Discard)
}
