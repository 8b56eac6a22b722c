package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Fields is a set of structured key/value pairs attached to a log entry.
type Fields map[string]interface{}

// Logger is a leveled, structured logger scoped to one component.
type Logger struct {
	entry *logrus.Entry
}

var root = newRoot()

func newRoot() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})

	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		l.SetLevel(lvl)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}

	return l
}

// NewLogger creates a logger tagged with the given component name.
func NewLogger(component string) *Logger {
	return &Logger{entry: root.WithField("component", component)}
}

func (l *Logger) withFields(fields []Fields) *logrus.Entry {
	e := l.entry
	for _, f := range fields {
		e = e.WithFields(logrus.Fields(f))
	}
	return e
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...Fields) {
	l.withFields(fields).Debug(msg)
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...Fields) {
	l.withFields(fields).Info(msg)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...Fields) {
	l.withFields(fields).Warn(msg)
}

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...Fields) {
	l.withFields(fields).Error(msg)
}

// Fatal logs at fatal level and exits.
func (l *Logger) Fatal(msg string, fields ...Fields) {
	l.withFields(fields).Fatal(msg)
}
