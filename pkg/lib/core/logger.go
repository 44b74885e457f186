package core

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the structured logger used across services. Key/value pairs
// follow the message: logger.Info("table reserved", "table_id", id).
type Logger interface {
	Debug(msg string, kv ...interface{})
	Info(msg string, kv ...interface{})
	Error(msg string, kv ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	With(kv ...interface{}) Logger
}

type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogger returns a logrus backed logger writing JSON lines to stderr.
// Unknown levels fall back to info.
func NewLogger(level string) Logger {
	return NewLoggerWithOutput(level, os.Stderr)
}

func NewLoggerWithOutput(level string, out io.Writer) Logger {
	base := logrus.New()
	base.SetOutput(out)
	base.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)

	return &logrusLogger{entry: logrus.NewEntry(base)}
}

func (l *logrusLogger) Debug(msg string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Debug(msg)
}

func (l *logrusLogger) Info(msg string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Info(msg)
}

func (l *logrusLogger) Error(msg string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Error(msg)
}

func (l *logrusLogger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *logrusLogger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *logrusLogger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

func (l *logrusLogger) With(kv ...interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithFields(fields(kv))}
}

// fields turns alternating key/value arguments into logrus fields.
// A trailing key without value is kept under "!BADKEY".
func fields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		if i+1 >= len(kv) {
			f["!BADKEY"] = key
			break
		}
		value := kv[i+1]
		if err, ok := value.(error); ok {
			value = err.Error()
		}
		f[key] = value
	}
	return f
}

type noopLogger struct{}

// NewNoopLogger returns a logger that discards everything.
func NewNoopLogger() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{}) {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Infof(string, ...interface{}) {}
func (noopLogger) Errorf(string, ...interface{}) {}
func (n noopLogger) With(...interface{}) Logger { return n }
