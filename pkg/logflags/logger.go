package logflags

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger is what the debugger layers log through.
type Logger interface {
	WithField(key string, value interface{}) Logger
	WithError(err error) Logger

	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Fields are attached to every entry of a Logger.
type Fields map[string]interface{}

// LoggerFactory builds the Logger of a layer. enabled reports whether the
// layer was selected with --log-output, out is the --log-dest writer or
// nil for stderr.
type LoggerFactory func(enabled bool, fields Fields, out io.Writer) Logger

var loggerFactory LoggerFactory

// SetLoggerFactory replaces the logrus based default used by every
// *Logger function of this package.
func SetLoggerFactory(lf LoggerFactory) {
	loggerFactory = lf
}

type logrusLogger struct {
	*logrus.Entry
}

func newLogrusLogger(enabled bool, fields Fields, out io.Writer) Logger {
	l := logrus.New()
	l.Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	if out != nil {
		l.Out = out
	}
	l.Level = logrus.PanicLevel
	if enabled {
		l.Level = logrus.DebugLevel
	}
	return &logrusLogger{l.WithFields(logrus.Fields(fields))}
}

func (l *logrusLogger) WithField(key string, value interface{}) Logger {
	return &logrusLogger{l.Entry.WithField(key, value)}
}

func (l *logrusLogger) WithError(err error) Logger {
	return &logrusLogger{l.Entry.WithError(err)}
}
