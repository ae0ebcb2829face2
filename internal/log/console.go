package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Setup configures the process-wide console logger. An unknown level falls
// back to info.
func Setup(level, format string, out io.Writer) {
	if out != nil {
		logrus.SetOutput(out)
	}

	if format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
}

func WithField(key string, value any) *logrus.Entry {
	return logrus.WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return logrus.WithFields(fields)
}

func Debugf(format string, args ...any) {
	logrus.Debugf(format, args...)
}

func Infof(format string, args ...any) {
	logrus.Infof(format, args...)
}

func Warnf(format string, args ...any) {
	logrus.Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	logrus.Errorf(format, args...)
}
