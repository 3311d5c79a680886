package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Fields is the structured field set attached to log entries.
type Fields = logrus.Fields

// Logger is a component-scoped structured logger.
type Logger = logrus.Entry

func init() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logrus.SetLevel(level)
	}
}

// NewLogger returns a logger tagged with the component name.
func NewLogger(component string) *Logger {
	return logrus.WithField("component", component)
}
