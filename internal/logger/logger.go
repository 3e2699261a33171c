package logger

import (
	"github.com/sirupsen/logrus"
)

// Log is usable before Init with logrus defaults, so library code and
// tests never need a nil guard.
var Log = logrus.New()

// Init configures the structured logger.
func Init(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// JSON in production, text in development.
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter switches logs to human-readable output (development).
func SetTextFormatter() {
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}
