package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Init configures the process-wide logrus logger: JSON outside dev,
// level from LOG_LEVEL.
func Init(env string) {
	logrus.SetOutput(os.Stdout)

	if env == "dev" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
