package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a configured logrus logger. JSON output in production so log
// collectors can parse the fields; text output everywhere else.
func New(env string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if env == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	log.SetLevel(logrus.InfoLevel)
	return log
}
