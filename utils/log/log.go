package log

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// global accessible logger
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// This init function is only for testing cases, where the entry point is not
// main function. Unit test will fail with nil pointer dereference if we don't
// init here.
func init() {
	InitLogger()
}

func InitLogger() {
	logger = logrus.New()
	logger.SetOutput(os.Stderr)

	// JSON in prod for log shippers, plain text locally for readability.
	if os.Getenv("BOB_ENV") == "prod" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	if lvl, err := logrus.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL"))); err == nil {
		logger.SetLevel(lvl)
	}

	Log = logger.WithFields(
		logrus.Fields{"service": "content_pipeline", "is_development": os.Getenv("BOB_ENV") != "prod"},
	)
}

// WithAgent returns an entry tagged with the pipeline agent name, so that
// per-agent failures are attributable in aggregated logs.
func WithAgent(name string) *logrus.Entry {
	return Log.WithFields(logrus.Fields{"agent": name})
}
