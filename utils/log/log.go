package log

import (
	"os"
	"time"

	ddhook "github.com/bin3377/logrus-datadog-hook"
	"github.com/sirupsen/logrus"
)

const (
	datadogUSHost    = "http-intake.logs.datadoghq.com"
	syncFrequencySec = 30
	syncRetry        = 3
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

	// Ship logs to Datadog only in prod and only when an API key is around.
	// Everything else just goes to stderr.
	if os.Getenv("VIRALMUX_ENV") == "prod" && os.Getenv("DD_API_KEY") != "" {
		hook := ddhook.NewHook(
			datadogUSHost,
			os.Getenv("DD_API_KEY"),
			syncFrequencySec*time.Second,
			syncRetry,
			logrus.InfoLevel,
			&logrus.JSONFormatter{},
			ddhook.Options{},
		)
		logger.Hooks.Add(hook)
	}

	logger.SetOutput(os.Stderr)

	Log = logger.WithFields(
		logrus.Fields{"service": "viralmux", "is_development": os.Getenv("VIRALMUX_ENV") != "prod"},
	)
}
