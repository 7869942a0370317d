package logging

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// TimestampFormat is the millisecond precision layout used for every log line.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Setup configures the standard logger. debug forces the debug level.
// An unknown level falls back to info and is reported once the logger is ready.
func Setup(level string, debug bool) {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&log.JSONFormatter{TimestampFormat: TimestampFormat})

	parsed, errParse := ParseLevel(level)
	if debug {
		parsed = log.DebugLevel
	}
	log.SetLevel(parsed)
	if errParse != nil {
		log.WithError(errParse).Warn("unknown log level, using info")
	}
}

// ParseLevel resolves level, defaulting blank input to info.
func ParseLevel(level string) (log.Level, error) {
	trimmed := strings.TrimSpace(level)
	if trimmed == "" {
		return log.InfoLevel, nil
	}
	parsed, errParse := log.ParseLevel(trimmed)
	if errParse != nil {
		return log.InfoLevel, errParse
	}
	return parsed, nil
}
