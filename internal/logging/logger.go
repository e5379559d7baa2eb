package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init initializes the global logger with configuration from environment variables.
// CREATIA_LOG_LEVEL controls the log level: debug, info, warn, error (default: info)
// CREATIA_LOG_FORMAT=json writes raw JSON lines instead of the console format.
func Init() {
	InitWith(os.Getenv("CREATIA_LOG_LEVEL"), os.Getenv("CREATIA_LOG_FORMAT"), os.Stderr)
}

// InitWith configures the global logger explicitly. Used by Init and tests.
func InitWith(level, format string, out io.Writer) {
	zerolog.SetGlobalLevel(ParseLevel(level))

	if strings.EqualFold(format, "json") {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out})
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
