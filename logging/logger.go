package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// UserDataLoggerName is the name of the logger used for rows read from the users table.
const UserDataLoggerName = "user_data"

// PIIFields are the fields of the users table that are considered personally identifiable.
var PIIFields = []string{"name", "email", "phone", "ssn", "password"}

// NewLogger returns an INFO level logger whose only output is a redacting Sink over out. The logger's own output is
// discarded, so nothing reaches out without passing through the formatter.
func NewLogger(name string, out io.Writer, fields []string) hclog.InterceptLogger {
	l := hclog.NewInterceptLogger(&hclog.LoggerOptions{
		Name:   name,
		Level:  hclog.Info,
		Output: io.Discard,
	})
	l.RegisterSink(NewSink(out, NewRedactingFormatter(fields), hclog.Info))
	return l
}

// UserDataLogger returns the logger used to emit users table rows, redacting PIIFields.
func UserDataLogger(out io.Writer) hclog.InterceptLogger {
	return NewLogger(UserDataLoggerName, out, PIIFields)
}

// ConfigureLogging takes a logger name, sets the default configuration, grabs the LOG_LEVEL from our ENV vars, and
// returns a configured and usable logger.
func ConfigureLogging(loggerName string) hclog.Logger {
	appLogger := hclog.New(&hclog.LoggerOptions{
		Name:   loggerName,
		Color:  hclog.AutoColor,
		Output: os.Stderr,
	})
	hclog.SetDefault(appLogger)
	if logStr := os.Getenv("LOG_LEVEL"); logStr != "" {
		if level := hclog.LevelFromString(logStr); level != hclog.NoLevel {
			appLogger.SetLevel(level)
			appLogger.Debug("Logger configuration change", "LOG_LEVEL", hclog.Fmt("%s", logStr))
		}
	}
	return hclog.Default()
}
