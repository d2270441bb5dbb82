/*
Package logging provides the logrus logger shared by every fetchview package.
*/
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger. Packages derive named entries from it
// with GetLogger.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.WarnLevel)
	Logger.Formatter = &logrus.TextFormatter{TimestampFormat: "2006-01-02 15:04:05", FullTimestamp: true}
}

// GetLogger returns an entry tagged with the name of the component logging through it.
func GetLogger(loggerName string) *logrus.Entry {
	return Logger.WithFields(logrus.Fields{
		"logName": loggerName,
	})
}

// Configure sets the level and the output format ("text" or "json") of Logger.
func Configure(level, format string, out io.Writer) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}

	switch format {
	case "", "text":
		Logger.Formatter = &logrus.TextFormatter{TimestampFormat: "2006-01-02 15:04:05", FullTimestamp: true}
	case "json":
		Logger.Formatter = &logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"}
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	if out != nil {
		Logger.SetOutput(out)
	}
	Logger.SetLevel(lvl)

	return nil
}
