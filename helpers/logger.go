package helpers

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Logger holds the logger settings of the config file.
type Logger struct {
	Level            string `mapstructure:"level" json:"level"`
	Format           string `mapstructure:"format" json:"format"`
	DisableTimestamp bool   `mapstructure:"disable_timestamp" json:"disable_timestamp"`
}

// NewLogger builds a logrus logger writing to stdout. format is "text"
// (default) or "json".
func NewLogger(cfg Logger) (*logrus.Logger, error) {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg Logger, out io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.Out = out

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		log.Formatter = &logrus.TextFormatter{
			DisableTimestamp: cfg.DisableTimestamp,
			FullTimestamp:    true,
		}
	case "json":
		log.Formatter = &logrus.JSONFormatter{
			DisableTimestamp: cfg.DisableTimestamp,
		}
	default:
		return nil, errors.Errorf("unknown log format %q", cfg.Format)
	}

	log.Level = logrus.InfoLevel
	if cfg.Level != "" {
		level, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, errors.Wrap(err, "invalid log level")
		}
		log.Level = level
	}
	return log, nil
}
