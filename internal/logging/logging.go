package logging

import (
	"io"
	"strings"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"

	"shopify-webhook/internal/config"
)

// New returns a logger writing to w in the configured format. Unknown
// levels fall back to info, unknown formats to the cli handler.
func New(cfg config.LogConfig, w io.Writer) *log.Logger {
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = log.InfoLevel
	}
	return &log.Logger{
		Handler: handler(cfg.Format, w),
		Level:   level,
	}
}

// Setup installs the configured handler and level on the package-level
// apex/log logger as well, so code using log.Info directly stays consistent.
func Setup(cfg config.LogConfig, w io.Writer) *log.Logger {
	l := New(cfg, w)
	log.SetHandler(l.Handler)
	log.SetLevel(l.Level)
	return l
}

func handler(format string, w io.Writer) log.Handler {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return json.New(w)
	case "text":
		return text.New(w)
	default:
		return cli.New(w)
	}
}
