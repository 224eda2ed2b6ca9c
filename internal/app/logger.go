package app

import (
	"strings"

	"github.com/charlesng35/artisan/pkg/logger"
)

// ConfigureLogging initialises the global logger from the server section,
// defaulting to info level and json output.
func ConfigureLogging(cfg ServerConfig) error {
	level := strings.TrimSpace(cfg.LogLevel)
	if level == "" {
		level = "info"
	}
	return logger.Init(logger.Options{Level: level, Format: cfg.LogFormat})
}
