package app

import (
	"github.com/guttosm/patchwork-service/config"
	"github.com/guttosm/patchwork-service/internal/logger"
)

// InitializeLogger configures the global logger. It runs before any
// component is built because components capture their logger on construction.
func InitializeLogger(cfg config.LogConfig) {
	logger.Init(cfg.Level, cfg.Pretty)
}
