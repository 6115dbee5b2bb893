package cli

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds a console logger writing to stderr at level ("debug",
// "info", "warn", "error"). An empty level means warn.
func NewLogger(level string) (*zap.Logger, error) {
	if level == "" {
		level = "warn"
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = lvl
	logConfig.DisableStacktrace = true
	logConfig.OutputPaths = []string{"stderr"}
	return logConfig.Build()
}
