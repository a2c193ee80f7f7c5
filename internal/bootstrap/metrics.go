package bootstrap

import (
	"github.com/go-authgate/login/internal/config"
	"github.com/go-authgate/login/internal/core"
	"github.com/go-authgate/login/internal/metrics"
)

// initializeMetrics returns the Prometheus recorder or a no-op one
func initializeMetrics(cfg *config.Config) core.Recorder {
	return metrics.Init(cfg.MetricsEnabled)
}
