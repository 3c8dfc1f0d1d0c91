package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
)

type TrackerMetrics interface {
	GatewayRequest(family, outcome string)
	GatewayStall(family string, wait time.Duration)
	LoopCycle(loop, outcome string, elapsed time.Duration)
	SessionEvent(event string)
	MatchProcessed(outcome string)
	PenaltyTriggered(level int)
	NotificationFailed(kind string)
}

func NewMetrics(registry *prometheus.Registry) TrackerMetrics {
	return setupPrometheusMetrics(registry)
}

// NewRegistry returns a registry carrying the Go runtime and process
// collectors in addition to the tracker metrics.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

var Module = fx.Options(
	fx.Provide(NewRegistry),
	fx.Provide(NewMetrics),
)
