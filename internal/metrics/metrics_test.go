package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.GatewayRequest("match", "ok")
	m.GatewayRequest("match", "ok")
	m.GatewayRequest("spectator", "cache_hit")
	m.LoopCycle("track", "panic", time.Second)
	m.PenaltyTriggered(2)

	pm := m.(prometheusMetrics)
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.gatewayRequests.WithLabelValues("match", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.loopCycles.WithLabelValues("track", "panic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.penaltiesTriggered.WithLabelValues("2")))

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
