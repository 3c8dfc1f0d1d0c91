package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type prometheusMetrics struct {
	gatewayRequests      *prometheus.CounterVec
	gatewayStallSeconds  *prometheus.HistogramVec
	loopCycles           *prometheus.CounterVec
	loopCycleSeconds     *prometheus.HistogramVec
	sessionEvents        *prometheus.CounterVec
	matchesProcessed     *prometheus.CounterVec
	penaltiesTriggered   *prometheus.CounterVec
	notificationFailures *prometheus.CounterVec
}

func setupPrometheusMetrics(registry *prometheus.Registry) prometheusMetrics {
	factory := promauto.With(registry)

	return prometheusMetrics{
		gatewayRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "league_tracker_gateway_requests_total",
				Help: "Gateway calls by endpoint family and outcome",
			}, []string{"family", "outcome"}),
		gatewayStallSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "league_tracker_gateway_stall_seconds",
				Help:    "Time callers waited for a rate limit slot",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			}, []string{"family"}),
		loopCycles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "league_tracker_loop_cycles_total",
				Help: "Background loop cycles by loop and outcome",
			}, []string{"loop", "outcome"}),
		loopCycleSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "league_tracker_loop_cycle_seconds",
				Help:    "Duration of background loop cycles",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			}, []string{"loop"}),
		sessionEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "league_tracker_session_events_total",
				Help: "Live session transitions",
			}, []string{"event"}),
		matchesProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "league_tracker_matches_processed_total",
				Help: "Finished matches handled by the match processor",
			}, []string{"outcome"}),
		penaltiesTriggered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "league_tracker_penalties_triggered_total",
				Help: "Penalties raised by resulting level",
			}, []string{"level"}),
		notificationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "league_tracker_notification_failures_total",
				Help: "Notifier calls that returned an error",
			}, []string{"kind"}),
	}
}

func (m prometheusMetrics) GatewayRequest(family, outcome string) {
	m.gatewayRequests.With(prometheus.Labels{"family": family, "outcome": outcome}).Inc()
}

func (m prometheusMetrics) GatewayStall(family string, wait time.Duration) {
	m.gatewayStallSeconds.With(prometheus.Labels{"family": family}).Observe(wait.Seconds())
}

func (m prometheusMetrics) LoopCycle(loop, outcome string, elapsed time.Duration) {
	m.loopCycles.With(prometheus.Labels{"loop": loop, "outcome": outcome}).Inc()
	m.loopCycleSeconds.With(prometheus.Labels{"loop": loop}).Observe(elapsed.Seconds())
}

func (m prometheusMetrics) SessionEvent(event string) {
	m.sessionEvents.With(prometheus.Labels{"event": event}).Inc()
}

func (m prometheusMetrics) MatchProcessed(outcome string) {
	m.matchesProcessed.With(prometheus.Labels{"outcome": outcome}).Inc()
}

func (m prometheusMetrics) PenaltyTriggered(level int) {
	m.penaltiesTriggered.With(prometheus.Labels{"level": strconv.Itoa(level)}).Inc()
}

func (m prometheusMetrics) NotificationFailed(kind string) {
	m.notificationFailures.With(prometheus.Labels{"kind": kind}).Inc()
}
