// internal/monitoring/metrics.go
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the automation flows.
type Metrics struct {
	cyclesTotal   *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
	listChanges   *prometheus.CounterVec
	listsByBucket *prometheus.GaugeVec
	queueDepth    *prometheus.GaugeVec
	agentChecks   *prometheus.CounterVec
	pageLoads     *prometheus.CounterVec
	dncNumbers    *prometheus.CounterVec
	loginAttempts *prometheus.CounterVec
}

// MetricsConfig configures metric registration.
type MetricsConfig struct {
	Namespace string            `json:"namespace"`
	Labels    map[string]string `json:"labels"`
}

// NewMetrics registers the instrument set on the default registry.
func NewMetrics(config MetricsConfig) *Metrics {
	if config.Namespace == "" {
		config.Namespace = "chromepuppet"
	}

	m := &Metrics{}

	m.cyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "balancer_cycles_total",
			Help:        "Balancer cycles run, by outcome",
			ConstLabels: config.Labels,
		},
		[]string{"server", "result"},
	)

	m.cycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "balancer_cycle_duration_seconds",
			Help:        "Duration of balancer cycles",
			ConstLabels: config.Labels,
			Buckets:     []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"server"},
	)

	m.listChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "list_changes_total",
			Help:        "List swap attempts, by outcome",
			ConstLabels: config.Labels,
		},
		[]string{"server", "result"},
	)

	m.listsByBucket = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "lists_by_bucket",
			Help:        "Lists per categorization bucket after the last cycle",
			ConstLabels: config.Labels,
		},
		[]string{"server", "bucket"},
	)

	m.queueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "replacement_queue_depth",
			Help:        "Fresh lists remaining in the operator queue",
			ConstLabels: config.Labels,
		},
		[]string{"server"},
	)

	m.agentChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "agent_checks_total",
			Help:        "Agent floor checks, by type and outcome",
			ConstLabels: config.Labels,
		},
		[]string{"server", "agent_type", "result"},
	)

	m.pageLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "page_loads_total",
			Help:        "Portal pages loaded, by kind",
			ConstLabels: config.Labels,
		},
		[]string{"kind"},
	)

	m.dncNumbers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "dnc_numbers_total",
			Help:        "Numbers submitted to DNC lists, by target and outcome",
			ConstLabels: config.Labels,
		},
		[]string{"target", "result"},
	)

	m.loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "login_attempts_total",
			Help:        "Portal logins, by site and outcome",
			ConstLabels: config.Labels,
		},
		[]string{"site", "result"},
	)

	return m
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// RecordCycle counts one balancer cycle and its duration.
func (m *Metrics) RecordCycle(server string, ok bool, elapsed time.Duration) {
	m.cyclesTotal.WithLabelValues(server, outcome(ok)).Inc()
	m.cycleDuration.WithLabelValues(server).Observe(elapsed.Seconds())
}

// RecordListChange counts one swap attempt.
func (m *Metrics) RecordListChange(server string, ok bool) {
	m.listChanges.WithLabelValues(server, outcome(ok)).Inc()
}

// SetBucket publishes a bucket size from the last categorization.
func (m *Metrics) SetBucket(server, bucket string, n int) {
	m.listsByBucket.WithLabelValues(server, bucket).Set(float64(n))
}

// SetQueueDepth publishes the operator queue depth.
func (m *Metrics) SetQueueDepth(server string, n int) {
	m.queueDepth.WithLabelValues(server).Set(float64(n))
}

// RecordAgentCheck counts one agent floor check.
func (m *Metrics) RecordAgentCheck(server, agentType string, ok bool) {
	m.agentChecks.WithLabelValues(server, agentType, outcome(ok)).Inc()
}

// RecordPageLoad counts one portal page load.
func (m *Metrics) RecordPageLoad(kind string) {
	m.pageLoads.WithLabelValues(kind).Inc()
}

// RecordDNCNumber counts one DNC submission.
func (m *Metrics) RecordDNCNumber(target string, ok bool) {
	m.dncNumbers.WithLabelValues(target, outcome(ok)).Inc()
}

// RecordLogin counts one login attempt.
func (m *Metrics) RecordLogin(site string, ok bool) {
	m.loginAttempts.WithLabelValues(site, outcome(ok)).Inc()
}
