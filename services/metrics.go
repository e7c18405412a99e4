package services

import "github.com/prometheus/client_golang/prometheus"

// CycleMetrics exposes counters and histograms for the followup lifecycle.
type CycleMetrics struct {
	runsTotal      *prometheus.CounterVec
	runDuration    prometheus.Histogram
	followupsTotal *prometheus.CounterVec
	remindersTotal *prometheus.CounterVec
}

func NewCycleMetrics(reg prometheus.Registerer) *CycleMetrics {
	m := &CycleMetrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "retentionflow",
			Subsystem: "cycle",
			Name:      "runs_total",
			Help:      "Daily followup cycle runs by outcome",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "retentionflow",
			Subsystem: "cycle",
			Name:      "duration_seconds",
			Help:      "Duration of daily followup cycle runs",
			Buckets:   prometheus.DefBuckets,
		}),
		followupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "retentionflow",
			Subsystem: "cycle",
			Name:      "followups_total",
			Help:      "Followups created or promoted by the daily cycle",
		}, []string{"transition"}),
		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "retentionflow",
			Subsystem: "reminders",
			Name:      "sent_total",
			Help:      "Reminders marked sent by channel and outcome",
		}, []string{"channel", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.runsTotal, m.runDuration, m.followupsTotal, m.remindersTotal)
	return m
}

func (m *CycleMetrics) ObserveRun(success bool, seconds float64) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(seconds)
}

func (m *CycleMetrics) AddFollowups(transition string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.followupsTotal.WithLabelValues(transition).Add(float64(n))
}

func (m *CycleMetrics) ObserveReminder(channel, status string) {
	if m == nil {
		return
	}
	m.remindersTotal.WithLabelValues(channel, status).Inc()
}
