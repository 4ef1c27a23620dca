package monitor

import "github.com/prometheus/client_golang/prometheus"

var (
	activeWatches = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "klipperwatch",
			Subsystem: "monitor",
			Name:      "active_watches",
			Help:      "Number of conversations with an active print watch",
		},
	)

	ticksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "klipperwatch",
			Subsystem: "monitor",
			Name:      "ticks_total",
			Help:      "Watch ticks by outcome",
		},
		[]string{"outcome"},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "klipperwatch",
			Subsystem: "monitor",
			Name:      "notifications_total",
			Help:      "Notifications handed to the sink by result",
		},
		[]string{"result"},
	)

	fetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "klipperwatch",
			Subsystem: "monitor",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of printer status fetches made by watch ticks",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Tick outcomes used as metric labels.
const (
	outcomePrinting = "printing"
	outcomeTerminal = "terminal"
	outcomeFailure  = "failure"
	outcomeDropped  = "dropped"
	outcomePanic    = "panic"
)

func init() {
	prometheus.MustRegister(activeWatches, ticksTotal, notificationsTotal, fetchDuration)
}
