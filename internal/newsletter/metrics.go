package newsletter

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "inkdrift"

var (
	emailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "newsletter",
			Name:      "emails_sent_total",
			Help:      "Total newsletter emails attempted by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	sendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "newsletter",
			Name:      "send_duration_seconds",
			Help:      "Time to send one email",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)

	broadcastSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "newsletter",
			Name:      "broadcast_recipients",
			Help:      "Number of active subscribers at the start of the last broadcast",
		},
	)
)

// recordSend records an attempted email send.
func recordSend(kind, status string) {
	emailsSent.WithLabelValues(kind, status).Inc()
}

// recordSendDuration records how long a single send took.
func recordSendDuration(kind string, duration time.Duration) {
	sendDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// recordBroadcastSize records the recipient count of a broadcast.
func recordBroadcastSize(count int) {
	broadcastSize.Set(float64(count))
}
