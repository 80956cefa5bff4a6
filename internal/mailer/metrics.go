package mailer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "solfrance"

var (
	mailQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mail",
			Name:      "queue_depth",
			Help:      "Number of messages buffered in the mail queue",
		},
	)

	mailDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mail",
			Name:      "deliveries_total",
			Help:      "Delivery attempts by outcome (sent, retried, dropped)",
		},
		[]string{"outcome"},
	)

	mailSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mail",
			Name:      "send_duration_seconds",
			Help:      "Time for one successful SMTP send",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

func recordQueueDepth(depth int) {
	mailQueueDepth.Set(float64(depth))
}

func recordDelivery(outcome string) {
	mailDeliveries.WithLabelValues(outcome).Inc()
}

func recordSendDuration(d time.Duration) {
	mailSendDuration.Observe(d.Seconds())
}
