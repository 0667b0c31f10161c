// Package metrics declares the Prometheus collectors shared across the service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "feedback"

var (
	// Submissions counts persisted records by source and negativity
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Feedback records persisted, by source and negativity",
	}, []string{"source", "negative"})

	// Alerts counts alert delivery attempts by channel and result
	Alerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_total",
		Help:      "Alert delivery attempts, by channel and result",
	}, []string{"channel", "result"})

	// Sentiment counts sentiment classifications by outcome
	Sentiment = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sentiment_total",
		Help:      "Sentiment classifications, by outcome",
	}, []string{"result"})
)

// ObserveSubmission records one persisted feedback record
func ObserveSubmission(source string, negative bool) {
	Submissions.WithLabelValues(source, strconv.FormatBool(negative)).Inc()
}
