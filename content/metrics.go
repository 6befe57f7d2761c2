package content

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	retrievalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pagefetch",
		Name:      "retrievals_total",
		Help:      "Content retrievals by fetch method, process method, and outcome.",
	}, []string{"fetch_method", "process_method", "outcome"})

	retrievalDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pagefetch",
		Name:      "retrieval_duration_seconds",
		Help:      "End-to-end retrieval latency by fetch method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"fetch_method"})
)

// observeRetrieval records one finished retrieval attempt.
func observeRetrieval(req Request, err error, elapsed time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = ErrorCode(err)
	}
	retrievalsTotal.WithLabelValues(
		string(req.FetchMethod),
		string(req.ProcessMethod),
		outcome,
	).Inc()
	retrievalDuration.WithLabelValues(string(req.FetchMethod)).Observe(elapsed.Seconds())
}
