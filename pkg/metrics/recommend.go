package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the recommendation HTTP handler
	RecommendLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommend_latency_seconds",
		Help:    "Latency of the location recommendation handler",
		Buckets: prometheus.DefBuckets,
	})

	// Total number of recommendation requests served
	RecommendRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recommend_requests_total",
		Help: "Total number of recommendation requests",
	})

	// Response-cache hits on the recommendation path
	RecommendCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recommend_cache_hits_total",
		Help: "Recommendation responses served from the Redis cache",
	})

	// Remote calls actually issued to the ML predictor
	PredictorCalls = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ml_predictor_calls_total",
		Help: "Batch prediction calls sent to the ML service",
	})

	PredictorFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ml_predictor_failures_total",
		Help: "Batch prediction calls that failed",
	})

	PredictorCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ml_predictor_cache_hits_total",
		Help: "Batch predictions served from the content-addressed cache",
	})
)

func Init() {
	prometheus.MustRegister(
		RecommendLatency,
		RecommendRequests,
		RecommendCacheHits,
		PredictorCalls,
		PredictorFailures,
		PredictorCacheHits,
	)
}
