package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// LatencyBuckets covers sub-millisecond in-process work up to multi-second
// requests.
var LatencyBuckets = append(
	prometheus.ExponentialBuckets(0.0005, 2, 10),
	1.0, 2.5, 5.0, 10.0,
)

// Register registers the provided prometheus collector, or returns
// the previously registered collector if it exists.
func Register(m prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(m); err != nil {
		if e, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return e.ExistingCollector
		}

		logrus.WithError(err).Error("failed to register metric")
	}
	return m
}

// RegisterCounterVec registers c, returning the existing vector if an
// identical one was registered before.
func RegisterCounterVec(c *prometheus.CounterVec) *prometheus.CounterVec {
	return Register(c).(*prometheus.CounterVec)
}

// RegisterHistogramVec registers h, returning the existing vector if an
// identical one was registered before.
func RegisterHistogramVec(h *prometheus.HistogramVec) *prometheus.HistogramVec {
	return Register(h).(*prometheus.HistogramVec)
}
