package metrics

import "time"

// Client is used for exporting metrics
type Client interface {
	// Count measures the count of a metric
	Count(name string, value int64, tags []string) error

	// Gauge measures a metric at a point in time
	Gauge(name string, value float64, tags []string) error

	// Timing measures the time of a metric.
	Timing(name string, value time.Duration, tags []string) error

	// Close closes the client and any underlying resources
	Close() error
}

// NopClientType is the client type of a Client that discards all metrics.
const NopClientType = "nop"

func init() {
	RegisterClientCtor(NopClientType, func(_ *ClientConfig) (Client, error) {
		return NopClient, nil
	})
}

// NopClient discards every metric.
var NopClient Client = nopClient{}

type nopClient struct{}

func (nopClient) Count(string, int64, []string) error { return nil }
func (nopClient) Gauge(string, float64, []string) error { return nil }
func (nopClient) Timing(string, time.Duration, []string) error { return nil }
func (nopClient) Close() error { return nil }
