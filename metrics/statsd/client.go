// Package statsd provides a metrics.Client backed by a DogStatsD agent.
package statsd

import (
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rentchain/rentchain-go/metrics"
)

const ClientType = "statsd"

const (
	defaultAddress = "localhost:8125"
	defaultBuffer  = 128
)

func init() {
	metrics.RegisterClientCtor(ClientType, newClient)
}

type Client struct {
	client *statsd.Client
	config *metrics.ClientConfig
}

// newClient returns a metrics.Client backed by a StatsD-based Datadog client
func newClient(config *metrics.ClientConfig) (metrics.Client, error) {
	log := logrus.StandardLogger().WithField("type", "metrics/statsd")

	address := config.Address
	if address == "" {
		log.Infof("address not configured, using default (%s)", defaultAddress)
		address = defaultAddress
	}

	buffer := config.BufferSize
	if buffer <= 0 {
		log.Infof("buffer not configured, using default (%d)", defaultBuffer)
		buffer = defaultBuffer
	}

	client, err := statsd.NewBuffered(address, buffer)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create statsd client")
	}

	if config.Namespace != "" {
		client.Namespace = config.Namespace + "."
	}
	client.Tags = config.GlobalTags

	return &Client{
		client: client,
		config: config,
	}, nil
}

// Count implements metrics.Client.Count
func (c *Client) Count(name string, value int64, tags []string) error {
	return c.client.Count(name, value, tags, c.config.SampleRate)
}

// Gauge implements metrics.Client.Gauge
func (c *Client) Gauge(name string, value float64, tags []string) error {
	return c.client.Gauge(name, value, tags, c.config.SampleRate)
}

// Timing implements metrics.Client.Timing
func (c *Client) Timing(name string, value time.Duration, tags []string) error {
	return c.client.Timing(name, value, tags, c.config.SampleRate)
}

// Close implements metrics.Client.Close
func (c *Client) Close() error {
	return c.client.Close()
}
