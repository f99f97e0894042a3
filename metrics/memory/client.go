// Package memory provides a metrics.Client that records metrics in memory,
// for use in tests.
package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/rentchain/rentchain-go/metrics"
)

const ClientType = "memory"

const (
	metricFormat = "%s_%s"
)

func init() {
	metrics.RegisterClientCtor(ClientType, newClient)
}

// Record is a single recorded metric.
type Record struct {
	Name  string
	Value float64
	Tags  []string
}

type Client struct {
	sync.Mutex
	counts  []Record
	gauges  []Record
	timings []Record
	config  *metrics.ClientConfig
}

// New returns an in-memory client with the provided options.
func New(opts ...metrics.ClientOption) *Client {
	config := &metrics.ClientConfig{}
	for _, o := range opts {
		o(config)
	}

	c, _ := newClient(config)
	return c.(*Client)
}

func newClient(config *metrics.ClientConfig) (metrics.Client, error) {
	return &Client{
		config: config,
	}, nil
}

// Count implements metrics.Client.Count
func (c *Client) Count(name string, value int64, tags []string) error {
	c.Lock()
	defer c.Unlock()

	c.counts = append(c.counts, c.record(name, float64(value), tags))
	return nil
}

// Gauge implements metrics.Client.Gauge
func (c *Client) Gauge(name string, value float64, tags []string) error {
	c.Lock()
	defer c.Unlock()

	c.gauges = append(c.gauges, c.record(name, value, tags))
	return nil
}

// Timing implements metrics.Client.Timing. Values are recorded in seconds.
func (c *Client) Timing(name string, value time.Duration, tags []string) error {
	c.Lock()
	defer c.Unlock()

	c.timings = append(c.timings, c.record(name, value.Seconds(), tags))
	return nil
}

func (c *Client) record(name string, value float64, tags []string) Record {
	if c.config.Namespace != "" {
		name = fmt.Sprintf(metricFormat, c.config.Namespace, name)
	}

	all := make([]string, 0, len(tags)+len(c.config.GlobalTags))
	all = append(all, tags...)
	all = append(all, c.config.GlobalTags...)

	return Record{
		Name:  name,
		Value: value,
		Tags:  all,
	}
}

// Counts returns the count records that have been tracked so far.
func (c *Client) Counts() []Record {
	c.Lock()
	defer c.Unlock()
	return copyRecords(c.counts)
}

// Gauges returns the gauge records that have been tracked so far.
func (c *Client) Gauges() []Record {
	c.Lock()
	defer c.Unlock()
	return copyRecords(c.gauges)
}

// Timings returns the timing records that have been tracked so far.
func (c *Client) Timings() []Record {
	c.Lock()
	defer c.Unlock()
	return copyRecords(c.timings)
}

// Reset clears all records.
func (c *Client) Reset() {
	c.Lock()
	defer c.Unlock()
	c.counts = nil
	c.gauges = nil
	c.timings = nil
}

// Close implements metrics.Client.Close
func (c *Client) Close() error {
	return nil
}

func copyRecords(records []Record) []Record {
	cloned := make([]Record, len(records))
	copy(cloned, records)
	return cloned
}
