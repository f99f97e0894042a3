package metrics

import (
	"sync"
	"time"
)

const DefaultGaugePollingInterval = 10 * time.Second

// GaugeFunc is polled for the gauge's current value.
type GaugeFunc func() float64

// Gauge periodically reports the value returned by a GaugeFunc.
type Gauge struct {
	client Client
	f      GaugeFunc
	name   string
	tags   []string

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewGauge returns a new Gauge that polls f every interval until stopped.
func NewGauge(client Client, name string, f GaugeFunc, interval time.Duration, tagOptions ...TagOption) (*Gauge, error) {
	if err := validateMetricName(name); err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = DefaultGaugePollingInterval
	}

	g := &Gauge{
		client: client,
		f:      f,
		name:   name,
		tags:   GetTags(tagOptions...),
		stopCh: make(chan struct{}),
	}

	go g.poll(interval)

	return g, nil
}

func (g *Gauge) poll(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = g.client.Gauge(g.name, g.f(), g.tags)
		case <-g.stopCh:
			return
		}
	}
}

// Stop stops polling the gauge.
func (g *Gauge) Stop() {
	g.stopOnce.Do(func() {
		close(g.stopCh)
	})
}
