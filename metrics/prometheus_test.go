package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestRegistration(t *testing.T) {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_registration",
	})

	x := Register(c)
	assert.Equal(t, c, x)

	x = Register(c)
	assert.Equal(t, c, x)

	newVec := func() *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "test_registration_vec",
		}, []string{"result"})
	}

	first := RegisterCounterVec(newVec())
	second := RegisterCounterVec(newVec())
	assert.True(t, first == second)
}

func TestLatencyBuckets(t *testing.T) {
	for i := 1; i < len(LatencyBuckets); i++ {
		assert.True(t, LatencyBuckets[i] > LatencyBuckets[i-1])
	}
}
