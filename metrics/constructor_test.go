package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateClient(t *testing.T) {
	client, err := CreateClient("test")
	require.Error(t, err)
	require.Nil(t, client)

	var config *ClientConfig
	RegisterClientCtor("test", func(c *ClientConfig) (Client, error) {
		config = c
		return &testClient{}, nil
	})

	client, err = CreateClient("test", WithNamespace("ns"), WithGlobalTags(WithTypeTag("t")), WithAddress("addr:1"))
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, "ns", config.Namespace)
	assert.Equal(t, []string{"type:t"}, config.GlobalTags)
	assert.Equal(t, "addr:1", config.Address)
	assert.Equal(t, 1.0, config.SampleRate)

	assert.Panics(t, func() {
		RegisterClientCtor("test", nil)
	})
}

func TestCreateClient_Nop(t *testing.T) {
	client, err := CreateClient("")
	require.NoError(t, err)
	assert.Equal(t, NopClient, client)
	assert.NoError(t, client.Count("c", 1, nil))
	assert.NoError(t, client.Close())
}

type testClient struct{}

func (testClient) Count(string, int64, []string) error { return nil }
func (testClient) Gauge(string, float64, []string) error { return nil }
func (testClient) Timing(string, time.Duration, []string) error { return nil }
func (testClient) Close() error { return nil }
