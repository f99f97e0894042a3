package statsd

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentchain/rentchain-go/metrics"
)

func TestClient(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	client, err := metrics.CreateClient(
		ClientType,
		metrics.WithNamespace("rentchain"),
		metrics.WithAddress(conn.LocalAddr().String()),
		metrics.WithBufferSize(1),
	)
	require.NoError(t, err)

	require.NoError(t, client.Count("transactions", 1, []string{"result:success"}))
	require.NoError(t, client.Close())

	buf := make([]byte, 1024)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	n, _, err := conn.ReadFrom(buf)
	require.NoError(t, err)

	packet := string(buf[:n])
	assert.True(t, strings.HasPrefix(packet, "rentchain.transactions:1|c"), packet)
	assert.True(t, strings.Contains(packet, "result:success"), packet)
}
