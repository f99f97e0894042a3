// Package netutil contains network helpers.
package netutil

import (
	"net"

	"github.com/pkg/errors"
)

// GetAvailablePortForAddress returns a port that is free to listen on at the
// provided host. The port is not reserved, so a later listen may still race
// with other processes.
func GetAvailablePortForAddress(host string) (int, error) {
	lis, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, errors.Wrapf(err, "failed to listen on %s", host)
	}
	defer lis.Close()

	addr, ok := lis.Addr().(*net.TCPAddr)
	if !ok {
		return 0, errors.Errorf("unexpected address type: %T", lis.Addr())
	}

	return addr.Port, nil
}
