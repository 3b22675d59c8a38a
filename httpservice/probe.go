package httpservice

import (
	"context"
	"net"
	"time"
)

// NetworkProbe reports whether the network is usable. It is consulted
// before every remote call; a false answer fails the call as cancelled
// without sending anything.
type NetworkProbe interface {
	IsAvailable(ctx context.Context) bool
}

// ProbeFunc adapts a function to NetworkProbe.
type ProbeFunc func(ctx context.Context) bool

// IsAvailable implements NetworkProbe.
func (f ProbeFunc) IsAvailable(ctx context.Context) bool {
	return f(ctx)
}

// AlwaysAvailable is the default probe.
var AlwaysAvailable NetworkProbe = ProbeFunc(func(context.Context) bool { return true })

// DialProbe reports the network as available when a TCP connection to
// address succeeds within timeout.
//
// Example:
//
//	probe := httpservice.DialProbe("api.example.com:443", 2*time.Second)
func DialProbe(address string, timeout time.Duration) NetworkProbe {
	dialer := &net.Dialer{Timeout: timeout}

	return ProbeFunc(func(ctx context.Context) bool {
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	})
}
