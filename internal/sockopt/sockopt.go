// Package sockopt tunes listening sockets before they're bound.
package sockopt

import (
	"context"
	"net"
)

// Listen opens a TCP listener with SO_REUSEADDR set to reuseAddr. Note that
// the standard library enables it on unix by default, so false disables it
// explicitly.
func Listen(ctx context.Context, addr string, reuseAddr bool) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: reuseAddrControl(reuseAddr),
	}

	return lc.Listen(ctx, "tcp", addr)
}
