package address

import "net"

const DefaultHost = "0.0.0.0"

// Normalize fills the host in, if only the port is presented. Malformed
// addresses are returned as is.
func Normalize(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || len(host) > 0 {
		return addr
	}

	return net.JoinHostPort(DefaultHost, port)
}
