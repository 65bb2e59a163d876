//go:build !unix

package sockopt

import "syscall"

type controlFunc func(network, address string, c syscall.RawConn) error

// SO_REUSEADDR has different semantics on windows, so it's left untouched.
func reuseAddrControl(bool) controlFunc {
	return nil
}
