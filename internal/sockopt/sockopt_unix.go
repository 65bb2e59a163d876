//go:build unix

package sockopt

import (
	"syscall"

	"golang.org/x/sys/unix"
)

type controlFunc func(network, address string, c syscall.RawConn) error

func reuseAddrControl(enable bool) controlFunc {
	value := 0
	if enable {
		value = 1
	}

	return func(_, _ string, c syscall.RawConn) error {
		var sockErr error
		err := c.Control(func(fd uintptr) {
			sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, value)
		})
		if err != nil {
			return err
		}

		return sockErr
	}
}
