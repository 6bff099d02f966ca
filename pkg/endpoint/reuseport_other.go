//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package endpoint

import "syscall"

type control func(network, address string, c syscall.RawConn) error

// reusePort is a no-op where SO_REUSEPORT is unavailable; the request endpoint
// then fails to bind the shared local address and the transfer reports it.
func reusePort() control {
	return nil
}
