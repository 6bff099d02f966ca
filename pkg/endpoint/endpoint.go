// Package endpoint wraps the UDP sockets a TFTP transfer talks through.
package endpoint

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/Wa4h1h/go-tftp-client/pkg/utils"
	pkgerrors "github.com/pkg/errors"
)

// Endpoint is a datagram socket. ReceiveFrom blocks until a datagram arrives,
// the timeout expires (utils.ErrTimeout) or the endpoint is closed from
// another goroutine (utils.ErrEndpointClosed). A zero timeout waits forever.
type Endpoint interface {
	SendTo(b []byte, addr net.Addr) (int, error)
	ReceiveFrom(b []byte, timeout time.Duration) (int, net.Addr, error)
	LocalAddr() net.Addr
	Close() error
}

type UDP struct {
	conn   *net.UDPConn
	remote net.Addr
}

// Bind opens an unconnected endpoint on host:port. Port 0 lets the OS pick.
func Bind(host string, port int) (*UDP, error) {
	lc := net.ListenConfig{Control: reusePort()}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	pc, err := lc.ListenPacket(context.Background(), "udp", addr)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "bind %s", addr)
	}

	return &UDP{conn: pc.(*net.UDPConn)}, nil
}

// Dial opens an endpoint connected to remote that shares local with an
// endpoint returned by Bind. Datagrams from remote land here, everything else
// keeps going to the bound endpoint.
func Dial(local net.Addr, remote net.Addr) (*UDP, error) {
	d := net.Dialer{
		LocalAddr: local,
		Control:   reusePort(),
	}

	conn, err := d.Dial("udp", remote.String())
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "dial %s from %s", remote, local)
	}

	return &UDP{conn: conn.(*net.UDPConn), remote: conn.RemoteAddr()}, nil
}

// SendTo writes b to addr. A connected endpoint ignores addr and writes to its peer.
func (u *UDP) SendTo(b []byte, addr net.Addr) (int, error) {
	var (
		n   int
		err error
	)

	if u.remote != nil {
		n, err = u.conn.Write(b)
	} else {
		n, err = u.conn.WriteTo(b, addr)
	}

	if err != nil {
		return n, classify(err, "send")
	}

	return n, nil
}

func (u *UDP) ReceiveFrom(b []byte, timeout time.Duration) (int, net.Addr, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	if err := u.conn.SetReadDeadline(deadline); err != nil {
		return 0, nil, classify(err, "set read deadline")
	}

	n, addr, err := u.conn.ReadFrom(b)
	if err != nil {
		return n, addr, classify(err, "receive")
	}

	return n, addr, nil
}

func (u *UDP) LocalAddr() net.Addr {
	return u.conn.LocalAddr()
}

func (u *UDP) Close() error {
	if err := u.conn.Close(); err != nil {
		return classify(err, "close")
	}

	return nil
}

func classify(err error, op string) error {
	switch {
	case errors.Is(err, net.ErrClosed):
		return pkgerrors.Wrap(utils.ErrEndpointClosed, op)
	case errors.Is(err, os.ErrDeadlineExceeded):
		return pkgerrors.Wrap(utils.ErrTimeout, op)
	default:
		return pkgerrors.Wrap(err, op)
	}
}
