package transfer_test

import (
	"bytes"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/Wa4h1h/go-tftp-client/pkg/transfer"
	"github.com/Wa4h1h/go-tftp-client/pkg/types"
	"github.com/Wa4h1h/go-tftp-client/pkg/utils"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	clientAddr = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000}
	serverAddr = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 69}
	peerAddr   = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 50123}
	strayAddr  = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 50999}
)

type datagram struct {
	b    []byte
	addr net.Addr
}

// mockEndpoint is an in-memory endpoint. Tests push datagrams into in and
// read what the session sent from out.
type mockEndpoint struct {
	local  net.Addr
	in     chan datagram
	out    chan datagram
	closed chan struct{}
	once   sync.Once
}

func newMockEndpoint(local net.Addr) *mockEndpoint {
	return &mockEndpoint{
		local:  local,
		in:     make(chan datagram, 64),
		out:    make(chan datagram, 256),
		closed: make(chan struct{}),
	}
}

func (m *mockEndpoint) SendTo(b []byte, addr net.Addr) (int, error) {
	select {
	case <-m.closed:
		return 0, utils.ErrEndpointClosed
	default:
	}

	m.out <- datagram{b: bytes.Clone(b), addr: addr}

	return len(b), nil
}

func (m *mockEndpoint) ReceiveFrom(b []byte, timeout time.Duration) (int, net.Addr, error) {
	var expired <-chan time.Time

	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		expired = timer.C
	}

	select {
	case d := <-m.in:
		return copy(b, d.b), d.addr, nil
	case <-expired:
		return 0, nil, utils.ErrTimeout
	case <-m.closed:
		return 0, nil, utils.ErrEndpointClosed
	}
}

func (m *mockEndpoint) LocalAddr() net.Addr {
	return m.local
}

func (m *mockEndpoint) Close() error {
	m.once.Do(func() { close(m.closed) })

	return nil
}

// harness plays the server side of one session.
type harness struct {
	t         *testing.T
	conn      *mockEndpoint
	initiator *mockEndpoint
	session   *transfer.Session
	wg        sync.WaitGroup
	ran       chan error
	watched   chan error
}

func newHarness(t *testing.T, cfg transfer.Config) *harness {
	t.Helper()

	if cfg.PeerHost == "" {
		cfg.PeerHost = "127.0.0.1"
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}

	// upload content is handed to the session later by h.upload
	if cfg.Action == transfer.ActionUpload && cfg.LocalFile == "" && cfg.Source == nil {
		cfg.LocalFile = transfer.LiteralPrefix
	}

	cfg = cfg.WithDefaults()
	require.NoError(t, cfg.Validate())

	h := &harness{
		t:         t,
		conn:      newMockEndpoint(clientAddr),
		initiator: newMockEndpoint(clientAddr),
		ran:       make(chan error, 1),
		watched:   make(chan error, 1),
	}
	h.session = transfer.NewSession(cfg, zaptest.NewLogger(t).Sugar(), h.conn, h.initiator, serverAddr)

	t.Cleanup(func() {
		h.session.Close()
		h.wg.Wait()
	})

	return h
}

func (h *harness) download() {
	h.t.Helper()

	require.NoError(h.t, h.session.Request())

	sink, err := transfer.OpenSink(transfer.Config{})
	require.NoError(h.t, err)

	h.wg.Add(1)

	go func() {
		defer h.wg.Done()
		h.ran <- h.session.Download(sink)
	}()
}

func (h *harness) upload(content string) {
	h.t.Helper()

	require.NoError(h.t, h.session.Request())

	src, err := transfer.OpenSource(transfer.Config{LocalFile: transfer.LiteralPrefix + content})
	require.NoError(h.t, err)

	h.wg.Add(1)

	go func() {
		defer h.wg.Done()
		h.ran <- h.session.Upload(src)
	}()
}

func (h *harness) watch() {
	h.wg.Add(1)

	go func() {
		defer h.wg.Done()
		h.watched <- h.session.Watch()
	}()
}

func (h *harness) reply(from net.Addr, p types.Packet) {
	h.t.Helper()

	b, err := types.Encode(p)
	require.NoError(h.t, err)

	h.conn.in <- datagram{b: b, addr: from}
}

// expect returns the next packet the session sent through ep.
func (h *harness) expect(ep *mockEndpoint) (types.Packet, net.Addr) {
	h.t.Helper()

	select {
	case d := <-ep.out:
		p, err := types.Decode(d.b)
		require.NoError(h.t, err)

		return p, d.addr
	case <-time.After(2 * time.Second):
		h.t.Fatal("session sent nothing")

		return nil, nil
	}
}

func (h *harness) expectAck(block uint16) {
	h.t.Helper()

	p, to := h.expect(h.conn)
	require.Equal(h.t, &types.Ack{BlockNum: block}, p)
	require.Equal(h.t, peerAddr.String(), to.String())
}

func (h *harness) expectData(block uint16) []byte {
	h.t.Helper()

	p, _ := h.expect(h.conn)

	d, ok := p.(*types.Data)
	require.True(h.t, ok, "expected DATA, got %s", p)
	require.Equal(h.t, block, d.BlockNum)

	return d.Payload
}

func (h *harness) status() *transfer.Status {
	h.t.Helper()

	select {
	case <-h.session.State().Done():
		return h.session.State().Status()
	case <-time.After(5 * time.Second):
		h.t.Fatal("transfer did not finish")

		return nil
	}
}

// returned waits for the error a listener goroutine returned.
func (h *harness) returned(ch chan error) error {
	h.t.Helper()

	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		h.t.Fatal("listener did not return")

		return nil
	}
}
