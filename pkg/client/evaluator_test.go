package client

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Wa4h1h/go-tftp-client/pkg/transfer"
	"github.com/Wa4h1h/go-tftp-client/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type call struct {
	name string
	args []string
}

type mockConnector struct {
	calls    []call
	settings transfer.Config
	status   *transfer.Status
}

func (m *mockConnector) Connect(host string, port int) error {
	m.calls = append(m.calls, call{"connect", []string{host, strconv.Itoa(port)}})
	m.settings.PeerHost = host
	m.settings.PeerPort = port

	return nil
}

func (m *mockConnector) Get(_ context.Context, remote, local string) (*transfer.Status, error) {
	m.calls = append(m.calls, call{"get", []string{remote, local}})

	return m.status, nil
}

func (m *mockConnector) Put(_ context.Context, local, remote string) (*transfer.Status, error) {
	m.calls = append(m.calls, call{"put", []string{local, remote}})

	return m.status, nil
}

func (m *mockConnector) SetTimeout(timeout time.Duration) {
	m.settings.Timeout = timeout
}

func (m *mockConnector) SetBlockSize(size int) error {
	m.settings.BlockSize = size

	return nil
}

func (m *mockConnector) SetTrace() bool {
	m.settings.Trace = !m.settings.Trace

	return m.settings.Trace
}

func (m *mockConnector) Settings() transfer.Config {
	return m.settings.WithDefaults()
}

func newTestEvaluator(t *testing.T) (*Evaluator, *mockConnector, *bytes.Buffer) {
	m := &mockConnector{status: &transfer.Status{TotalBytes: 10, BlockCount: 1}}
	out := new(bytes.Buffer)

	return NewEvaluator(zaptest.NewLogger(t).Sugar(), m, out), m, out
}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("get and put", func(t *testing.T) {
		e, m, out := newTestEvaluator(t)

		for _, line := range []string{"get a.txt", "get a.txt b.txt", "put  c.txt ", "put c.txt d.txt"} {
			done, err := e.evaluate(ctx, line)
			require.NoError(t, err)
			assert.False(t, done)
		}

		assert.Equal(t, []call{
			{"get", []string{"a.txt", ""}},
			{"get", []string{"a.txt", "b.txt"}},
			{"put", []string{"c.txt", ""}},
			{"put", []string{"c.txt", "d.txt"}},
		}, m.calls)
		assert.Equal(t, 4, strings.Count(out.String(), "Transferred 10 bytes in 1 blocks"))
	})

	t.Run("failed transfer", func(t *testing.T) {
		e, m, _ := newTestEvaluator(t)
		m.status = transfer.Failed(transfer.Config{}, transfer.IOFailure(utils.ErrEndpointClosed))

		_, err := e.evaluate(ctx, "get a.txt")
		assert.ErrorIs(t, err, utils.ErrIOFailure)
	})

	t.Run("connect", func(t *testing.T) {
		e, m, _ := newTestEvaluator(t)

		_, err := e.evaluate(ctx, "connect tftp.local 6969")
		require.NoError(t, err)
		assert.Equal(t, 6969, m.settings.PeerPort)

		_, err = e.evaluate(ctx, "connect 10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.1", m.settings.PeerHost)
		assert.Equal(t, 6969, m.settings.PeerPort)
	})

	t.Run("settings", func(t *testing.T) {
		e, m, out := newTestEvaluator(t)

		_, err := e.evaluate(ctx, "timeout 3")
		require.NoError(t, err)
		assert.Equal(t, 3*time.Second, m.settings.Timeout)

		_, err = e.evaluate(ctx, "timeout 0")
		assert.Error(t, err)

		_, err = e.evaluate(ctx, "blksize 1428")
		require.NoError(t, err)
		assert.Equal(t, 1428, m.settings.BlockSize)

		_, err = e.evaluate(ctx, "trace")
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Packet tracing on.")

		_, err = e.evaluate(ctx, "status")
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Connected to: not connected")
		assert.Contains(t, out.String(), "Block size: 1428")
		assert.Contains(t, out.String(), "Timeout: 3s")
	})

	t.Run("help quit and garbage", func(t *testing.T) {
		e, _, out := newTestEvaluator(t)

		done, err := e.evaluate(ctx, "help")
		require.NoError(t, err)
		assert.False(t, done)
		assert.Contains(t, out.String(), "get <remote> [local]")
		assert.Contains(t, out.String(), "not negotiated, the server must use the same size")

		done, err = e.evaluate(ctx, "")
		require.NoError(t, err)
		assert.False(t, done)

		_, err = e.evaluate(ctx, "get")
		assert.Error(t, err)

		_, err = e.evaluate(ctx, "rm -rf /")
		assert.Error(t, err)

		done, err = e.evaluate(ctx, "quit")
		require.NoError(t, err)
		assert.True(t, done)
	})
}

func TestCliRead(t *testing.T) {
	m := &mockConnector{status: &transfer.Status{}}
	out := new(bytes.Buffer)
	in := strings.NewReader("trace\nbogus\nquit\nget never.txt\n")

	cli := NewCli(zaptest.NewLogger(t).Sugar(), m, in, out)
	require.NoError(t, cli.Read(context.Background()))

	assert.Empty(t, m.calls)
	assert.Contains(t, out.String(), "unknown command or arguments: bogus")
	assert.Equal(t, 3, strings.Count(out.String(), prompt))
}
