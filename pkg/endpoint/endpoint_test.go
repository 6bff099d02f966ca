package endpoint_test

import (
	"net"
	"testing"
	"time"

	"github.com/Wa4h1h/go-tftp-client/pkg/endpoint"
	"github.com/Wa4h1h/go-tftp-client/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) net.PacketConn {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { pc.Close() })

	return pc
}

func TestUDP(t *testing.T) {
	t.Run("send and receive", func(t *testing.T) {
		peer := listen(t)

		ep, err := endpoint.Bind("127.0.0.1", 0)
		require.NoError(t, err)
		defer ep.Close()

		n, err := ep.SendTo([]byte("ping"), peer.LocalAddr())
		require.NoError(t, err)
		assert.Equal(t, 4, n)

		buf := make([]byte, 16)
		n, from, err := peer.ReadFrom(buf)
		require.NoError(t, err)
		assert.Equal(t, "ping", string(buf[:n]))
		assert.Equal(t, ep.LocalAddr().String(), from.String())

		_, err = peer.WriteTo([]byte("pong"), from)
		require.NoError(t, err)

		n, from, err = ep.ReceiveFrom(buf, time.Second)
		require.NoError(t, err)
		assert.Equal(t, "pong", string(buf[:n]))
		assert.Equal(t, peer.LocalAddr().String(), from.String())
	})
	t.Run("timeout", func(t *testing.T) {
		ep, err := endpoint.Bind("127.0.0.1", 0)
		require.NoError(t, err)
		defer ep.Close()

		_, _, err = ep.ReceiveFrom(make([]byte, 4), 20*time.Millisecond)
		assert.ErrorIs(t, err, utils.ErrTimeout)
	})
	t.Run("close unblocks receive", func(t *testing.T) {
		ep, err := endpoint.Bind("127.0.0.1", 0)
		require.NoError(t, err)

		errc := make(chan error, 1)
		go func() {
			_, _, err := ep.ReceiveFrom(make([]byte, 4), 0)
			errc <- err
		}()

		time.Sleep(20 * time.Millisecond)
		require.NoError(t, ep.Close())

		select {
		case err := <-errc:
			assert.ErrorIs(t, err, utils.ErrEndpointClosed)
		case <-time.After(2 * time.Second):
			t.Fatal("receive still blocked after close")
		}
	})
	t.Run("dialed endpoint shares the local address", func(t *testing.T) {
		server := listen(t)
		other := listen(t)

		bound, err := endpoint.Bind("127.0.0.1", 0)
		require.NoError(t, err)
		defer bound.Close()

		dialed, err := endpoint.Dial(bound.LocalAddr(), server.LocalAddr())
		require.NoError(t, err)
		defer dialed.Close()

		assert.Equal(t, bound.LocalAddr().String(), dialed.LocalAddr().String())

		_, err = dialed.SendTo([]byte("rrq"), nil)
		require.NoError(t, err)

		buf := make([]byte, 16)
		_, client, err := server.ReadFrom(buf)
		require.NoError(t, err)

		_, err = other.WriteTo([]byte("from other"), client)
		require.NoError(t, err)

		n, _, err := bound.ReceiveFrom(buf, time.Second)
		require.NoError(t, err)
		assert.Equal(t, "from other", string(buf[:n]))

		_, err = server.WriteTo([]byte("from server"), client)
		require.NoError(t, err)

		n, _, err = dialed.ReceiveFrom(buf, time.Second)
		require.NoError(t, err)
		assert.Equal(t, "from server", string(buf[:n]))
	})
}
