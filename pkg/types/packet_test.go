package types_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Wa4h1h/go-tftp-client/pkg/types"
	"github.com/Wa4h1h/go-tftp-client/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	t.Run("rrq", func(t *testing.T) {
		b, err := types.Encode(&types.Request{Opcode: types.OpCodeRRQ, Filename: "boot.img", Mode: "octet"})
		require.NoError(t, err)
		assert.Equal(t, append([]byte{0, 1}, []byte("boot.img\x00octet\x00")...), b)
	})
	t.Run("wrq", func(t *testing.T) {
		b, err := types.Encode(&types.Request{Opcode: types.OpCodeWRQ, Filename: "a", Mode: "octet"})
		require.NoError(t, err)
		assert.Equal(t, []byte{0, 2, 'a', 0, 'o', 'c', 't', 'e', 't', 0}, b)
	})
	t.Run("request with data opcode", func(t *testing.T) {
		_, err := types.Encode(&types.Request{Opcode: types.OpCodeDATA, Filename: "a", Mode: "octet"})
		assert.ErrorIs(t, err, utils.ErrWrongOpCode)
	})
	t.Run("data block number is big endian", func(t *testing.T) {
		b, err := types.Encode(&types.Data{BlockNum: 0x0102, Payload: []byte("hi")})
		require.NoError(t, err)
		assert.Equal(t, []byte{0, 3, 1, 2, 'h', 'i'}, b)
	})
	t.Run("ack", func(t *testing.T) {
		b, err := types.Encode(&types.Ack{BlockNum: 65535})
		require.NoError(t, err)
		assert.Equal(t, []byte{0, 4, 0xff, 0xff}, b)
	})
	t.Run("error", func(t *testing.T) {
		b, err := types.Encode(&types.Error{ErrorCode: types.ErrFileNotFound, ErrMsg: "File not found"})
		require.NoError(t, err)
		assert.Equal(t, append([]byte{0, 5, 0, 1}, []byte("File not found\x00")...), b)
	})
	t.Run("oversized payload", func(t *testing.T) {
		_, err := types.Encode(&types.Data{BlockNum: 1, Payload: make([]byte, types.MaxBlockSize+1)})
		assert.ErrorIs(t, err, utils.ErrDataPayloadTooBig)
		assert.ErrorIs(t, err, utils.ErrPacketMarshall)
	})
}

func TestDecode(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		packets := []types.Packet{
			&types.Request{Opcode: types.OpCodeRRQ, Filename: "pxelinux.0", Mode: "octet"},
			&types.Request{Opcode: types.OpCodeWRQ, Filename: "dir/file.bin", Mode: "octet"},
			&types.Data{BlockNum: 1, Payload: bytes.Repeat([]byte{0xab}, 512)},
			&types.Data{BlockNum: 7, Payload: []byte{}},
			&types.Ack{BlockNum: 0},
			&types.Ack{BlockNum: 42},
			&types.Error{ErrorCode: types.ErrDiskFull, ErrMsg: "no space"},
			&types.Error{ErrorCode: types.ErrNotDefined, ErrMsg: ""},
		}

		for _, p := range packets {
			b, err := types.Encode(p)
			require.NoError(t, err)

			decoded, err := types.Decode(b)
			require.NoError(t, err)
			assert.Equal(t, p, decoded, p.String())
		}
	})
	t.Run("data payload is the datagram remainder", func(t *testing.T) {
		p, err := types.Decode([]byte{0, 3, 0, 9, 1, 2, 3})
		require.NoError(t, err)

		data, ok := p.(*types.Data)
		require.True(t, ok)
		assert.Equal(t, uint16(9), data.BlockNum)
		assert.Equal(t, []byte{1, 2, 3}, data.Payload)
	})
	t.Run("data payload does not alias the datagram", func(t *testing.T) {
		datagram := []byte{0, 3, 0, 1, 'x'}
		p, err := types.Decode(datagram)
		require.NoError(t, err)

		datagram[4] = 'y'
		assert.Equal(t, []byte("x"), p.(*types.Data).Payload)
	})
	t.Run("ack ignores trailing bytes", func(t *testing.T) {
		p, err := types.Decode([]byte{0, 4, 0, 3, 0xde, 0xad})
		require.NoError(t, err)
		assert.Equal(t, &types.Ack{BlockNum: 3}, p)
	})
	t.Run("error without terminator has empty message", func(t *testing.T) {
		p, err := types.Decode(append([]byte{0, 5, 0, 1}, []byte("File not found")...))
		require.NoError(t, err)
		assert.Equal(t, &types.Error{ErrorCode: types.ErrFileNotFound}, p)
	})
	t.Run("error message stops at first NUL", func(t *testing.T) {
		p, err := types.Decode(append([]byte{0, 5, 0, 2}, []byte("denied\x00junk\x00")...))
		require.NoError(t, err)
		assert.Equal(t, &types.Error{ErrorCode: types.ErrAccessViolation, ErrMsg: "denied"}, p)
	})
	t.Run("short datagram", func(t *testing.T) {
		for _, b := range [][]byte{nil, {0}, {0, 4}, {0, 4, 0}} {
			_, err := types.Decode(b)
			assert.ErrorIs(t, err, utils.ErrDecode)
			assert.ErrorIs(t, err, utils.ErrShortPacket)
		}
	})
	t.Run("unknown opcode", func(t *testing.T) {
		_, err := types.Decode([]byte{0, 6, 0, 1})

		var decodeErr *types.DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Equal(t, types.OpCode(6), decodeErr.Opcode)
		assert.ErrorIs(t, err, utils.ErrWrongOpCode)
	})
	t.Run("request without mode terminator", func(t *testing.T) {
		_, err := types.Decode(append([]byte{0, 1}, []byte("file\x00octet")...))
		assert.ErrorIs(t, err, utils.ErrDecode)
	})
}

func TestErrCodeString(t *testing.T) {
	assert.Equal(t, "file not found", types.ErrFileNotFound.String())
	assert.Equal(t, "error code 42", types.ErrCode(42).String())
	assert.Equal(t, "DATA", types.OpCodeDATA.String())
	assert.Equal(t, "OPCODE(9)", types.OpCode(9).String())
}
