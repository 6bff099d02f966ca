package tftptest

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/Wa4h1h/go-tftp-client/pkg/endpoint"
	"github.com/Wa4h1h/go-tftp-client/pkg/types"
	"github.com/Wa4h1h/go-tftp-client/pkg/utils"
	"go.uber.org/zap"
)

var (
	errNoReply    = errors.New("error: peer stopped answering")
	errPeerFailed = errors.New("error: peer sent an error packet")
)

// transfer is the server half of one lock-step exchange with peer.
type transfer struct {
	ep        endpoint.Endpoint
	peer      net.Addr
	l         *zap.SugaredLogger
	timeout   time.Duration
	numTries  int
	blockSize int
}

func newTransfer(ep endpoint.Endpoint, peer net.Addr, l *zap.SugaredLogger,
	timeout time.Duration, numTries int, blockSize int,
) *transfer {
	return &transfer{
		ep: ep, peer: peer, l: l,
		timeout: timeout, numTries: numTries, blockSize: blockSize,
	}
}

// read returns the next packet from the peer. Datagrams from anyone else are
// dropped.
func (t *transfer) read(buf []byte) (types.Packet, error) {
	for {
		n, from, err := t.ep.ReceiveFrom(buf, t.timeout)
		if err != nil {
			return nil, err
		}

		if from.String() != t.peer.String() {
			t.l.Debugf("dropping datagram from %s", from)

			continue
		}

		return types.Decode(buf[:n])
	}
}

func (t *transfer) send(content []byte) error {
	var (
		blockNum uint16 = 1
		offset   int
	)

	for {
		end := min(offset+t.blockSize, len(content))

		if err := t.sendBlock(content[offset:end], blockNum); err != nil {
			return err
		}

		if end-offset < t.blockSize {
			t.l.Debugf("sent %d blocks, sent %d bytes", blockNum, len(content))

			return nil
		}

		offset = end
		blockNum++
	}
}

func (t *transfer) sendBlock(block []byte, blockNum uint16) error {
	buf := make([]byte, types.MaxDatagramSize)
	data := &types.Data{BlockNum: blockNum, Payload: block}

	for i := t.numTries; i > 0; i-- {
		if err := sendPacket(t.ep, t.peer, data); err != nil {
			return err
		}

		p, err := t.read(buf)
		if err != nil {
			if errors.Is(err, utils.ErrTimeout) {
				continue
			}

			return err
		}

		switch p := p.(type) {
		case *types.Ack:
			if p.BlockNum != blockNum {
				t.l.Errorf("ack block# %d != expected block# %d", p.BlockNum, blockNum)

				continue
			}

			return nil
		case *types.Error:
			return fmt.Errorf("%w: %s", errPeerFailed, p)
		default:
			return fmt.Errorf("unexpected %s while sending block#=%d", p.Op(), blockNum)
		}
	}

	return errNoReply
}

// receive accepts a write request and collects the uploaded blocks.
func (t *transfer) receive() ([]byte, error) {
	var (
		content  []byte
		blockNum uint16
	)

	buf := make([]byte, types.MaxDatagramSize)
	ack := &types.Ack{BlockNum: 0}

	for {
		if err := sendPacket(t.ep, t.peer, ack); err != nil {
			return nil, err
		}

		if blockNum > 0 && len(content) < int(blockNum)*t.blockSize {
			t.l.Debugf("received %d blocks, received %d bytes", blockNum, len(content))

			return content, nil
		}

		payload, err := t.receiveBlock(buf, blockNum+1, ack)
		if err != nil {
			return nil, err
		}

		blockNum++
		content = append(content, payload...)
		ack = &types.Ack{BlockNum: blockNum}
	}
}

func (t *transfer) receiveBlock(buf []byte, want uint16, last *types.Ack) ([]byte, error) {
	for i := t.numTries; i > 0; i-- {
		p, err := t.read(buf)
		if err != nil {
			if errors.Is(err, utils.ErrTimeout) {
				if err := sendPacket(t.ep, t.peer, last); err != nil {
					return nil, err
				}

				continue
			}

			return nil, err
		}

		switch p := p.(type) {
		case *types.Data:
			if p.BlockNum == want {
				return p.Payload, nil
			}

			if err := sendPacket(t.ep, t.peer, last); err != nil {
				return nil, err
			}
		case *types.Error:
			return nil, fmt.Errorf("%w: %s", errPeerFailed, p)
		default:
			return nil, fmt.Errorf("unexpected %s while waiting for block#=%d", p.Op(), want)
		}
	}

	return nil, errNoReply
}
