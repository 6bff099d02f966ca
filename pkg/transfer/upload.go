package transfer

import (
	"github.com/Wa4h1h/go-tftp-client/pkg/types"
)

// Upload drives a write request on the session endpoint. The server must
// accept the request with ACK 0 before the first block goes out. Like
// Download it returns the failure it published.
func (s *Session) Upload(src *Source) error {
	buf := make([]byte, types.MaxDatagramSize)
	block := make([]byte, s.cfg.BlockSize)

	s.state.Phase = PhaseAwaitingAck0

	p, err := s.receive(buf)
	if err != nil {
		return s.fail(err)
	}

	switch p := p.(type) {
	case *types.Ack:
		if p.BlockNum != 0 {
			return s.fail(violation(p.Op(), "write request acknowledged with block#=%d", p.BlockNum))
		}
	case *types.Error:
		return s.fail(remoteError(p))
	default:
		return s.fail(violation(p.Op(), "unexpected %s while %s", p.Op(), s.state.Phase))
	}

	s.l.Debugf("WRQ accepted by %s, sending %s", s.state.Peer.Addr(), s.cfg.RemoteFile)

	s.state.Phase = PhaseSendingBlock
	s.state.Block = 1

	for {
		payload, last, err := src.Next(block)
		if err != nil {
			return s.fail(IOFailure(err))
		}

		if err := s.send(&types.Data{BlockNum: s.state.Block, Payload: payload}); err != nil {
			return s.fail(err)
		}

		if err := s.awaitAck(buf); err != nil {
			return s.fail(err)
		}

		s.state.Bytes += int64(len(payload))
		s.state.Blocks++

		if last {
			s.l.Debugf("sent %d blocks, sent %d bytes", s.state.Blocks, s.state.Bytes)
			s.complete(nil)

			return nil
		}

		s.state.Block++
	}
}

// awaitAck waits for the acknowledgement of the block in flight. An ack for
// an earlier block resends the current one.
func (s *Session) awaitAck(buf []byte) error {
	for resent := 0; ; {
		p, err := s.receive(buf)
		if err != nil {
			return err
		}

		switch p := p.(type) {
		case *types.Ack:
			if p.BlockNum == s.state.Block {
				return nil
			}

			if !precedes(p.BlockNum, s.state.Block) {
				return violation(p.Op(), "ack block#=%d ahead of block#=%d", p.BlockNum, s.state.Block)
			}

			resent++
			if resent > s.cfg.Retries {
				return retryExhausted("block#=%d not acknowledged after %d resends", s.state.Block, s.cfg.Retries)
			}

			s.l.Errorf("ack block# %d != expected block# %d, resending (%d/%d)",
				p.BlockNum, s.state.Block, resent, s.cfg.Retries)

			if err := s.transmit(); err != nil {
				return err
			}
		case *types.Error:
			return remoteError(p)
		default:
			return violation(p.Op(), "unexpected %s while %s", p.Op(), s.state.Phase)
		}
	}
}

// precedes reports whether block a comes before b, allowing for wrap-around.
func precedes(a, b uint16) bool {
	d := b - a

	return d != 0 && d < 1<<15
}
