package transfer

import (
	"github.com/Wa4h1h/go-tftp-client/pkg/types"
)

// Download drives a read request on the session endpoint until the last
// block is acknowledged or the transfer fails. Blocks are written to sink in
// order; each one is acknowledged before the next is accepted. The sink is
// committed only once the last block arrived. The returned error is the
// failure published in the state, nil on success or teardown.
func (s *Session) Download(sink *Sink) error {
	buf := make([]byte, types.MaxDatagramSize)
	duplicates := 0

	s.state.Phase = PhaseAwaitingFirstData
	s.state.Block = 1

	for {
		p, err := s.receive(buf)
		if err != nil {
			return s.fail(err)
		}

		switch p := p.(type) {
		case *types.Data:
			switch {
			case p.BlockNum == s.state.Block:
				duplicates = 0

				if _, err := sink.Write(p.Payload); err != nil {
					return s.fail(IOFailure(err))
				}

				s.state.Bytes += int64(len(p.Payload))
				s.state.Blocks++

				if err := s.send(&types.Ack{BlockNum: p.BlockNum}); err != nil {
					return s.fail(err)
				}

				if len(p.Payload) < s.cfg.BlockSize {
					s.l.Debugf("received %d blocks, received %d bytes", s.state.Blocks, s.state.Bytes)

					if err := sink.Commit(); err != nil {
						return s.fail(IOFailure(err))
					}

					s.complete(sink.Bytes())

					return nil
				}

				s.state.Phase = PhaseReceivingBlock
				s.state.Block++
			case s.state.Phase == PhaseReceivingBlock && p.BlockNum == s.state.Block-1:
				// our ack got lost, the server is resending
				duplicates++
				if duplicates > s.cfg.Retries {
					return s.fail(retryExhausted("block#=%d resent %d times", p.BlockNum, duplicates))
				}

				s.l.Debugf("duplicate block#=%d, acknowledging again", p.BlockNum)

				if err := s.transmit(); err != nil {
					return s.fail(err)
				}
			default:
				return s.fail(violation(p.Op(), "got block#=%d, expected block#=%d", p.BlockNum, s.state.Block))
			}
		case *types.Error:
			return s.fail(remoteError(p))
		default:
			return s.fail(violation(p.Op(), "unexpected %s while %s", p.Op(), s.state.Phase))
		}
	}
}
