package transfer

import (
	"errors"

	"github.com/Wa4h1h/go-tftp-client/pkg/types"
	"github.com/Wa4h1h/go-tftp-client/pkg/utils"
)

// Watch listens on the initiating endpoint for the lifetime of the transfer.
// Replies belong on the session endpoint, so any datagram arriving here ends
// the transfer. It returns nil once the session is torn down.
func (s *Session) Watch() error {
	buf := make([]byte, types.MaxDatagramSize)

	n, from, err := s.initiator.ReceiveFrom(buf, 0)
	if err != nil {
		if errors.Is(err, utils.ErrEndpointClosed) && s.state.tearingDown() {
			return nil
		}

		return s.abort(IOFailure(err))
	}

	p, err := types.Decode(buf[:n])
	if err != nil {
		return s.abort(decodeFailure(err))
	}

	if e, ok := p.(*types.Error); ok {
		return s.abort(remoteError(e))
	}

	return s.abort(violation(p.Op(), "unexpected %s from %s on the request endpoint", p.Op(), from))
}

// abort publishes te without touching the listener-owned counters.
func (s *Session) abort(te *TransferError) error {
	if s.state.finish(Failed(s.cfg, te)) {
		s.l.Errorf("aborting transfer of %s: %s", s.cfg.RemoteFile, te)
	}

	return te
}
