package transfer

import (
	"encoding/binary"
	"errors"
	"net"

	"github.com/Wa4h1h/go-tftp-client/pkg/endpoint"
	"github.com/Wa4h1h/go-tftp-client/pkg/types"
	"github.com/Wa4h1h/go-tftp-client/pkg/utils"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var errTornDown = errors.New("session torn down")

// outgoing is the last packet sent, kept for retransmission.
type outgoing struct {
	ep   endpoint.Endpoint
	to   net.Addr
	b    []byte
	desc string
}

// Session owns the two endpoints of one transfer. The initiator carries the
// request to the server's well-known port; conn is where the server's
// transfer port talks to us.
type Session struct {
	cfg       Config
	l         *zap.SugaredLogger
	conn      endpoint.Endpoint
	initiator endpoint.Endpoint
	server    net.Addr
	state     *State
	last      outgoing
}

func NewSession(cfg Config, l *zap.SugaredLogger,
	conn endpoint.Endpoint, initiator endpoint.Endpoint, server net.Addr,
) *Session {
	return &Session{
		cfg:       cfg,
		l:         l,
		conn:      conn,
		initiator: initiator,
		server:    server,
		state:     NewState(),
	}
}

func (s *Session) State() *State {
	return s.state
}

// Request sends the RRQ or WRQ from the initiating endpoint.
func (s *Session) Request() error {
	req := &types.Request{
		Opcode:   types.OpCodeRRQ,
		Filename: s.cfg.RemoteFile,
		Mode:     s.cfg.Mode,
	}

	if s.cfg.Action == ActionUpload {
		req.Opcode = types.OpCodeWRQ
	}

	return s.sendVia(s.initiator, req, s.server)
}

// Abort ends the transfer with an i/o failure unless it already ended.
func (s *Session) Abort(err error) {
	s.abort(IOFailure(err))
}

// Close marks the session as torn down and closes both endpoints. Listeners
// blocked on them return without touching the status.
func (s *Session) Close() error {
	s.state.teardown.Store(true)

	return multierr.Append(s.conn.Close(), s.initiator.Close())
}

func (s *Session) send(p types.Packet) error {
	return s.sendVia(s.conn, p, s.state.Peer.Addr())
}

func (s *Session) sendVia(ep endpoint.Endpoint, p types.Packet, to net.Addr) error {
	b, err := types.Encode(p)
	if err != nil {
		return err
	}

	s.last = outgoing{ep: ep, to: to, b: b, desc: p.String()}

	return s.transmit()
}

func (s *Session) transmit() error {
	if _, err := s.last.ep.SendTo(s.last.b, s.last.to); err != nil {
		return err
	}

	if s.cfg.Trace {
		s.l.Debugf("sent %s to %s", s.last.desc, s.last.to)
	}

	return nil
}

// receive waits for the next packet from the peer. Every expired wait
// retransmits the last packet; more than Retries expiries in a row end the
// transfer. The first datagram received fixes the peer address.
func (s *Session) receive(buf []byte) (types.Packet, error) {
	for expired := 0; ; {
		n, from, err := s.conn.ReceiveFrom(buf, s.cfg.Timeout)
		if err != nil {
			switch {
			case errors.Is(err, utils.ErrTimeout):
				expired++
				if expired > s.cfg.Retries {
					return nil, retryExhausted("no reply after %d retransmissions of %s", s.cfg.Retries, s.last.desc)
				}

				s.l.Debugf("timed out in phase %q, retransmitting %s (%d/%d)",
					s.state.Phase, s.last.desc, expired, s.cfg.Retries)

				if err := s.transmit(); err != nil {
					return nil, err
				}

				continue
			case errors.Is(err, utils.ErrEndpointClosed) && s.state.tearingDown():
				return nil, errTornDown
			default:
				return nil, err
			}
		}

		if !s.state.Peer.match(from) {
			s.rejectStranger(from)

			return nil, violation(peekOp(buf[:n]), "datagram from %s, transfer peer is %s", from, s.state.Peer.Addr())
		}

		p, err := types.Decode(buf[:n])
		if err != nil {
			return nil, decodeFailure(err)
		}

		if s.cfg.Trace {
			s.l.Debugf("received %s from %s", p, from)
		}

		return p, nil
	}
}

// rejectStranger answers a datagram from an unknown transfer ID the way RFC 1350 asks.
func (s *Session) rejectStranger(from net.Addr) {
	s.l.Errorf("datagram from unknown transfer ID %s (peer is %s)", from, s.state.Peer.Addr())

	b, err := types.Encode(&types.Error{ErrorCode: types.ErrUnknownTransferId, ErrMsg: types.ErrUnknownTransferId.String()})
	if err != nil {
		return
	}

	if _, err := s.conn.SendTo(b, from); err != nil {
		s.l.Errorf("error while rejecting %s: %s", from, err.Error())
	}
}

func (s *Session) complete(data []byte) {
	s.state.Phase = PhaseComplete

	s.state.finish(&Status{
		LocalFile:  s.cfg.LocalFile,
		RemoteFile: s.cfg.RemoteFile,
		TotalBytes: s.state.Bytes,
		BlockCount: s.state.Blocks,
		Data:       data,
	})
}

// fail ends the transfer with err and returns it as a *TransferError. A torn
// down session is left alone and unclassified errors count as i/o failures.
func (s *Session) fail(err error) error {
	if errors.Is(err, errTornDown) || errors.Is(err, utils.ErrEndpointClosed) && s.state.tearingDown() {
		return nil
	}

	var te *TransferError
	if !errors.As(err, &te) {
		te = IOFailure(err)
	}

	s.state.Phase = PhaseFailed

	st := Failed(s.cfg, te)
	st.TotalBytes = s.state.Bytes
	st.BlockCount = s.state.Blocks

	if s.state.finish(st) {
		s.l.Errorf("transfer of %s failed: %s", s.cfg.RemoteFile, te)
	}

	return te
}

func peekOp(datagram []byte) types.OpCode {
	if len(datagram) < 2 {
		return 0
	}

	return types.OpCode(binary.BigEndian.Uint16(datagram))
}
