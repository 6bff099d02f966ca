package transfer

import (
	"net"
	"sync"
	"sync/atomic"
)

// Phase is the position of a transfer in its state machine.
type Phase int

const (
	PhaseAwaitingFirstData Phase = iota
	PhaseReceivingBlock
	PhaseAwaitingAck0
	PhaseSendingBlock
	PhaseComplete
	PhaseFailed
)

func (p Phase) String() string {
	return [...]string{
		"awaiting first data", "receiving block", "awaiting ack 0",
		"sending block", "complete", "failed",
	}[p]
}

// PeerAddress is the server's transfer address. It is learned from the first
// reply and never changes afterwards.
type PeerAddress struct {
	addr net.Addr
}

func (p *PeerAddress) Addr() net.Addr {
	return p.addr
}

// match records addr as the peer when none is known yet and reports whether
// addr is the peer.
func (p *PeerAddress) match(addr net.Addr) bool {
	if p.addr == nil {
		p.addr = addr

		return true
	}

	return sameAddr(p.addr, addr)
}

func sameAddr(a, b net.Addr) bool {
	ua, okA := a.(*net.UDPAddr)
	ub, okB := b.(*net.UDPAddr)

	if okA && okB {
		return ua.IP.Equal(ub.IP) && ua.Port == ub.Port
	}

	return a.String() == b.String()
}

// State is the mutable side of a transfer. Only the session listener writes
// the counters and the peer; the terminal status is published once through Done.
type State struct {
	Peer   PeerAddress
	Phase  Phase
	Block  uint16
	Bytes  int64
	Blocks int

	status   *Status
	done     chan struct{}
	once     sync.Once
	teardown atomic.Bool
}

func NewState() *State {
	return &State{done: make(chan struct{})}
}

// Done is closed once the status is decided.
func (s *State) Done() <-chan struct{} {
	return s.done
}

// Status returns the terminal status, or nil while the transfer is running.
func (s *State) Status() *Status {
	select {
	case <-s.done:
		return s.status
	default:
		return nil
	}
}

// finish publishes st unless another status won the race. It reports whether st was kept.
func (s *State) finish(st *Status) bool {
	kept := false

	s.once.Do(func() {
		s.status = st
		kept = true

		close(s.done)
	})

	return kept
}

func (s *State) tearingDown() bool {
	return s.teardown.Load()
}
