// Package tftptest runs a small in-process TFTP server for tests. Files live
// in memory, every request is answered from a fresh port and transfers are
// octet mode only.
package tftptest

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/Wa4h1h/go-tftp-client/pkg/endpoint"
	"github.com/Wa4h1h/go-tftp-client/pkg/types"
	"github.com/Wa4h1h/go-tftp-client/pkg/utils"
	"go.uber.org/zap"
)

type refusal struct {
	code types.ErrCode
	msg  string
}

type Server struct {
	// BlockSize, Timeout and NumTries are read when a request arrives.
	BlockSize int
	Timeout   time.Duration
	NumTries  int

	host     string
	logger   *zap.SugaredLogger
	ep       endpoint.Endpoint
	mu       sync.Mutex
	files    map[string][]byte
	refusals map[string]refusal
	wg       sync.WaitGroup
}

// NewServer binds the request endpoint on host with an OS chosen port.
func NewServer(l *zap.SugaredLogger, host string) (*Server, error) {
	ep, err := endpoint.Bind(host, 0)
	if err != nil {
		return nil, err
	}

	return &Server{
		BlockSize: types.DefaultBlockSize,
		Timeout:   time.Second,
		NumTries:  types.DefaultNumTries,
		host:      host,
		logger:    l,
		ep:        ep,
		files:     make(map[string][]byte),
		refusals:  make(map[string]refusal),
	}, nil
}

func (s *Server) Addr() *net.UDPAddr {
	return s.ep.LocalAddr().(*net.UDPAddr)
}

// Put stores content under name for read requests.
func (s *Server) Put(name string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[name] = content
}

// File returns what a write request stored under name.
func (s *Server) File(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.files[name]

	return b, ok
}

// Refuse answers requests for name with an ERROR sent from the request
// endpoint instead of a transfer port.
func (s *Server) Refuse(name string, code types.ErrCode, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refusals[name] = refusal{code: code, msg: msg}
}

func (s *Server) ListenAndServe() error {
	datagram := make([]byte, types.MaxDatagramSize)

	for {
		n, addr, err := s.ep.ReceiveFrom(datagram, 0)
		if err != nil {
			if errors.Is(err, utils.ErrEndpointClosed) {
				return nil
			}

			return err
		}

		p, err := types.Decode(datagram[:n])
		if err != nil {
			s.logger.Errorf("error while decoding request from %s: %s", addr, err.Error())

			continue
		}

		req, ok := p.(*types.Request)
		if !ok {
			s.logger.Errorf("unexpected %s on the request endpoint from %s", p.Op(), addr)

			continue
		}

		s.wg.Add(1)

		go func() {
			defer s.wg.Done()
			s.handleRequest(addr, req)
		}()
	}
}

// Close stops ListenAndServe and waits for running transfers.
func (s *Server) Close() error {
	err := s.ep.Close()
	s.wg.Wait()

	return err
}

func (s *Server) handleRequest(addr net.Addr, req *types.Request) {
	s.mu.Lock()
	r, refused := s.refusals[req.Filename]
	s.mu.Unlock()

	if refused {
		if err := sendError(s.ep, addr, r.code, r.msg); err != nil {
			s.logger.Errorf("error while refusing %s: %s", req.Filename, err.Error())
		}

		return
	}

	ep, err := endpoint.Bind(s.host, 0)
	if err != nil {
		s.logger.Errorf("error while opening transfer port: %s", err.Error())

		return
	}

	defer func() {
		if err := ep.Close(); err != nil {
			s.logger.Errorf("error while closing transfer port: %s", err.Error())
		}
	}()

	t := newTransfer(ep, addr, s.logger, s.Timeout, s.NumTries, s.BlockSize)

	switch req.Opcode {
	case types.OpCodeRRQ:
		s.mu.Lock()
		content, ok := s.files[req.Filename]
		s.mu.Unlock()

		if !ok {
			if err := sendError(ep, addr, types.ErrFileNotFound, "File not found"); err != nil {
				s.logger.Errorf("error while responding to rrq: %s", err.Error())
			}

			return
		}

		if err := t.send(content); err != nil {
			s.logger.Errorf("error while responding to rrq: %s", err.Error())
		}
	case types.OpCodeWRQ:
		content, err := t.receive()
		if err != nil {
			s.logger.Errorf("error while responding to wrq: %s", err.Error())

			return
		}

		s.Put(req.Filename, content)
	}
}
