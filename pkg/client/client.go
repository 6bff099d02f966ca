// Package client runs TFTP transfers against a remote server and hosts the
// interactive shell built on top of them.
package client

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Wa4h1h/go-tftp-client/pkg/endpoint"
	"github.com/Wa4h1h/go-tftp-client/pkg/transfer"
	"github.com/Wa4h1h/go-tftp-client/pkg/types"
	"github.com/Wa4h1h/go-tftp-client/pkg/utils"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const bindAttempts = 5

// Connector is what the shell needs from a client.
type Connector interface {
	Connect(host string, port int) error
	Get(ctx context.Context, remote, local string) (*transfer.Status, error)
	Put(ctx context.Context, local, remote string) (*transfer.Status, error)
	SetTimeout(timeout time.Duration)
	SetBlockSize(size int) error
	SetTrace() bool
	Settings() transfer.Config
}

type Client struct {
	l        *zap.SugaredLogger
	defaults transfer.Config
}

// NewClient returns a client whose shell commands start from defaults.
func NewClient(l *zap.SugaredLogger, defaults transfer.Config) *Client {
	return &Client{l: l, defaults: defaults}
}

// RequestRead downloads cfg.RemoteFile from cfg.PeerHost.
func (c *Client) RequestRead(ctx context.Context, cfg transfer.Config) (*transfer.Status, error) {
	cfg.Action = transfer.ActionDownload

	return c.Do(ctx, cfg)
}

// RequestWrite uploads cfg.LocalFile, a literal or cfg.Source to cfg.PeerHost.
func (c *Client) RequestWrite(ctx context.Context, cfg transfer.Config) (*transfer.Status, error) {
	cfg.Action = transfer.ActionUpload

	return c.Do(ctx, cfg)
}

// Do runs one transfer and blocks until it has a terminal status. The error
// is only set for an unusable cfg; every other failure is reported through
// the status.
func (c *Client) Do(ctx context.Context, cfg transfer.Config) (*transfer.Status, error) {
	cfg = cfg.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.BlockSize != types.DefaultBlockSize {
		c.l.Warnf("block size %d is not negotiated, the server must use the same size", cfg.BlockSize)
	}

	server, err := cfg.PeerAddr()
	if err != nil {
		return transfer.Failed(cfg, transfer.IOFailure(err)), nil
	}

	conn, err := c.bind(cfg)
	if err != nil {
		return transfer.Failed(cfg, transfer.IOFailure(err)), nil
	}

	initiator, err := endpoint.Dial(conn.LocalAddr(), server)
	if err != nil {
		return transfer.Failed(cfg, transfer.IOFailure(multierr.Append(err, conn.Close()))), nil
	}

	s := transfer.NewSession(cfg, c.l, conn, initiator, server)

	c.l.Debugf("%s %s from %s via %s", cfg.Action, cfg.RemoteFile, server, conn.LocalAddr())

	var run func() error

	switch cfg.Action {
	case transfer.ActionDownload:
		sink, err := transfer.OpenSink(cfg)
		if err != nil {
			return c.abandon(s, cfg, err), nil
		}

		defer c.release(sink)

		run = func() error { return s.Download(sink) }
	default:
		src, err := transfer.OpenSource(cfg)
		if err != nil {
			return c.abandon(s, cfg, err), nil
		}

		defer c.release(src)

		run = func() error { return s.Upload(src) }
	}

	if err := s.Request(); err != nil {
		return c.abandon(s, cfg, err), nil
	}

	g := new(errgroup.Group)

	g.Go(run)
	g.Go(s.Watch)

	select {
	case <-s.State().Done():
	case <-ctx.Done():
		s.Abort(ctx.Err())
	}

	if err := s.Close(); err != nil {
		c.l.Debugf("error while closing session: %s", err.Error())
	}

	// the first listener failure, already published in the status
	if err := g.Wait(); err != nil {
		c.l.Debugf("transfer listener stopped: %s", err.Error())
	}

	st := s.State().Status()
	if st.Success() {
		c.l.Infof("%s", st)
	}

	return st, nil
}

// bind opens the session endpoint. A zero LocalPort is replaced by random
// ports until one can be bound.
func (c *Client) bind(cfg transfer.Config) (*endpoint.UDP, error) {
	if cfg.LocalPort != 0 {
		return endpoint.Bind(cfg.LocalHost, cfg.LocalPort)
	}

	var errs error

	for i := 0; i < bindAttempts; i++ {
		conn, err := endpoint.Bind(cfg.LocalHost, transfer.RandomPort())
		if err == nil {
			return conn, nil
		}

		errs = multierr.Append(errs, err)
	}

	return nil, errs
}

func (c *Client) abandon(s *transfer.Session, cfg transfer.Config, err error) *transfer.Status {
	if errClose := s.Close(); errClose != nil {
		c.l.Debugf("error while closing session: %s", errClose.Error())
	}

	return transfer.Failed(cfg, transfer.IOFailure(err))
}

func (c *Client) release(r interface{ Close() error }) {
	if err := r.Close(); err != nil {
		c.l.Errorf("error while closing local file: %s", err.Error())
	}
}

// Connect sets the server used by Get and Put.
func (c *Client) Connect(host string, port int) error {
	if _, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port))); err != nil {
		return fmt.Errorf("%w: can not resolve %s:%d: %w", utils.ErrInvalidArgument, host, port, err)
	}

	c.defaults.PeerHost = host
	c.defaults.PeerPort = port

	return nil
}

// Get downloads remote into local, or into a file named after remote when
// local is empty.
func (c *Client) Get(ctx context.Context, remote, local string) (*transfer.Status, error) {
	if local == "" {
		local = filepath.Base(remote)
	}

	cfg := c.defaults
	cfg.RemoteFile = remote
	cfg.LocalFile = local

	return c.RequestRead(ctx, cfg)
}

// Put uploads local as remote, or under local's base name when remote is empty.
func (c *Client) Put(ctx context.Context, local, remote string) (*transfer.Status, error) {
	cfg := c.defaults
	cfg.LocalFile = local
	cfg.RemoteFile = remote

	return c.RequestWrite(ctx, cfg)
}

func (c *Client) SetTimeout(timeout time.Duration) {
	c.defaults.Timeout = timeout
}

func (c *Client) SetBlockSize(size int) error {
	if size < types.MinBlockSize || size > types.MaxBlockSize {
		return fmt.Errorf("%w: block size %d out of range [%d, %d]",
			utils.ErrInvalidArgument, size, types.MinBlockSize, types.MaxBlockSize)
	}

	c.defaults.BlockSize = size

	return nil
}

// SetTrace toggles packet tracing and returns the new setting.
func (c *Client) SetTrace() bool {
	c.defaults.Trace = !c.defaults.Trace

	return c.defaults.Trace
}

// Settings returns the configuration Get and Put start from.
func (c *Client) Settings() transfer.Config {
	return c.defaults.WithDefaults()
}
