package transfer

import (
	"fmt"
	"io"
	"math/rand"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Wa4h1h/go-tftp-client/pkg/types"
	"github.com/Wa4h1h/go-tftp-client/pkg/utils"
	"golang.org/x/exp/slices"
	"golang.org/x/net/idna"
)

type Action string

const (
	ActionDownload Action = "download"
	ActionUpload   Action = "upload"
)

// LiteralPrefix marks a LocalFile whose remainder is uploaded verbatim instead
// of being read from disk.
const LiteralPrefix = "DATA:"

const (
	DefaultLocalHost = "0.0.0.0"
	minRandomPort    = 1025
	maxRandomPort    = 65535
)

// Config describes a single transfer. It is not modified once the transfer starts.
type Config struct {
	Sink   io.Writer
	Source io.Reader

	LocalHost  string
	PeerHost   string
	LocalFile  string
	RemoteFile string
	Mode       string
	Action     Action

	LocalPort int
	PeerPort  int
	BlockSize int
	Retries   int
	Timeout   time.Duration
	Trace     bool
}

// WithDefaults fills every unset field except LocalPort; a zero LocalPort is
// resolved to a random port when the session endpoint is bound.
func (c Config) WithDefaults() Config {
	if c.LocalHost == "" {
		c.LocalHost = DefaultLocalHost
	}

	if c.PeerPort == 0 {
		c.PeerPort = types.DefaultPort
	}

	if c.Mode == "" {
		c.Mode = types.ModeOctet
	}

	if c.BlockSize == 0 {
		c.BlockSize = types.DefaultBlockSize
	}

	if c.Timeout == 0 {
		c.Timeout = types.DefaultClientTimeout * time.Second
	}

	if c.Retries == 0 {
		c.Retries = types.DefaultNumTries
	}

	if c.RemoteFile == "" && c.LocalFile != "" {
		if _, ok := c.Literal(); !ok {
			c.RemoteFile = filepath.Base(c.LocalFile)
		}
	}

	return c
}

func (c Config) Validate() error {
	switch {
	case c.PeerHost == "":
		return fmt.Errorf("%w: peer host is required", utils.ErrInvalidArgument)
	case c.Action != ActionDownload && c.Action != ActionUpload:
		return fmt.Errorf("%w: action must be %q or %q, got %q",
			utils.ErrInvalidArgument, ActionDownload, ActionUpload, c.Action)
	case !validHost(c.PeerHost):
		return fmt.Errorf("%w: %q is neither an IP nor a hostname", utils.ErrInvalidArgument, c.PeerHost)
	case !slices.Contains(types.SupportedModes, strings.ToLower(c.Mode)):
		return fmt.Errorf("%w: unsupported mode %q", utils.ErrInvalidArgument, c.Mode)
	case c.BlockSize < types.MinBlockSize || c.BlockSize > types.MaxBlockSize:
		return fmt.Errorf("%w: block size %d out of range [%d, %d]",
			utils.ErrInvalidArgument, c.BlockSize, types.MinBlockSize, types.MaxBlockSize)
	case c.PeerPort < 1 || c.PeerPort > 65535:
		return fmt.Errorf("%w: peer port %d out of range", utils.ErrInvalidArgument, c.PeerPort)
	case c.LocalPort < 0 || c.LocalPort > 65535:
		return fmt.Errorf("%w: local port %d out of range", utils.ErrInvalidArgument, c.LocalPort)
	case c.Retries < 0 || c.Timeout < 0:
		return fmt.Errorf("%w: retries and timeout must not be negative", utils.ErrInvalidArgument)
	case c.RemoteFile == "":
		return fmt.Errorf("%w: remote file is required", utils.ErrInvalidArgument)
	case c.Action == ActionUpload && c.Source == nil && c.LocalFile == "":
		return fmt.Errorf("%w: upload needs a local file or source", utils.ErrInvalidArgument)
	}

	return nil
}

// Literal returns the inline payload of a "DATA:<content>" local file.
func (c Config) Literal() (string, bool) {
	return strings.CutPrefix(c.LocalFile, LiteralPrefix)
}

func (c Config) PeerAddr() (*net.UDPAddr, error) {
	return net.ResolveUDPAddr("udp", net.JoinHostPort(c.PeerHost, strconv.Itoa(c.PeerPort)))
}

// RandomPort picks a local port in [1025, 65535).
func RandomPort() int {
	return minRandomPort + rand.Intn(maxRandomPort-minRandomPort)
}

func validHost(host string) bool {
	if host == "localhost" || net.ParseIP(host) != nil {
		return true
	}

	_, err := idna.Lookup.ToASCII(host)

	return err == nil
}
