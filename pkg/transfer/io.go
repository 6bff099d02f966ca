package transfer

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Sink is where downloaded blocks go: a caller supplied writer, a file or an
// in-memory buffer. A file sink writes to a temporary file next to the target
// and only replaces the target on Commit.
type Sink struct {
	w    io.Writer
	f    *os.File
	buf  *bytes.Buffer
	path string
	done bool
}

func OpenSink(cfg Config) (*Sink, error) {
	switch {
	case cfg.Sink != nil:
		return &Sink{w: cfg.Sink}, nil
	case cfg.LocalFile == "":
		buf := new(bytes.Buffer)

		return &Sink{w: buf, buf: buf}, nil
	}

	f, err := os.CreateTemp(filepath.Dir(cfg.LocalFile), "."+filepath.Base(cfg.LocalFile)+".*")
	if err != nil {
		return nil, errors.Wrapf(err, "open sink %s", cfg.LocalFile)
	}

	if err := f.Chmod(0o644); err != nil {
		return nil, multierr.Combine(errors.Wrapf(err, "open sink %s", cfg.LocalFile),
			f.Close(), os.Remove(f.Name()))
	}

	return &Sink{w: f, f: f, path: cfg.LocalFile}, nil
}

func (s *Sink) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if err != nil {
		return n, errors.Wrap(err, "write sink")
	}

	return n, nil
}

// Bytes returns the buffered download, or nil when the sink is not in memory.
func (s *Sink) Bytes() []byte {
	if s.buf == nil {
		return nil
	}

	return s.buf.Bytes()
}

// Commit moves a file sink's content into place. It is a no-op for other
// sinks.
func (s *Sink) Commit() error {
	if s.f == nil || s.done {
		return nil
	}

	s.done = true

	if err := s.f.Close(); err != nil {
		return multierr.Append(errors.Wrap(err, "close sink"), os.Remove(s.f.Name()))
	}

	if err := os.Rename(s.f.Name(), s.path); err != nil {
		return multierr.Append(errors.Wrapf(err, "commit sink %s", s.path), os.Remove(s.f.Name()))
	}

	return nil
}

// Close discards an uncommitted file sink, leaving the target untouched.
func (s *Sink) Close() error {
	if s.f == nil || s.done {
		return nil
	}

	s.done = true

	return errors.Wrap(multierr.Append(s.f.Close(), os.Remove(s.f.Name())), "discard sink")
}

// Source hands out the blocks of an upload.
type Source struct {
	r io.Reader
	c io.Closer
}

func OpenSource(cfg Config) (*Source, error) {
	if cfg.Source != nil {
		return &Source{r: cfg.Source}, nil
	}

	if literal, ok := cfg.Literal(); ok {
		return &Source{r: strings.NewReader(literal)}, nil
	}

	f, err := os.Open(cfg.LocalFile)
	if err != nil {
		return nil, errors.Wrapf(err, "open source %s", cfg.LocalFile)
	}

	return &Source{r: f, c: f}, nil
}

// Next fills block with the next chunk and reports whether it is the last
// one. A short chunk is always the last; after a full chunk the following
// call may return an empty last chunk, which is what terminates uploads
// whose size is a multiple of the block size.
func (s *Source) Next(block []byte) ([]byte, bool, error) {
	n, err := io.ReadFull(s.r, block)

	switch {
	case err == nil:
		return block[:n], false, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return block[:n], true, nil
	default:
		return nil, false, errors.Wrap(err, "read source")
	}
}

func (s *Source) Close() error {
	if s.c == nil {
		return nil
	}

	return errors.Wrap(s.c.Close(), "close source")
}
