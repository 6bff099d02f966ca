package client

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Wa4h1h/go-tftp-client/pkg/transfer"
	"go.uber.org/zap"
)

var (
	getRegex     = `^get\s+(\S+)(?:\s+(\S+))?$`
	putRegex     = `^put\s+(\S+)(?:\s+(\S+))?$`
	timeoutRegex = `^timeout\s+(\d+)$`
	blksizeRegex = `^blksize\s+(\d+)$`
	connectRegex = `^connect\s+(\S+)(?:\s+(\d+))?$`
	traceRegex   = `^trace$`
	statusRegex  = `^status$`
	quitRegex    = `^(?:quit|exit)$`
	helpRegex    = `^(?:help|\?)$`
)

const helpText = `Commands:
	connect <host> [port]
	get <remote> [local]
	put <local> [remote]
	timeout <seconds>
	blksize <bytes>          not negotiated, the server must use the same size
	trace
	status
	quit`

type Evaluator struct {
	l             *zap.SugaredLogger
	client        Connector
	out           io.Writer
	regexPatterns map[string]*regexp.Regexp
}

func NewEvaluator(l *zap.SugaredLogger, client Connector, out io.Writer) *Evaluator {
	e := &Evaluator{
		l:      l,
		client: client,
		out:    out,
	}

	e.regexPatterns = make(map[string]*regexp.Regexp)

	e.regexPatterns["get"] = regexp.MustCompile(getRegex)
	e.regexPatterns["put"] = regexp.MustCompile(putRegex)
	e.regexPatterns["timeout"] = regexp.MustCompile(timeoutRegex)
	e.regexPatterns["blksize"] = regexp.MustCompile(blksizeRegex)
	e.regexPatterns["connect"] = regexp.MustCompile(connectRegex)
	e.regexPatterns["trace"] = regexp.MustCompile(traceRegex)
	e.regexPatterns["status"] = regexp.MustCompile(statusRegex)
	e.regexPatterns["quit"] = regexp.MustCompile(quitRegex)
	e.regexPatterns["help"] = regexp.MustCompile(helpRegex)

	return e
}

// evaluate runs one command line and reports whether the shell should stop.
func (e *Evaluator) evaluate(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)

	if line == "" {
		return false, nil
	}

	if matches := e.regexPatterns["get"].FindStringSubmatch(line); len(matches) == 3 {
		return false, e.report(e.client.Get(ctx, matches[1], matches[2]))
	}

	if matches := e.regexPatterns["put"].FindStringSubmatch(line); len(matches) == 3 {
		return false, e.report(e.client.Put(ctx, matches[1], matches[2]))
	}

	if matches := e.regexPatterns["timeout"].FindStringSubmatch(line); len(matches) == 2 {
		n, err := strconv.ParseUint(matches[1], 10, 32)
		if err != nil || n == 0 {
			return false, fmt.Errorf("timeout value can not be parsed: %s", matches[1])
		}

		e.client.SetTimeout(time.Duration(n) * time.Second)

		return false, nil
	}

	if matches := e.regexPatterns["blksize"].FindStringSubmatch(line); len(matches) == 2 {
		n, err := strconv.Atoi(matches[1])
		if err != nil {
			return false, fmt.Errorf("block size can not be parsed: %w", err)
		}

		return false, e.client.SetBlockSize(n)
	}

	if matches := e.regexPatterns["connect"].FindStringSubmatch(line); len(matches) == 3 {
		port := 0

		if matches[2] != "" {
			n, err := strconv.Atoi(matches[2])
			if err != nil {
				return false, fmt.Errorf("port can not be parsed: %w", err)
			}

			port = n
		}

		if port == 0 {
			port = e.client.Settings().PeerPort
		}

		return false, e.client.Connect(matches[1], port)
	}

	if e.regexPatterns["trace"].MatchString(line) {
		if e.client.SetTrace() {
			fmt.Fprintln(e.out, "Packet tracing on.")
		} else {
			fmt.Fprintln(e.out, "Packet tracing off.")
		}

		return false, nil
	}

	if e.regexPatterns["status"].MatchString(line) {
		s := e.client.Settings()

		peer := s.PeerHost
		if peer == "" {
			peer = "not connected"
		} else {
			peer = fmt.Sprintf("%s:%d", peer, s.PeerPort)
		}

		fmt.Fprintf(e.out, "Connected to: %s\nMode: %s\nBlock size: %d\nTimeout: %s\nRetries: %d\nTracing: %t\n",
			peer, s.Mode, s.BlockSize, s.Timeout, s.Retries, s.Trace)

		return false, nil
	}

	if e.regexPatterns["help"].MatchString(line) {
		fmt.Fprintln(e.out, helpText)

		return false, nil
	}

	if e.regexPatterns["quit"].MatchString(line) {
		return true, nil
	}

	return false, fmt.Errorf("unknown command or arguments: %s", line)
}

func (e *Evaluator) report(st *transfer.Status, err error) error {
	if err != nil {
		return err
	}

	if !st.Success() {
		return st.Err
	}

	fmt.Fprintf(e.out, "Transferred %d bytes in %d blocks\n", st.TotalBytes, st.BlockCount)

	return nil
}
