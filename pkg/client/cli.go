package client

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
)

const prompt = "tftp> "

type Cli struct {
	l          *zap.SugaredLogger
	tftpClient Connector
	in         io.Reader
	out        io.Writer
}

func NewCli(l *zap.SugaredLogger, tftpClient Connector, in io.Reader, out io.Writer) *Cli {
	return &Cli{l: l, tftpClient: tftpClient, in: in, out: out}
}

// Read evaluates commands line by line until quit, end of input or ctx is done.
func (c *Cli) Read(ctx context.Context) error {
	scanner := bufio.NewScanner(c.in)
	evaluator := NewEvaluator(c.l, c.tftpClient, c.out)

	fmt.Fprint(c.out, prompt)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		done, err := evaluator.evaluate(ctx, scanner.Text())
		if err != nil {
			fmt.Fprintf(c.out, "%s\n", err.Error())
		}

		if done {
			return nil
		}

		fmt.Fprint(c.out, prompt)
	}

	return scanner.Err()
}
