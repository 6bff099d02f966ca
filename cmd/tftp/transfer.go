package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Wa4h1h/go-tftp-client/pkg/client"
	"github.com/Wa4h1h/go-tftp-client/pkg/transfer"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <host> <remote> [local]",
	Short: "Download a file",
	Long:  "Downloads <remote> from <host>. The file is written to [local], or to the base name of <remote> when omitted.",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		local := ""
		if len(args) == 3 {
			local = args[2]
		}

		return run(cmd, args[0], func(ctx context.Context, c *client.Client) (*transfer.Status, error) {
			return c.Get(ctx, args[1], local)
		})
	},
}

var putCmd = &cobra.Command{
	Use:   "put <host> <local> [remote]",
	Short: "Upload a file",
	Long: "Uploads <local> to <host> as [remote], or under the base name of <local> when omitted.\n" +
		"A <local> of the form " + transfer.LiteralPrefix + "<content> uploads <content> itself.",
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		remote := ""
		if len(args) == 3 {
			remote = args[2]
		}

		return run(cmd, args[0], func(ctx context.Context, c *client.Client) (*transfer.Status, error) {
			return c.Put(ctx, args[1], remote)
		})
	},
}

func run(cmd *cobra.Command, host string,
	do func(ctx context.Context, c *client.Client) (*transfer.Status, error),
) error {
	s, l, err := settings()
	if err != nil {
		return err
	}

	defer func() { _ = l.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	c := client.NewClient(l, s.Transfer())
	if err := c.Connect(host, s.Port); err != nil {
		return err
	}

	st, err := do(ctx, c)
	if err != nil {
		return err
	}

	if !st.Success() {
		return st.Err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes in %d blocks\n", st.RemoteFile, st.TotalBytes, st.BlockCount)

	return nil
}
