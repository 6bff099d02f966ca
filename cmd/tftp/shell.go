package main

import (
	"os"
	"os/signal"
	"strconv"

	"github.com/Wa4h1h/go-tftp-client/pkg/client"
	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell [host [port]]",
	Short: "Start an interactive session",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, l, err := settings()
		if err != nil {
			return err
		}

		defer func() { _ = l.Sync() }()

		c := client.NewClient(l, s.Transfer())

		if len(args) > 0 {
			port := s.Port

			if len(args) == 2 {
				if port, err = strconv.Atoi(args[1]); err != nil {
					return err
				}
			}

			if err := c.Connect(args[0], port); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return client.NewCli(l, c, cmd.InOrStdin(), cmd.OutOrStdout()).Read(ctx)
	},
}
