package main

import (
	"fmt"
	"os"

	"github.com/Wa4h1h/go-tftp-client/internal/config"
	"github.com/Wa4h1h/go-tftp-client/pkg/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var logLevel = utils.GetEnv[string]("TFTP_LOG_LEVEL", "", false)

// rootCmd is the top level `tftp` command the subcommands hang off.
var rootCmd = &cobra.Command{
	Use:           "tftp",
	Short:         "A TFTP (RFC 1350) client",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.IntP("port", "p", 0, "server port")
	flags.String("local-host", "", "local address to bind")
	flags.Int("local-port", 0, "local port to bind, random when 0")
	flags.IntP("blksize", "b", 0, "block size in bytes")
	flags.DurationP("timeout", "t", 0, "time to wait for each reply")
	flags.IntP("retries", "r", 0, "retransmissions before giving up")
	flags.BoolP("trace", "v", false, "log every packet sent and received")

	for _, name := range []string{"port", "local-host", "local-port", "blksize", "timeout", "retries", "trace"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(getCmd, putCmd, shellCmd, configCmd)
}

// initConfig loads ~/.config/tftp/config.yml, creating it on first use.
func initConfig() {
	if err := config.Init(viper.GetViper()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func settings() (config.Config, *zap.SugaredLogger, error) {
	c, err := config.Load(viper.GetViper())
	if err != nil {
		return c, nil, err
	}

	level := c.LogLevel
	if logLevel != "" {
		level = logLevel
	}

	if c.Trace {
		level = "debug"
	}

	return c, utils.NewLogger(level).Sugar(), nil
}
