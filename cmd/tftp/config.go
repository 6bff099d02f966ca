package main

import (
	"fmt"
	"os"

	"github.com/Wa4h1h/go-tftp-client/internal/config"
	"github.com/alecthomas/chroma/quick"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	configCmd.AddCommand(configPathCmd, configViewCmd, configResetCmd)
}

var configCmd = &cobra.Command{
	Use:       "config",
	Short:     "View and reset the stored options",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"path", "view", "reset"},
	Run:       func(cmd *cobra.Command, args []string) {},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Output the path of the config file",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), viper.ConfigFileUsed())
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View the configured options",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.ConfigFileUsed()

		b, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("config file (%s) could not be read: %w", configPath, err)
		}

		if err := quick.Highlight(cmd.OutOrStdout(), string(b), "yaml", "terminal256", "onedark"); err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
		}

		return nil
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset to the default configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.ConfigFileUsed()

		if err := os.WriteFile(configPath, config.ToYaml(config.GetDefault()), 0o600); err != nil {
			return fmt.Errorf("config file (%s) could not be written: %w", configPath, err)
		}

		return nil
	},
}
