// Package commands is the taskcal command line.
package commands

import (
	"github.com/spf13/cobra"

	"task-calendar/app/config"
)

var Version = "dev"

type configLoader func() (*config.Config, error)

// NewRootCmd builds the taskcal command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "taskcal",
		Short:         "taskcal - a monthly task calendar with live progress",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./"+config.DefaultConfigFile+" if present)")

	load := func() (*config.Config, error) {
		return config.Load(configPath)
	}

	rootCmd.AddCommand(serveCmd(load))
	rootCmd.AddCommand(tokenCmd(load))
	rootCmd.AddCommand(progressCmd(load))

	return rootCmd
}

// Execute runs the command line with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}
