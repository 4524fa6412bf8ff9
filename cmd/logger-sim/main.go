//go:build !rp2040 && !rp2350

// logger-sim runs the data logger on the host: a directory stands in for the
// card, stdin for the buttons and the terminal for LED, beeper and display.
package main

import (
	"fmt"
	"os"

	"datalogger-go/services/config"
	"datalogger-go/types"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "logger-sim",
		Short: "Host simulator for the IMU data logger",
		Long: `logger-sim runs the data logger firmware on the host.

The card is a directory (--card-dir): present when it exists, ejected when it
is moved aside. Buttons, card insertion and removal are typed on stdin.`,
		SilenceUsage: true,
	}
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(inspectCmd())
	rootCmd.AddCommand(sessionsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type cfgLoaded struct {
	Config types.Config
	Log    zerolog.Logger
}

func loadConfig(cmd *cobra.Command) (cfgLoaded, error) {
	cfg, err := config.Load(config.Options{Flags: cmd.Flags()})
	if err != nil {
		return cfgLoaded{}, err
	}
	log, err := config.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return cfgLoaded{}, err
	}
	return cfgLoaded{Config: cfg, Log: log}, nil
}
