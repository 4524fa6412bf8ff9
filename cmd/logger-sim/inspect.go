//go:build !rp2040 && !rp2350

package main

import (
	"fmt"
	"io"
	"os"

	"datalogger-go/services/inspect"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.csv>...",
		Short: "Summarize recorded session files",
		Long: `Summarize session files: samples, duration at --sample-rate and peak
readings in g and degrees per second. A cut-off last line, left by a power
loss between checkpoints, is reported but not an error.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				rep, err := inspect.Summarize(f, l.Config.Session.SampleRateHz)
				f.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				printReport(cmd.OutOrStdout(), path, rep)
			}
			return nil
		},
	}
}

func printReport(w io.Writer, path string, rep inspect.Report) {
	bold := color.New(color.Bold)
	bold.Fprintln(w, path)
	fmt.Fprintf(w, "  samples   %d\n", rep.Samples)
	fmt.Fprintf(w, "  duration  %.1fs\n", rep.Duration.Seconds())
	fmt.Fprintf(w, "  accel g   x=%.3f y=%.3f z=%.3f\n", rep.PeakAccelG[0], rep.PeakAccelG[1], rep.PeakAccelG[2])
	fmt.Fprintf(w, "  gyro °/s  x=%.1f y=%.1f z=%.1f\n", rep.PeakGyroDPS[0], rep.PeakGyroDPS[1], rep.PeakGyroDPS[2])
	if rep.Truncated {
		fmt.Fprintf(w, "  %s\n", color.New(color.FgYellow).Sprint("last line truncated"))
	}
}
