//go:build !rp2040 && !rp2350

package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"datalogger-go/services/journal"
	"datalogger-go/x/timex"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func sessionsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List journaled sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if l.Config.Journal.Path == "" {
				return errors.New("journal disabled (set --journal)")
			}
			j, err := journal.Open(l.Config.Journal.Path, l.Log)
			if err != nil {
				return err
			}
			defer j.Close()

			entries, err := j.Sessions(limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FILE\tSAMPLES\tSKIPPED\tDURATION\tBYTES\tCLOSED\tSTATUS")
			for _, e := range entries {
				status := color.New(color.FgGreen).Sprint("saved")
				if e.Aborted {
					status = color.New(color.FgRed).Sprint("aborted")
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%d\t%s\t%s\n",
					e.File, e.Samples, e.Skipped, timex.MMSS(e.Duration), e.Bytes,
					e.ClosedAt.Format("2006-01-02 15:04:05"), status)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum sessions to list")
	return cmd
}
