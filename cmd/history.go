package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/idlesnap/internal/report"
)

var historyExport string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the changes history, or write it to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, closeStore, err := newExporter(nil)
		if err != nil {
			return err
		}
		defer closeStore()

		h, err := exp.ChangesHistory()
		if err != nil {
			return err
		}

		if historyExport != "" {
			data, err := report.HistoryJSON(h)
			if err != nil {
				return err
			}
			if err := os.WriteFile(historyExport, data, 0o644); err != nil {
				return fmt.Errorf("write history: %w", err)
			}
			cmd.Printf("History written: %s (%d entries)\n", historyExport, h.Len())
			return nil
		}

		if h.Len() == 0 {
			cmd.Println("history is empty")
			return nil
		}
		out := cmd.OutOrStdout()
		for _, e := range h.Entries() {
			when := e.Key
			if ms, err := strconv.ParseInt(e.Key, 10, 64); err == nil {
				when = humanize.Time(time.UnixMilli(ms))
			}
			fmt.Fprintf(out, "%s  %s  %d changes (%s)\n", e.Key, e.Changelog.Header, len(e.Changelog.Changes), when)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyExport, "export", "", "write the aggregate history JSON to this file")
	rootCmd.AddCommand(historyCmd)
}
