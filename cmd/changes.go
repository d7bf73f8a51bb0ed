package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/idlesnap/internal/export"
	"github.com/fakeyudi/idlesnap/internal/history"
	"github.com/fakeyudi/idlesnap/internal/report"
)

var (
	changesText bool
	changesKey  string
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Print the latest changelog, or the one stored under --key",
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, closeStore, err := newExporter(nil)
		if err != nil {
			return err
		}
		defer closeStore()

		var entry history.Entry
		if changesKey != "" {
			h, err := exp.ChangesHistory()
			if err != nil {
				return err
			}
			c, ok := h.Get(changesKey)
			if !ok {
				return fmt.Errorf("no changelog under key %q", changesKey)
			}
			entry = history.Entry{Key: changesKey, Changelog: c}
		} else {
			entry, err = exp.ChangesData()
			if errors.Is(err, export.ErrNoExport) {
				cmd.Println("no changes recorded yet")
				return nil
			}
			if err != nil {
				return err
			}
		}

		if changesText {
			fmt.Fprintln(cmd.OutOrStdout(), report.ChangelogText(entry.Changelog))
			return nil
		}
		data, err := json.MarshalIndent(entry.Changelog, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	changesCmd.Flags().BoolVar(&changesText, "text", false, "print newline-joined text instead of JSON")
	changesCmd.Flags().StringVar(&changesKey, "key", "", "history key (export timestamp in ms)")
	rootCmd.AddCommand(changesCmd)
}
