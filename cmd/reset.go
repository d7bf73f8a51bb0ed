package cmd

import (
	"github.com/spf13/cobra"
)

var resetHistory bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the stored export (next export is a cold start), or the history",
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, closeStore, err := newExporter(nil)
		if err != nil {
			return err
		}
		defer closeStore()

		if resetHistory {
			if err := exp.ResetChangesHistory(); err != nil {
				return err
			}
			cmd.Println("Changes history cleared.")
			return nil
		}
		if err := exp.ResetExportData(); err != nil {
			return err
		}
		cmd.Println("Export data cleared.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetHistory, "history", false, "clear the changes history instead of the export data")
	rootCmd.AddCommand(resetCmd)
}
