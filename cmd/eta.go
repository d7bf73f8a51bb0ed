package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/fakeyudi/idlesnap/internal/jsonv"
	"github.com/fakeyudi/idlesnap/internal/report"
)

var etaCmd = &cobra.Command{
	Use:   "eta",
	Short: "Show the current activity with its rates and ETAs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !GetConfig().ETA.Enabled {
			cmd.Println("rate tracking is disabled (eta.enabled)")
		}

		exp, closeStore, err := newExporter(nil)
		if err != nil {
			return err
		}
		defer closeStore()

		res, err := exp.Run(cmd.Context(), true)
		if err != nil {
			return fmt.Errorf("eta: %w", err)
		}
		v, _ := res.Doc.Section("activity")
		data, err := jsonv.Encode(v, false)
		if err != nil {
			return err
		}
		for _, line := range report.ActivityLines(gjson.ParseBytes(data)) {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(etaCmd)
}
