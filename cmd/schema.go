package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fakeyudi/idlesnap/internal/schema"
)

var schemaOut string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Write the JSON Schema of the persisted documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := schema.Write(schemaOut); err != nil {
			return err
		}
		cmd.Printf("Schema written: %s\n", schemaOut)
		return nil
	},
}

func init() {
	schemaCmd.Flags().StringVar(&schemaOut, "out", "idlesnap.schema.json", "output path")
	rootCmd.AddCommand(schemaCmd)
}
