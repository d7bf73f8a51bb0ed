package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/idlesnap/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure idlesnap (re-run anytime to edit settings)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(cmd)
	},
}

// runSetup runs the interactive setup wizard and writes the global config.
func runSetup(cmd *cobra.Command) error {
	path, err := config.GlobalPath()
	if err != nil {
		return err
	}

	existing := config.Defaults()
	if config.GlobalExists() {
		if c, err := config.LoadFiles(path, ""); err == nil {
			existing = c
		}
	}

	cfg, err := config.RunSetup(cmd.InOrStdin(), cmd.OutOrStdout(), existing)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}
	if err := config.SaveSetup(path, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	cmd.Printf("  Config saved to %s\n", path)
	cmd.Println("  Run 'idlesnap export' once the bridge has written a state dump.")
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
