package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/idlesnap/internal/report"
)

var (
	exportQuick  bool
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run an export cycle and write the snapshot to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, closeStore, err := newExporter(nil)
		if err != nil {
			return err
		}
		defer closeStore()

		res, err := exp.Run(cmd.Context(), exportQuick)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}

		cfg := GetConfig()

		// Select renderer based on --format flag or config DefaultFormat.
		format := exportFormat
		if format == "" {
			format = cfg.DefaultFormat
		}
		renderer := report.RendererFor(format)
		data, err := renderer.Render(res.Doc)
		if err != nil {
			return fmt.Errorf("render export: %w", err)
		}

		outputDir := exportOut
		if outputDir == "" {
			outputDir = cfg.OutputDir
		}
		if outputDir == "" {
			outputDir = "."
		}
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		outputPath := filepath.Join(outputDir, report.Filename(time.UnixMilli(res.Doc.Meta.Timestamp), renderer))
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}

		switch {
		case res.Cached:
			cmd.Printf("Quick export reused (within %s). Output: %s\n", cfg.QuickBuffer, outputPath)
		case res.Changelog != nil:
			cmd.Printf("Export written: %s (%d changes)\n", outputPath, len(res.Changelog.Changes))
		default:
			cmd.Printf("Export written: %s\n", outputPath)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportQuick, "quick", false, "collect only the always-on sections")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "output format: markdown or json (overrides config)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output directory (overrides config)")
	rootCmd.AddCommand(exportCmd)
}
