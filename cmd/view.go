package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/idlesnap/internal/report"
	"github.com/fakeyudi/idlesnap/internal/snapshot"
	"github.com/fakeyudi/idlesnap/internal/tui"
)

var plainOutput bool

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "View an export file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}

		doc, err := report.ParserFor(path).Parse(data)
		if err != nil {
			return err
		}

		if plainOutput || !term.IsTerminal(os.Stdout.Fd()) {
			printExport(cmd.OutOrStdout(), doc)
			return nil
		}
		return tui.Run(doc, nil, filepath.Base(path))
	},
}

// printExport writes a plain-text summary of doc to w.
func printExport(w io.Writer, doc *snapshot.Document) {
	s := report.Summarize(doc)

	fmt.Fprintln(w, "## Summary")
	fmt.Fprintf(w, "  Character: %s\n", s.Character)
	if s.GameMode != "" {
		fmt.Fprintf(w, "  Mode:      %s\n", s.GameMode)
	}
	fmt.Fprintf(w, "  Game:      %s\n", s.GameVersion)
	fmt.Fprintf(w, "  GP:        %s\n", humanize.Commaf(s.GP))
	fmt.Fprintf(w, "  Exported:  %s\n", s.Exported.Format(time.DateTime))
	kind := "quick"
	if s.Full {
		kind = "full"
	}
	fmt.Fprintf(w, "  Kind:      %s (%d ms)\n", kind, s.ProcessMs)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Activity")
	for _, line := range s.Activity {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Sections")
	if len(s.Sections) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, sec := range s.Sections {
		if !sec.Available {
			fmt.Fprintf(w, "  %-12s unavailable\n", sec.Name)
			continue
		}
		fmt.Fprintf(w, "  %-12s %d entries\n", sec.Name, sec.Entries)
	}
	fmt.Fprintln(w)
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain text output instead of TUI")
	rootCmd.AddCommand(viewCmd)
}
