package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/idlesnap/internal/collector"
	"github.com/fakeyudi/idlesnap/internal/export"
)

var watchFullEvery int

// cycler runs a full cycle every fullEvery dump writes and a quick one
// otherwise.
type cycler struct {
	exp       *export.Exporter
	fullEvery int
	writes    int
	report    func(res *export.Result, err error)
}

func (c *cycler) onChange(ctx context.Context) {
	c.writes++
	full := c.fullEvery <= 1 || c.writes%c.fullEvery == 0
	c.report(c.exp.Run(ctx, !full))
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run an export cycle every time the bridge rewrites the state dump",
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, closeStore, err := newExporter(nil)
		if err != nil {
			return err
		}
		defer closeStore()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		c := &cycler{exp: exp, fullEvery: watchFullEvery, report: func(res *export.Result, err error) {
			switch {
			case err != nil:
				logger.Warn("export cycle failed", "err", err)
			case res.Cached:
			case res.Changelog != nil:
				cmd.Printf("%s: %d changes\n", res.Changelog.Header, len(res.Changelog.Changes))
			default:
				cmd.Printf("%s export at %d\n", kindOf(res), res.Doc.Meta.Timestamp)
			}
		}}
		c.report(exp.Run(ctx, false))

		path := GetConfig().StatePath
		cmd.Printf("Watching %s (Ctrl-C to stop)\n", path)
		return collector.Watch(ctx, path, logger, func() { c.onChange(ctx) })
	},
}

func kindOf(res *export.Result) string {
	if res.Doc.Meta.Full {
		return "full"
	}
	return "quick"
}

func init() {
	watchCmd.Flags().IntVar(&watchFullEvery, "full-every", 10, "run a full cycle every N dump writes, quick cycles otherwise")
	rootCmd.AddCommand(watchCmd)
}
