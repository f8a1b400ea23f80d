package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/Another0Noob/comictag/internal/archive"
	"github.com/Another0Noob/comictag/internal/batch"
	"github.com/Another0Noob/comictag/internal/comicinfo"
	"github.com/Another0Noob/comictag/internal/library"
	"github.com/Another0Noob/comictag/internal/merge"
	"github.com/Another0Noob/comictag/internal/overrides"
	"github.com/Another0Noob/comictag/internal/report"
	"github.com/spf13/cobra"
)

var errNoOverrides = errors.New("nothing to apply: pass --set key=value or add a [metadata] section to the config")

var (
	setFlags        []string
	reportFile      string
	recursive       bool
	throttle        float64
	replaceExisting bool
	deleteRar       bool
)

var applyCmd = &cobra.Command{
	Use:   "apply [paths...]",
	Short: "Merge metadata into archives",
	Long: `Merge metadata into every archive given. Directories are scanned for .cbz
and .cbr files. Fields not set with --set or in the config keep their
current value in each file; an empty value leaves the field alone.

  comictag apply --set series=Saga --set year=2012 ~/comics/saga`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApply(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringArrayVarP(&setFlags, "set", "s", nil, "field=value to write (repeatable)")
	applyCmd.Flags().StringVar(&reportFile, "report", "", "write a yaml report of every file to this path")
	applyCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "scan directories recursively")
	applyCmd.Flags().Float64Var(&throttle, "throttle", 0, "maximum files per second (0 = config value)")
	applyCmd.Flags().BoolVar(&replaceExisting, "replace-existing", false, "let a converted .cbr overwrite an existing .cbz")
	applyCmd.Flags().BoolVar(&deleteRar, "delete-rar", false, "delete each .cbr once its .cbz is written")
}

func runApply(cmd *cobra.Command, args []string) error {
	flagOverrides, err := overrides.Parse(setFlags)
	if err != nil {
		return err
	}
	over := overrides.Combine(cfg.Metadata, flagOverrides)
	if len(merge.Effective(over)) == 0 {
		return errNoOverrides
	}

	paths, err := library.Expand(args, recursive)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no .cbz or .cbr files found")
	}

	out := cmd.OutOrStdout()
	printOverrides(out, over)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res := newDriver(cmd).Run(ctx, paths, over)
	return finish(ctx, cmd, res, "updated")
}

// newDriver builds a batch driver from the config file and the command's flags.
func newDriver(cmd *cobra.Command) *batch.Driver {
	rate := cfg.Batch.Throttle
	if cmd.Flags().Changed("throttle") {
		rate = throttle
	}
	return batch.New(
		batch.WithWriter(archive.NewWriter(archive.WithReplaceExisting(cfg.Batch.ReplaceExisting || replaceExisting))),
		batch.WithThrottle(rate),
		batch.WithDeleteConvertedRar(cfg.Batch.DeleteConvertedRar || deleteRar),
		batch.WithProgress(progressPrinter(cmd.ErrOrStderr())),
	)
}

func progressPrinter(w io.Writer) func(batch.Progress) {
	return func(p batch.Progress) {
		o := p.Outcome
		line := fmt.Sprintf("[%d/%d] %-7s %s", p.Index+1, p.Total, o.Status, o.Path)
		if o.Output != "" && o.Output != o.Path {
			line += " -> " + o.Output
		}
		fmt.Fprintln(w, line)
	}
}

func printOverrides(w io.Writer, over comicinfo.Record) {
	fmt.Fprintln(w, "--- Writing fields ---")
	for _, f := range merge.Effective(over) {
		v, _ := over.Get(f)
		fmt.Fprintf(w, "  %s = %s\n", f, v)
	}
}

// finish prints the summary, writes the optional report and turns failures
// into a non-zero exit.
func finish(ctx context.Context, cmd *cobra.Command, res batch.Result, verb string) error {
	fmt.Fprint(cmd.OutOrStdout(), report.Summary(res, verb))

	if reportFile != "" {
		f, err := os.Create(reportFile)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		if err := report.WriteYAML(f, res); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close report: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("interrupted: %w", err)
	}
	if n := res.Failed(); n > 0 {
		return fmt.Errorf("%d of %d file(s) failed", n, len(res.Outcomes))
	}
	return nil
}
