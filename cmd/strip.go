package cmd

import (
	"errors"
	"os"
	"os/signal"

	"github.com/Another0Noob/comictag/internal/library"
	"github.com/spf13/cobra"
)

var stripConfirmed bool

var stripCmd = &cobra.Command{
	Use:   "strip [paths...]",
	Short: "Remove ComicInfo.xml from archives",
	Long: `Remove the ComicInfo.xml entry from every archive given. All other entries
are kept. .cbr files are converted to .cbz without metadata.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStrip(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(stripCmd)

	stripCmd.Flags().BoolVarP(&stripConfirmed, "yes", "y", false, "confirm that metadata should be deleted")
	stripCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "scan directories recursively")
	stripCmd.Flags().StringVar(&reportFile, "report", "", "write a yaml report of every file to this path")
	stripCmd.Flags().BoolVar(&replaceExisting, "replace-existing", false, "let a converted .cbr overwrite an existing .cbz")
}

func runStrip(cmd *cobra.Command, args []string) error {
	if !stripConfirmed {
		return errors.New("this deletes all metadata from the selected files; rerun with --yes")
	}

	paths, err := library.Expand(args, recursive)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res := newDriver(cmd).Strip(ctx, paths)
	return finish(ctx, cmd, res, "deleted metadata from")
}
