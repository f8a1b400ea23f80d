package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Another0Noob/comictag/internal/comicinfo"
	"github.com/spf13/cobra"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the metadata fields accepted by --set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFields(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
}

func runFields(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	var group comicinfo.Group
	for _, f := range comicinfo.Fields() {
		if f.Group() != group {
			group = f.Group()
			fmt.Fprintf(tw, "\n%s\n", group)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", f, f.Kind(), strings.Join(f.Aliases(), ", "))
	}
	return tw.Flush()
}
