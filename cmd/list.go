package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Another0Noob/comictag/internal/library"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var listYAML bool

var listCmd = &cobra.Command{
	Use:   "list <dir>",
	Short: "List the archives in a folder and whether they carry metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "scan directories recursively")
	listCmd.Flags().BoolVar(&listYAML, "yaml", false, "print as yaml")
}

func runList(w io.Writer, dir string) error {
	paths, err := library.Scan(dir, recursive)
	if err != nil {
		return err
	}

	infos := make([]library.Info, 0, len(paths))
	for _, p := range paths {
		info, err := library.Describe(p)
		if err != nil {
			return err
		}
		infos = append(infos, info)
	}

	if listYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(infos); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tFORMAT\tMETADATA\tMODIFIED")
	for _, info := range infos {
		meta := "no"
		switch {
		case info.Err != nil:
			meta = "error: " + info.Err.Error()
		case info.HasMetadata:
			meta = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Name, info.Format, meta, info.Modified.Format("2006-01-02 15:04"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d archive(s)\n", len(infos))
	return nil
}
