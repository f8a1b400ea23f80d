package cmd

import (
	"fmt"
	"io"

	"github.com/Another0Noob/comictag/internal/archive"
	"github.com/Another0Noob/comictag/internal/comicinfo"
	"github.com/Another0Noob/comictag/internal/report"
	"github.com/spf13/cobra"
)

var (
	showYAML bool
	showXML  bool
)

var showCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Print the metadata of an archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShow(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolVar(&showYAML, "yaml", false, "print as yaml")
	showCmd.Flags().BoolVar(&showXML, "xml", false, "print the ComicInfo.xml that would be written back")
	showCmd.MarkFlagsMutuallyExclusive("yaml", "xml")
}

func runShow(w io.Writer, path string) error {
	h, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer h.Close()

	rec, err := h.ReadMetadata()
	if err != nil {
		return err
	}

	switch {
	case showYAML:
		return report.WriteRecordYAML(w, rec)
	case showXML:
		_, err := w.Write(comicinfo.Serialize(rec))
		return err
	}

	fmt.Fprintf(w, "%s (%s, %d entries)\n", path, h.Format, len(h.OtherEntries()))
	if !h.HasMetadata() {
		fmt.Fprintln(w, "no ComicInfo.xml")
		return nil
	}

	var group comicinfo.Group
	for _, f := range rec.Fields() {
		if f.Group() != group {
			group = f.Group()
			fmt.Fprintf(w, "\n%s\n", group)
		}
		v, _ := rec.Get(f)
		fmt.Fprintf(w, "  %-20s %s\n", f.String()+":", v)
	}
	if extras := rec.Extras(); len(extras) > 0 {
		fmt.Fprintln(w, "\nOther elements")
		for _, e := range extras {
			fmt.Fprintf(w, "  %s\n", e.Name)
		}
	}
	return nil
}
