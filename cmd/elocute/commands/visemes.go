package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrWong99/elocute/internal/analysis"
)

func newVisemesCmd() *cobra.Command {
	var imageDir string
	cmd := &cobra.Command{
		Use:   "visemes <ipa>",
		Short: "Map an IPA string to visemes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vs := analysis.Visemes(args[0])
			if len(vs) == 0 {
				return fmt.Errorf("no known phonemes in %q", args[0])
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PHONEME\tVISEME\tIMAGE\tDESCRIPTION")
			for _, v := range vs {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", v.Phoneme, v.ID, analysis.ImagePath(imageDir, v.ID), v.Description())
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&imageDir, "image-dir", "visemes", "directory of the viseme images")
	return cmd
}
