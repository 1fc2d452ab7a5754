package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kiesman99/gridcompose/internal/grid"
)

var layoutsCmd = &cobra.Command{
	Use:   "layouts",
	Short: "List the available layouts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tSLOTS\tDESCRIPTION")
		for _, l := range grid.Layouts() {
			slots := "any"
			if l.Slots() > 0 {
				slots = fmt.Sprint(l.Slots())
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", l.Name(), slots, l.Description())
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(layoutsCmd)
}
