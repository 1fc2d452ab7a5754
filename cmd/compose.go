package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/gridcompose/internal/grid"
)

var composeCmd = &cobra.Command{
	Use:   "compose [flags] IMAGE...",
	Short: "Compose the images given on the command line",
	Long: `Compose pastes the given images, in order, into one layout and writes the result.

The output format follows the output file's extension (png, jpg, gif, tif, bmp).

Examples:
  gridcompose compose -l 2x2 -o fov60compare.png pinhole60.png thinlens60.png panini60.png fisheye60.png
  gridcompose compose -l row -o strip.png *.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompose,
}

func init() {
	rootCmd.AddCommand(composeCmd)

	composeCmd.Flags().StringP("layout", "l", grid.Row.Name(), "layout (see 'gridcompose layouts')")
	composeCmd.Flags().StringP("output", "o", "", "output file (required)")
	composeCmd.MarkFlagRequired("output")
}

func runCompose(cmd *cobra.Command, args []string) error {
	job := grid.Job{
		Name:   "compose",
		Layout: viper.GetString("compose.layout"),
		Inputs: args,
		Output: viper.GetString("compose.output"),
	}
	if err := job.Validate(); err != nil {
		return err
	}

	report, err := newRunner().Run(cmd.Context(), []grid.Job{job})
	if err != nil {
		return err
	}

	res := report.Composed[0]
	fmt.Fprintf(cmd.ErrOrStderr(), "Output: %s (%dx%d)\n", res.Output, res.Width, res.Height)
	return nil
}
