package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/gridcompose/internal/grid"
)

const version = "1.0.0"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gridcompose",
	Short: "Compose screenshots into comparison grids",
	Long: `gridcompose loads screenshots from disk and pastes them into comparison
layouts (2x2 grids and side-by-side rows), writing each result as a new image.

Without a subcommand every configured job runs in order. With no config the
built-in camera comparisons are composed in the working directory:

  fov60compare.png          2x2  pinhole60 thinlens60 panini60 fisheye60
  fov90compare.png          2x2  pinhole90 thinlens90 panini90 fisheye90
  orthographic_compare.png  1x2  pinhole_fov90 orthographic_6

Examples:
  # Compose the built-in comparisons
  gridcompose

  # Compose them from another directory, continuing past failures
  gridcompose --dir docs/screenshots --keep-going

  # Ad-hoc 2x2 grid
  gridcompose compose -l 2x2 -o grid.png a.png b.png c.png d.png

  # Start HTTP server
  gridcompose serve --port 8080`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runJobs,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(bindFlags, initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gridcompose.yaml)")
	rootCmd.PersistentFlags().StringP("dir", "C", "", "base directory for relative image paths")
	rootCmd.PersistentFlags().BoolP("keep-going", "k", false, "run every job even if one fails")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug|info|warn|error)")
}

// bindFlags ties every command's flags to viper keys. It runs on each
// execution so a reset viper picks the bindings up again.
func bindFlags() {
	viper.BindPFlag("dir", rootCmd.PersistentFlags().Lookup("dir"))
	viper.BindPFlag("keep-going", rootCmd.PersistentFlags().Lookup("keep-going"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.BindPFlag("compose.layout", composeCmd.Flags().Lookup("layout"))
	viper.BindPFlag("compose.output", composeCmd.Flags().Lookup("output"))

	viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.timeout", serveCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("server.max-upload", serveCmd.Flags().Lookup("max-upload"))
	viper.BindPFlag("server.max-pixels", serveCmd.Flags().Lookup("max-pixels"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".gridcompose" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".gridcompose")
	}

	viper.SetEnvPrefix("gridcompose")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		newLogger().Debug("using config file", "path", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		cobra.CheckErr(fmt.Errorf("reading config %s: %w", cfgFile, err))
	}
}

// newLogger builds the stderr logger at the configured level
func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newRunner() *grid.Runner {
	return &grid.Runner{
		Dir:       viper.GetString("dir"),
		KeepGoing: viper.GetBool("keep-going"),
		Logger:    newLogger(),
	}
}

// configuredJobs returns the jobs from config, or the built-in ones
func configuredJobs() ([]grid.Job, error) {
	if !viper.IsSet("jobs") {
		return grid.DefaultJobs(), nil
	}
	var jobs []grid.Job
	if err := viper.UnmarshalKey("jobs", &jobs); err != nil {
		return nil, fmt.Errorf("invalid jobs in config: %w", err)
	}
	for _, j := range jobs {
		if err := j.Validate(); err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

func runJobs(cmd *cobra.Command, args []string) error {
	jobs, err := configuredJobs()
	if err != nil {
		return err
	}

	report, err := newRunner().Run(cmd.Context(), jobs)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Composed %d of %d images\n", len(report.Composed), report.Total)
	return nil
}
