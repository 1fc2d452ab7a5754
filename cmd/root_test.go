package cmd

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiesman99/gridcompose/internal/grid"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewNRGBA(image.Rect(0, 0, w, h))))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// resetFlags puts every flag back to its default; cobra keeps parsed
// values and the Changed mark between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestRoot_RunsConfiguredJobs(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "a.png"), 30, 20)
	writeTestPNG(t, filepath.Join(dir, "b.png"), 40, 10)

	cfg := filepath.Join(dir, "gridcompose.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(fmt.Sprintf(`dir: %s
log-level: error
jobs:
  - name: pair
    layout: 1x2
    inputs: [a.png, b.png]
    output: pair.png
`, dir)), 0o644))

	out, err := execute(t, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Composed 1 of 1 images")

	f, err := os.Open(filepath.Join(dir, "pair.png"))
	require.NoError(t, err)
	defer f.Close()
	conf, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 70, conf.Width)
	assert.Equal(t, 20, conf.Height)
}

func TestCompose_Command(t *testing.T) {
	dir := t.TempDir()
	var inputs []string
	for _, name := range []string{"a.png", "b.png", "c.png", "d.png"} {
		p := filepath.Join(dir, name)
		writeTestPNG(t, p, 10, 10)
		inputs = append(inputs, p)
	}
	output := filepath.Join(dir, "grid.png")

	out, err := execute(t, append([]string{"compose", "-l", "2x2", "-o", output}, inputs...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "(20x20)")
	assert.FileExists(t, output)
}

func TestCompose_CommandSlotMismatch(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "grid.png")

	_, err := execute(t, "compose", "-l", "1x3", "-o", output, "x.png", "y.png")
	require.Error(t, err)
	assert.NoFileExists(t, output)
}

func TestLayouts_Command(t *testing.T) {
	out, err := execute(t, "layouts")
	require.NoError(t, err)
	assert.Contains(t, out, "2x2")
	assert.Contains(t, out, "row")
	assert.Contains(t, out, "any")
}

func TestExecute_DoesNotLeakConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "gridcompose.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`dir: /nowhere
keep-going: true
jobs:
  - name: broken
    layout: 2x2
    inputs: [a.png]
    output: out.png
`), 0o644))

	_, err := execute(t, "--config", cfg)
	require.Error(t, err, "the configured job is invalid")
	assert.True(t, viper.IsSet("jobs"))

	_, err = execute(t, "layouts")
	require.NoError(t, err)
	assert.False(t, viper.IsSet("jobs"))
	assert.Empty(t, viper.GetString("dir"))
	assert.False(t, viper.GetBool("keep-going"))
	assert.Empty(t, cfgFile)

	jobs, err := configuredJobs()
	require.NoError(t, err)
	assert.Equal(t, grid.DefaultJobs(), jobs)
}
