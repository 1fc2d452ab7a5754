package grid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
)

// Job is one composition: ordered inputs, a layout and an output file
type Job struct {
	Name   string   `mapstructure:"name"`
	Layout string   `mapstructure:"layout"`
	Inputs []string `mapstructure:"inputs"`
	Output string   `mapstructure:"output"`
}

// DefaultJobs returns the built-in camera comparison compositions
func DefaultJobs() []Job {
	return []Job{
		{
			Name:   "fov60",
			Layout: Grid2x2.Name(),
			Inputs: []string{"pinhole60.png", "thinlens60.png", "panini60.png", "fisheye60.png"},
			Output: "fov60compare.png",
		},
		{
			Name:   "fov90",
			Layout: Grid2x2.Name(),
			Inputs: []string{"pinhole90.png", "thinlens90.png", "panini90.png", "fisheye90.png"},
			Output: "fov90compare.png",
		},
		{
			Name:   "orthographic",
			Layout: Row1x2.Name(),
			Inputs: []string{"pinhole_fov90.png", "orthographic_6.png"},
			Output: "orthographic_compare.png",
		},
	}
}

// Validate checks the job without touching the filesystem
func (j Job) Validate() error {
	if j.Output == "" {
		return fmt.Errorf("job %s: output is required", j.label())
	}
	layout, err := ParseLayout(j.Layout)
	if err != nil {
		return fmt.Errorf("job %s: %w", j.label(), err)
	}
	if len(j.Inputs) == 0 {
		return fmt.Errorf("job %s: %w", j.label(), ErrNoImages)
	}
	if !layout.Accepts(len(j.Inputs)) {
		return fmt.Errorf("job %s: %w: layout %s takes %d, got %d", j.label(), ErrSlotMismatch, layout, layout.Slots(), len(j.Inputs))
	}
	return nil
}

func (j Job) label() string {
	if j.Name != "" {
		return j.Name
	}
	return j.Output
}

// Report summarizes a run
type Report struct {
	Composed []Result
	Total    int
}

// Result describes one written composition
type Result struct {
	Name   string
	Output string
	Width  int
	Height int
}

// Runner executes jobs one after another
type Runner struct {
	// Dir is the base for relative input and output paths. Empty means the working directory.
	Dir string

	// KeepGoing runs every job even after a failure and reports all
	// failures as a *BatchError. Otherwise the first failure stops the run.
	KeepGoing bool

	Logger *slog.Logger
}

// Run composes every job in order
func (r *Runner) Run(ctx context.Context, jobs []Job) (*Report, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	report := &Report{Total: len(jobs)}
	batch := &BatchError{Total: len(jobs)}

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res, err := r.runOne(job)
		if err != nil {
			logger.Error("composition failed", "job", job.label(), "error", err)
			if !r.KeepGoing {
				return report, err
			}
			batch.Failed = append(batch.Failed, FailedJob{Name: job.label(), Output: job.Output, Err: err})
			continue
		}

		logger.Info("composed", "job", res.Name, "layout", job.Layout, "output", res.Output,
			"width", res.Width, "height", res.Height)
		report.Composed = append(report.Composed, res)
		batch.Succeeded = append(batch.Succeeded, res.Name)
	}

	if len(batch.Failed) > 0 {
		return report, batch
	}
	return report, nil
}

func (r *Runner) runOne(job Job) (Result, error) {
	if err := job.Validate(); err != nil {
		return Result{}, err
	}
	layout, _ := ParseLayout(job.Layout)

	inputs := make([]string, len(job.Inputs))
	for i, p := range job.Inputs {
		inputs[i] = r.resolve(p)
	}
	output := r.resolve(job.Output)

	size, err := Compose(inputs, layout, output)
	if err != nil {
		return Result{}, fmt.Errorf("job %s: %w", job.label(), err)
	}
	return Result{Name: job.label(), Output: output, Width: size.X, Height: size.Y}, nil
}

func (r *Runner) resolve(p string) string {
	if r.Dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(r.Dir, p)
}

// IsImageIO reports whether err was caused by reading or writing an image file
func IsImageIO(err error) bool {
	var ioErr *ImageIOError
	return errors.As(err, &ioErr)
}
