package grid

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownLayout = errors.New("unknown layout")
	ErrSlotMismatch  = errors.New("image count does not match layout slots")
	ErrNoImages      = errors.New("no images to compose")
	ErrEmptyCanvas   = errors.New("composed canvas has zero area")
)

// ImageIOError reports a failure reading or writing an image file
type ImageIOError struct {
	Op   string // open, decode, encode or write
	Path string
	Err  error
}

func (e *ImageIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ImageIOError) Unwrap() error {
	return e.Err
}

// BatchError collects the failures of a runner that kept going
type BatchError struct {
	Failed    []FailedJob
	Succeeded []string
	Total     int
}

// FailedJob represents a single composition that did not produce its output
type FailedJob struct {
	Name   string
	Output string
	Err    error
}

func (e *BatchError) Error() string {
	names := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		names[i] = f.Name
	}
	return fmt.Sprintf("%d of %d compositions failed: %s", len(e.Failed), e.Total, strings.Join(names, ", "))
}

// Unwrap exposes the individual job errors to errors.Is and errors.As
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f.Err
	}
	return errs
}
