// Package grid composes images into fixed comparison layouts.
package grid

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	// Decoders beyond the ones imaging registers.
	_ "golang.org/x/image/webp"
)

// Composite pastes images onto a black canvas at the offsets chosen by
// the layout. Images are never scaled; uncovered canvas stays black.
// The result is fully opaque.
func Composite(images []image.Image, layout Layout) (*image.NRGBA, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	if !layout.Accepts(len(images)) {
		return nil, fmt.Errorf("%w: layout %s takes %d, got %d", ErrSlotMismatch, layout, layout.Slots(), len(images))
	}

	sizes := make([]image.Point, len(images))
	for i, img := range images {
		sizes[i] = img.Bounds().Size()
	}

	size, offsets := layout.Arrange(sizes)
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyCanvas, size.X, size.Y)
	}

	canvas := imaging.New(size.X, size.Y, color.Black)
	for i, img := range images {
		b := img.Bounds()
		draw.Draw(canvas, image.Rectangle{Min: offsets[i], Max: offsets[i].Add(b.Size())}, img, b.Min, draw.Src)
	}

	// The canvas is RGB: source transparency does not survive the paste.
	for i := 3; i < len(canvas.Pix); i += 4 {
		canvas.Pix[i] = 0xff
	}

	return canvas, nil
}

// Load opens and decodes one image file
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ImageIOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return nil, &ImageIOError{Op: "decode", Path: path, Err: err}
	}
	return img, nil
}

// Decode reads an image in any registered format
func Decode(r io.Reader) (image.Image, error) {
	return imaging.Decode(r)
}

// DecodeConfig reads only the header of an image in any registered format
func DecodeConfig(r io.Reader) (image.Config, error) {
	cfg, _, err := image.DecodeConfig(r)
	return cfg, err
}

// Encode writes img to w in the format named by ext ("png", ".jpg", ...)
func Encode(w io.Writer, img image.Image, ext string) error {
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return err
	}
	return imaging.Encode(w, img, format)
}

// LoadAll loads every path in order, stopping at the first failure
func LoadAll(paths []string) ([]image.Image, error) {
	images := make([]image.Image, 0, len(paths))
	for _, p := range paths {
		img, err := Load(p)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

// Save writes img to path in the format implied by its extension. The
// file is written to a temporary name in the same directory and renamed
// into place, so a failed save never leaves a partial file behind.
// An existing file at path is replaced.
func Save(img image.Image, path string) error {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return &ImageIOError{Op: "encode", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &ImageIOError{Op: "write", Path: path, Err: err}
	}
	defer os.Remove(tmp.Name())

	if err := imaging.Encode(tmp, img, format); err != nil {
		tmp.Close()
		return &ImageIOError{Op: "encode", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &ImageIOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return &ImageIOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &ImageIOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Compose loads paths, arranges them with layout and writes the result
// to output. Nothing is written unless every input loads.
func Compose(paths []string, layout Layout, output string) (image.Point, error) {
	if len(paths) == 0 {
		return image.Point{}, ErrNoImages
	}
	if !layout.Accepts(len(paths)) {
		return image.Point{}, fmt.Errorf("%w: layout %s takes %d, got %d", ErrSlotMismatch, layout, layout.Slots(), len(paths))
	}

	images, err := LoadAll(paths)
	if err != nil {
		return image.Point{}, err
	}

	canvas, err := Composite(images, layout)
	if err != nil {
		return image.Point{}, err
	}

	if err := Save(canvas, output); err != nil {
		return image.Point{}, err
	}
	return canvas.Bounds().Size(), nil
}

// ComposeGrid2x2 composes exactly four images into a 2x2 grid
func ComposeGrid2x2(paths []string, output string) error {
	_, err := Compose(paths, Grid2x2, output)
	return err
}

// ComposeGridRow composes any number of images side by side
func ComposeGridRow(paths []string, output string) error {
	_, err := Compose(paths, Row, output)
	return err
}
