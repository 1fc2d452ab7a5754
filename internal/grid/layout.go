package grid

import (
	"fmt"
	"image"
	"sort"
)

// Arranger maps the ordered input sizes to the canvas size and the
// top-left offset of every slot. It must be a pure function.
type Arranger func(sizes []image.Point) (canvas image.Point, offsets []image.Point)

// Layout is a fixed arrangement pattern
type Layout struct {
	name    string
	slots   int // 0 accepts any number of images
	arrange Arranger
	desc    string
}

// Name returns the layout's lookup name
func (l Layout) Name() string { return l.name }

// Slots returns the number of images the layout takes, or 0 if it takes any number
func (l Layout) Slots() int { return l.slots }

// Description returns a human readable summary
func (l Layout) Description() string { return l.desc }

// Arrange computes the canvas size and slot offsets for the given sizes
func (l Layout) Arrange(sizes []image.Point) (image.Point, []image.Point) {
	return l.arrange(sizes)
}

// Accepts reports whether n images fill the layout
func (l Layout) Accepts(n int) bool {
	if n == 0 {
		return false
	}
	return l.slots == 0 || l.slots == n
}

func (l Layout) String() string { return l.name }

var (
	// Grid2x2 places four images in equal cells sized by the largest width and height.
	Grid2x2 = Layout{name: "2x2", slots: 4, arrange: cells(2), desc: "2x2 grid, cells sized to the largest image"}

	// Row1x2 places two images side by side.
	Row1x2 = Layout{name: "1x2", slots: 2, arrange: row, desc: "two images side by side"}

	// Row1x3 places three images side by side.
	Row1x3 = Layout{name: "1x3", slots: 3, arrange: row, desc: "three images side by side"}

	// Row places any number of images side by side.
	Row = Layout{name: "row", arrange: row, desc: "any number of images side by side"}
)

var layouts = map[string]Layout{
	Grid2x2.name: Grid2x2,
	Row1x2.name:  Row1x2,
	Row1x3.name:  Row1x3,
	Row.name:     Row,
}

// ParseLayout looks up a layout by name
func ParseLayout(name string) (Layout, error) {
	l, ok := layouts[name]
	if !ok {
		return Layout{}, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
	}
	return l, nil
}

// Layouts returns all known layouts sorted by name
func Layouts() []Layout {
	out := make([]Layout, 0, len(layouts))
	for _, l := range layouts {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// cells returns an arranger for a grid with the given number of columns.
// Every cell is as large as the largest image; images fill it row by row.
func cells(cols int) Arranger {
	return func(sizes []image.Point) (image.Point, []image.Point) {
		var cell image.Point
		for _, s := range sizes {
			cell.X = max(cell.X, s.X)
			cell.Y = max(cell.Y, s.Y)
		}

		rows := (len(sizes) + cols - 1) / cols
		offsets := make([]image.Point, len(sizes))
		for i := range sizes {
			offsets[i] = image.Pt((i%cols)*cell.X, (i/cols)*cell.Y)
		}
		return image.Pt(cols*cell.X, rows*cell.Y), offsets
	}
}

// row places images left to right, top aligned
func row(sizes []image.Point) (image.Point, []image.Point) {
	var canvas image.Point
	offsets := make([]image.Point, len(sizes))
	for i, s := range sizes {
		offsets[i] = image.Pt(canvas.X, 0)
		canvas.X += s.X
		canvas.Y = max(canvas.Y, s.Y)
	}
	return canvas, offsets
}
