package markov

import (
	"fmt"
	"image"
)

var adjacent = [4]image.Point{
	{X: -1, Y: 0},
	{X: 0, Y: -1},
	{X: 1, Y: 0},
	{X: 0, Y: 1},
}

// Grid is a row-major rectangle of colors. The color at (x, y) is
// Pix[x+y*Width].
type Grid struct {
	Width, Height int
	Pix           []Color
}

// NewGrid allocates a black grid of the given size.
func NewGrid(width, height int) (Grid, error) {
	if width <= 0 || height <= 0 {
		return Grid{}, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return Grid{
		Width:  width,
		Height: height,
		Pix:    make([]Color, width*height),
	}, nil
}

// At returns the color at (x, y).
func (g Grid) At(x, y int) Color {
	return g.Pix[x+y*g.Width]
}

// Set stores c at (x, y).
func (g Grid) Set(x, y int, c Color) {
	g.Pix[x+y*g.Width] = c
}

// InBounds reports whether (x, y) lies inside the grid.
func (g Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

func (g Grid) validate() error {
	if g.Width <= 0 || g.Height <= 0 || len(g.Pix) < g.Width*g.Height {
		return fmt.Errorf("%w: %dx%d with %d pixels", ErrInvalidDimensions, g.Width, g.Height, len(g.Pix))
	}
	return nil
}

// GridFromImage copies img into a Grid, dropping alpha.
func GridFromImage(img image.Image) (Grid, error) {
	b := img.Bounds()
	g, err := NewGrid(b.Dx(), b.Dy())
	if err != nil {
		return Grid{}, err
	}

	switch src := img.(type) {
	case *image.NRGBA:
		for y := range g.Height {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := range g.Width {
				i := x * 4
				g.Set(x, y, Color{R: row[i], G: row[i+1], B: row[i+2]})
			}
		}
	default:
		for y := range g.Height {
			for x := range g.Width {
				g.Set(x, y, ColorModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(Color))
			}
		}
	}
	return g, nil
}

// Feed trains the model on every ordered pair of orthogonally adjacent
// cells of g. Each unordered pair is visited from both sides, so
// transitions are recorded in both directions.
func (m *Model) Feed(g Grid) error {
	if err := g.validate(); err != nil {
		return err
	}

	for y := range g.Height {
		for x := range g.Width {
			c := g.At(x, y)
			for _, d := range adjacent {
				nx, ny := x+d.X, y+d.Y
				if !g.InBounds(nx, ny) {
					continue
				}
				m.Train(c, g.At(nx, ny))
			}
		}
	}
	return nil
}

// FeedImage trains the model on img.
func (m *Model) FeedImage(img image.Image) error {
	g, err := GridFromImage(img)
	if err != nil {
		return err
	}
	return m.Feed(g)
}

// FeedMatrix trains the model on a rectangular matrix of rows.
func (m *Model) FeedMatrix(rows [][]Color) error {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return fmt.Errorf("%w: empty matrix", ErrInvalidDimensions)
	}
	g, err := NewGrid(len(rows[0]), len(rows))
	if err != nil {
		return err
	}
	for y, row := range rows {
		if len(row) != g.Width {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidDimensions, y, len(row), g.Width)
		}
		copy(g.Pix[y*g.Width:], row)
	}
	return m.Feed(g)
}

// FeedPixels trains the model on packed R,G,B,A bytes. Row y starts at
// pix[y*stride]; alpha is ignored.
func (m *Model) FeedPixels(pix []byte, width, height, stride int) error {
	if width <= 0 || height <= 0 || stride < width*4 || len(pix) < (height-1)*stride+width*4 {
		return fmt.Errorf("%w: %dx%d stride %d over %d bytes", ErrInvalidDimensions, width, height, stride, len(pix))
	}
	g, err := NewGrid(width, height)
	if err != nil {
		return err
	}
	for y := range height {
		row := pix[y*stride:]
		for x := range width {
			i := x * 4
			g.Set(x, y, Color{R: row[i], G: row[i+1], B: row[i+2]})
		}
	}
	return m.Feed(g)
}
