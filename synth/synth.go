// Package synth paints new images from a trained markov.Model by growing a
// region outwards from a single random seed.
//
// Growth pops a uniformly random cell from the frontier, then gives every
// unpainted orthogonal neighbor a color sampled from the model for the
// popped cell's color. Random frontier order avoids the streaks a FIFO or
// LIFO order would leave. The alpha channel of the output doubles as the
// painted flag: 0 until a cell is assigned, 255 afterwards.
package synth

import (
	"context"
	"errors"
	"fmt"
	"image"

	"markovpaint/markov"
)

// stepBatch is the number of frontier pops between context checks.
const stepBatch = 4096

var adjacent = [4]image.Point{
	{X: -1, Y: 0},
	{X: 0, Y: -1},
	{X: 1, Y: 0},
	{X: 0, Y: 1},
}

// Fallback picks the color of a neighbor when the model has no transition
// for the current color.
type Fallback func(current markov.Color) markov.Color

// CopyColor repeats the current color.
func CopyColor(current markov.Color) markov.Color {
	return current
}

// FixedColor always paints c.
func FixedColor(c markov.Color) Fallback {
	return func(markov.Color) markov.Color {
		return c
	}
}

type Options struct {
	// Rand drives seed placement, color sampling and frontier order.
	// A seeded source makes painting reproducible.
	Rand markov.Rand
	// Fallback resolves colors the model never saw next to anything.
	Fallback Fallback
	// OnPaint, when set, is called once for every cell assigned.
	OnPaint func(p image.Point, c markov.Color)
}

func DefaultOptions() Options {
	return Options{
		Rand:     markov.DefaultRand(),
		Fallback: CopyColor,
	}
}

// Painter is a resumable synthesis run. The buffer it paints is always
// consistent: painted cells hold a model color with alpha 255, the rest are
// zero.
type Painter struct {
	model    *markov.Model
	rng      markov.Rand
	fallback Fallback
	onPaint  func(image.Point, markov.Color)

	img      *image.RGBA
	frontier *Frontier[image.Point]
	painted  int
}

// NewPainter validates the request and paints the seed cell.
func NewPainter(m *markov.Model, width, height int, opt Options) (*Painter, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", markov.ErrInvalidDimensions, width, height)
	}
	if m == nil || m.Len() == 0 {
		return nil, markov.ErrEmptyModel
	}

	p := &Painter{
		model:    m,
		rng:      opt.Rand,
		fallback: opt.Fallback,
		onPaint:  opt.OnPaint,
		img:      image.NewRGBA(image.Rect(0, 0, width, height)),
		frontier: NewFrontier[image.Point](max(width, height)),
	}
	if p.rng == nil {
		p.rng = markov.DefaultRand()
	}
	if p.fallback == nil {
		p.fallback = CopyColor
	}

	seed := image.Pt(p.rng.IntN(width), p.rng.IntN(height))
	c, err := m.SampleAny(p.rng)
	if err != nil {
		return nil, err
	}
	p.paint(seed, c)

	return p, nil
}

func (p *Painter) offset(pt image.Point) int {
	return (pt.X + pt.Y*p.img.Rect.Dx()) * 4
}

func (p *Painter) isPainted(pt image.Point) bool {
	return p.img.Pix[p.offset(pt)+3] != 0
}

func (p *Painter) colorAt(pt image.Point) markov.Color {
	i := p.offset(pt)
	return markov.Color{R: p.img.Pix[i], G: p.img.Pix[i+1], B: p.img.Pix[i+2]}
}

func (p *Painter) paint(pt image.Point, c markov.Color) {
	i := p.offset(pt)
	p.img.Pix[i] = c.R
	p.img.Pix[i+1] = c.G
	p.img.Pix[i+2] = c.B
	p.img.Pix[i+3] = 0xFF
	p.painted++
	p.frontier.Push(pt)
	if p.onPaint != nil {
		p.onPaint(pt, c)
	}
}

// Step pops up to n cells from the frontier and paints their unpainted
// neighbors. It returns the number of cells popped, which is less than n
// only when the frontier ran dry.
func (p *Painter) Step(n int) int {
	bounds := p.img.Rect
	var popped int
	for ; popped < n; popped++ {
		pt, ok := p.frontier.PopRandom(p.rng)
		if !ok {
			break
		}

		cur := p.colorAt(pt)
		for _, d := range adjacent {
			next := pt.Add(d)
			if !next.In(bounds) || p.isPainted(next) {
				continue
			}

			c, err := p.model.SampleNext(p.rng, cur)
			if errors.Is(err, markov.ErrNoTransition) {
				c = p.fallback(cur)
			}
			p.paint(next, c)
		}
	}
	return popped
}

// Pending returns the number of painted cells whose neighbors have not been
// resolved yet.
func (p *Painter) Pending() int {
	return p.frontier.Len()
}

// Painted returns the number of cells assigned so far.
func (p *Painter) Painted() int {
	return p.painted
}

// Done reports whether the frontier is exhausted. On a rectangular grid
// every cell is painted by then.
func (p *Painter) Done() bool {
	return p.frontier.Len() == 0
}

// Image returns the buffer being painted. It is shared with the painter.
func (p *Painter) Image() *image.RGBA {
	return p.img
}

// Synthesize paints a complete width×height image from m. The context is
// checked between batches of frontier pops; on cancellation no image is
// returned.
func Synthesize(ctx context.Context, m *markov.Model, width, height int, opt Options) (*image.RGBA, error) {
	p, err := NewPainter(m, width, height, opt)
	if err != nil {
		return nil, err
	}

	for !p.Done() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.Step(stepBatch)
	}
	return p.Image(), nil
}
