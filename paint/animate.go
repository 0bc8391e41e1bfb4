package paint

import (
	"context"
	"image"
	"image/color"
	"image/gif"
	"math"

	"markovpaint/palette"
	"markovpaint/synth"
)

// finalDelay keeps the finished image on screen for two seconds.
const finalDelay = 200

type animation struct {
	// Frame length in milliseconds.
	frameMillis float64
	// Cells popped per millisecond for each pending cell.
	speed     float64
	maxFrames int
	// Opaque colors to render with; index 0 of every frame is reserved for
	// unpainted cells.
	colors color.Palette
}

// frameSteps is the number of frontier pops for one frame. Growth speeds up
// with the frontier, as in a live canvas animation paced by elapsed time.
func (a animation) frameSteps(pending int) int {
	return max(1, int(math.Ceil(a.speed*a.frameMillis*float64(pending))))
}

// animate drives p to completion, capturing a frame after each slice of
// work. Once maxFrames-1 frames are captured the rest of the painting is
// collapsed into the final frame.
func animate(ctx context.Context, p *synth.Painter, a animation) (*gif.GIF, error) {
	colors := a.colors
	if len(colors) > 255 {
		colors = colors[:255]
	}
	pal := append(color.Palette{color.Transparent}, colors...)
	r := frameRenderer{
		lab:   palette.NewLab(colors),
		pal:   pal,
		cache: make(map[color.RGBA]uint8),
	}

	delay := max(1, int(math.Round(a.frameMillis/10)))
	anim := &gif.GIF{LoopCount: -1}
	addFrame := func(d int) {
		anim.Image = append(anim.Image, r.render(p.Image()))
		anim.Delay = append(anim.Delay, d)
	}

	addFrame(delay)
	for !p.Done() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if len(anim.Image) >= a.maxFrames-1 {
			p.Step(p.Pending())
			continue
		}
		p.Step(a.frameSteps(p.Pending()))
		if !p.Done() {
			addFrame(delay)
		}
	}
	addFrame(finalDelay)

	return anim, nil
}

type frameRenderer struct {
	lab   palette.Lab
	pal   color.Palette
	cache map[color.RGBA]uint8
}

func (r *frameRenderer) render(img *image.RGBA) *image.Paletted {
	b := img.Bounds()
	frame := image.NewPaletted(b, r.pal)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if c.A == 0 {
				continue
			}
			idx, ok := r.cache[c]
			if !ok {
				idx = uint8(r.lab.Index(c) + 1)
				r.cache[c] = idx
			}
			frame.SetColorIndex(x, y, idx)
		}
	}
	return frame
}
