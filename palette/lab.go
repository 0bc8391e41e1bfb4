package palette

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
)

type labEntry struct {
	L, A, B float64
	col     color.Color
}

// Lab matches colors against a palette by distance in OkLab space, which
// tracks perceived difference far better than color.Palette's RGB metric.
type Lab []labEntry

var _ color.Model = Lab{}

func NewLab(pal color.Palette) Lab {
	p := make(Lab, 0, len(pal))
	for _, col := range pal {
		cf, _ := colorful.MakeColor(col)
		l, a, b := cf.OkLab()
		p = append(p, labEntry{L: l, A: a, B: b, col: col})
	}
	return p
}

// Index returns the index of the palette entry closest to c.
func (p Lab) Index(c color.Color) int {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		// fully transparent, compare against black
		cf = colorful.Color{}
	}
	l, a, b := cf.OkLab()

	ret, bestSum := 0, math.MaxFloat64
	for i, v := range p {
		dL := l - v.L
		da := a - v.A
		db := b - v.B
		sum := dL*dL + da*da + db*db
		if sum < bestSum {
			if sum == 0 {
				return i
			}
			ret, bestSum = i, sum
		}
	}
	return ret
}

// Convert implements color.Model.
func (p Lab) Convert(c color.Color) color.Color {
	if len(p) == 0 {
		return c
	}
	return p[p.Index(c)].col
}

// Snap redraws img using only colors from pal. With dither the error is
// diffused Floyd-Steinberg style over pal's RGB metric; without it each pixel
// takes its nearest OkLab match.
func Snap(img image.Image, pal color.Palette, dither bool) *image.Paletted {
	if len(pal) > 256 {
		pal = pal[:256]
	}
	sr := img.Bounds()
	dr := image.Rect(0, 0, sr.Dx(), sr.Dy())
	dest := image.NewPaletted(dr, pal)

	if dither {
		draw.FloydSteinberg.Draw(dest, dr, img, sr.Min)
		return dest
	}

	lab := NewLab(pal)
	cache := make(map[color.RGBA]uint8)
	for y := range dr.Dy() {
		for x := range dr.Dx() {
			c := color.RGBAModel.Convert(img.At(sr.Min.X+x, sr.Min.Y+y)).(color.RGBA)
			idx, ok := cache[c]
			if !ok {
				idx = uint8(lab.Index(c))
				cache[c] = idx
			}
			dest.SetColorIndex(x, y, idx)
		}
	}
	return dest
}
