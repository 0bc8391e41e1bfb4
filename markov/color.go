package markov

import (
	"image/color"
)

// Color is an opaque 8-bit RGB triple. Alpha is not part of the model.
type Color struct {
	R, G, B uint8
}

var _ color.Color = Color{}

// RGBA implements color.Color, always fully opaque.
func (c Color) RGBA() (uint32, uint32, uint32, uint32) {
	r, g, b := uint32(c.R), uint32(c.G), uint32(c.B)
	return r | r<<8, g | g<<8, b | b<<8, 0xFFFF
}

// ColorModel converts any color.Color to a Color. Non-opaque inputs are
// un-premultiplied first, matching what a canvas would hand out.
var ColorModel = color.ModelFunc(colorConvert)

func colorConvert(c color.Color) color.Color {
	if mc, ok := c.(Color); ok {
		return mc
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{R: n.R, G: n.G, B: n.B}
}

// Quantize floors each channel to a multiple of compression. Factors below 2
// leave the color unchanged.
func Quantize(c Color, compression int) Color {
	switch {
	case compression <= 1:
		return c
	case compression > 255:
		return Color{}
	}
	f := uint8(compression)
	return Color{
		R: c.R / f * f,
		G: c.G / f * f,
		B: c.B / f * f,
	}
}

// Key is a color packed as r<<16 | g<<8 | b.
type Key uint32

// Encode packs c into a Key.
func Encode(c Color) Key {
	return Key(c.R)<<16 | Key(c.G)<<8 | Key(c.B)
}

// Color unpacks the key.
func (k Key) Color() Color {
	return Color{
		R: uint8(k >> 16),
		G: uint8(k >> 8),
		B: uint8(k),
	}
}
