// Package palette loads, writes, matches and extracts color palettes.
package palette

import (
	"fmt"
	"image/color"
	stdpalette "image/color/palette"
	"os"
	"slices"
	"strings"

	"markovpaint/markov"
)

var presets = map[string]func() color.Palette{
	"bw": func() color.Palette {
		return color.Palette{color.Black, color.White}
	},
	"gray16": func() color.Palette {
		pal := make(color.Palette, 16)
		for i := range pal {
			pal[i] = color.Gray{Y: uint8(i * 17)}
		}
		return pal
	},
	"spectra6": func() color.Palette {
		return color.Palette{
			color.RGBA{0x00, 0x00, 0x00, 0xFF},
			color.RGBA{0xFF, 0xFF, 0xFF, 0xFF},
			color.RGBA{0xFF, 0xFF, 0x00, 0xFF},
			color.RGBA{0xFF, 0x00, 0x00, 0xFF},
			color.RGBA{0x00, 0x00, 0xFF, 0xFF},
			color.RGBA{0x00, 0xFF, 0x00, 0xFF},
		}
	},
	"websafe": func() color.Palette {
		return slices.Clone(stdpalette.WebSafe)
	},
	"plan9": func() color.Palette {
		return slices.Clone(stdpalette.Plan9)
	},
}

// Presets returns the names of the built-in palettes.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Load returns a built-in palette by name, or reads every palette of a RIFF
// PAL file and merges them.
func Load(name string) (color.Palette, error) {
	if preset, ok := presets[strings.ToLower(name)]; ok {
		return preset(), nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("unknown palette %q: %w", name, err)
	}
	defer f.Close()

	pals, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("could not load palette file %q: %w", name, err)
	}

	var res color.Palette
	for _, pal := range pals {
		res = append(res, pal...)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("palette file %q holds no colors", name)
	}
	return res, nil
}

// FromColors converts model colors into a palette.
func FromColors(colors []markov.Color) color.Palette {
	pal := make(color.Palette, len(colors))
	for i, c := range colors {
		pal[i] = color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}
	}
	return pal
}
