package palette

import (
	"cmp"
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

type Method int

const (
	MethodDominantColor Method = iota
	MethodKMeans
)

func (m Method) String() string {
	switch m {
	case MethodKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

// ParseMethod is the inverse of Method.String.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "dominantcolor", "":
		return MethodDominantColor, nil
	case "kmeans":
		return MethodKMeans, nil
	}
	return 0, fmt.Errorf("unknown palette extraction method %q", s)
}

// Extract returns up to k representative colors of img, most prominent
// first. kmeans falls back to dominantcolor when it yields nothing.
func Extract(img image.Image, k int, method Method) color.Palette {
	if k <= 0 {
		return nil
	}

	if method == MethodKMeans {
		if pal := extractKMeans(img, k); len(pal) != 0 {
			return pal
		}
	}
	return extractDominant(img, k)
}

func extractDominant(img image.Image, k int) color.Palette {
	candidates := dominantcolor.FindWeight(img, k)
	if len(candidates) == 0 {
		return color.Palette{color.RGBA{R: 128, G: 128, B: 128, A: 255}}
	}

	slices.SortStableFunc(candidates, func(a, b dominantcolor.Color) int {
		return cmp.Compare(b.Weight, a.Weight)
	})
	pal := make(color.Palette, 0, len(candidates))
	for _, c := range candidates {
		c.RGBA.A = 0xFF
		pal = append(pal, c.RGBA)
	}
	return pal
}

func extractKMeans(img image.Image, k int) color.Palette {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	// Subsample to keep kmeans tractable on large images.
	maxSamples := 12000
	step := 1
	if width*height > maxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r16, g16, b16, a16 := img.At(x, y).RGBA()
			if a16 == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(r16) / 65535.0,
				float64(g16) / 65535.0,
				float64(b16) / 65535.0,
			})
		}
	}
	if len(dataset) == 0 {
		return nil
	}

	cc, err := kmeans.New().Partition(dataset, min(k, len(dataset)))
	if err != nil || len(cc) == 0 {
		return nil
	}

	// Sort by cluster population so dominant colors come first.
	slices.SortStableFunc(cc, func(a, b clusters.Cluster) int {
		return cmp.Compare(len(b.Observations), len(a.Observations))
	})

	pal := make(color.Palette, 0, len(cc))
	for _, c := range cc {
		if len(c.Observations) == 0 || len(c.Center) < 3 {
			continue
		}
		r, g, b := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped().RGB255()
		pal = append(pal, color.RGBA{R: r, G: g, B: b, A: 0xFF})
	}
	return pal
}
