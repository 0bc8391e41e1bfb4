package paint

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"markovpaint/markov"
	"markovpaint/palette"
)

// destName swaps the extension of srcName for ext and adds suffix before it.
func destName(srcName, suffix, ext string) string {
	base := strings.TrimSuffix(srcName, filepath.Ext(srcName))
	return fmt.Sprintf("%s%s.%s", base, suffix, ext)
}

// writeFile writes through a temporary file in destDir and renames it into
// place once write succeeded.
func writeFile(destDir, name string, write func(io.Writer) error) (err error) {
	outFile, err := os.CreateTemp(destDir, name)
	if err != nil {
		return fmt.Errorf("could not create temporary destination %q: %w", name, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Sync(); defErr != nil && err == nil {
			err = fmt.Errorf("could not flush temporary destination %q: %w", name, defErr)
		}
		if defErr := outFile.Close(); defErr != nil && err == nil {
			err = fmt.Errorf("could not close temporary destination %q: %w", name, defErr)
		}

		if canRename && err == nil {
			if defErr := os.Rename(outFile.Name(), filepath.Join(destDir, name)); defErr != nil {
				err = fmt.Errorf("could not rename destination file %q: %w", name, defErr)
			}
		} else {
			_ = os.Remove(outFile.Name())
		}
	}()

	if err = write(outFile); err != nil {
		return err
	}

	canRename = true
	return nil
}

func save(img image.Image, outType, destDir, srcName string) error {
	name := destName(srcName, "", outType)

	return writeFile(destDir, name, func(w io.Writer) error {
		switch outType {
		case "gif":
			if err := gif.Encode(w, img, nil); err != nil {
				return fmt.Errorf("could not encode GIF destination %q: %w", name, err)
			}
		case "jpeg":
			if err := jpeg.Encode(w, img, &jpeg.Options{Quality: 100}); err != nil {
				return fmt.Errorf("could not encode JPEG destination %q: %w", name, err)
			}
		case "png":
			enc := png.Encoder{
				CompressionLevel: png.BestCompression,
				BufferPool:       pngPool,
			}
			if err := enc.Encode(w, img); err != nil {
				return fmt.Errorf("could not encode PNG destination %q: %w", name, err)
			}
		case "bmp":
			if err := bmp.Encode(w, img); err != nil {
				return fmt.Errorf("could not encode BMP destination %q: %w", name, err)
			}
		case "tiff":
			if err := tiff.Encode(w, img, nil); err != nil {
				return fmt.Errorf("could not encode TIFF destination %q: %w", name, err)
			}
		default:
			return fmt.Errorf("unsupported output format: %s", outType)
		}
		return nil
	})
}

func saveAnimation(anim *gif.GIF, destDir, srcName string) error {
	name := destName(srcName, ".anim", "gif")

	return writeFile(destDir, name, func(w io.Writer) error {
		if err := gif.EncodeAll(w, anim); err != nil {
			return fmt.Errorf("could not encode animation %q: %w", name, err)
		}
		return nil
	})
}

// savePalette writes every color the model learned as a RIFF PAL file.
// PAL chunks hold at most 65535 colors; larger models are truncated.
func savePalette(m *markov.Model, destDir, srcName string) error {
	name := destName(srcName, "", "pal")

	keys := m.Keys()
	colors := make([]markov.Color, 0, min(len(keys), 0xFFFF))
	for _, k := range keys[:min(len(keys), 0xFFFF)] {
		colors = append(colors, k.Color())
	}

	return writeFile(destDir, name, func(w io.Writer) error {
		if _, err := palette.Write(w, []color.Palette{palette.FromColors(colors)}); err != nil {
			return fmt.Errorf("could not write palette %q: %w", name, err)
		}
		return nil
	})
}

type pngEncoderBufferPool struct {
	pool sync.Pool
}

func (p *pngEncoderBufferPool) Get() *png.EncoderBuffer {
	return p.pool.Get().(*png.EncoderBuffer)
}

func (p *pngEncoderBufferPool) Put(buf *png.EncoderBuffer) {
	p.pool.Put(buf)
}

var pngPool = &pngEncoderBufferPool{
	pool: sync.Pool{
		New: func() any {
			return &png.EncoderBuffer{}
		},
	},
}
