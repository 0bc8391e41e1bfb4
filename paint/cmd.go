// Package paint implements the paint command: learn the color adjacency of
// every image in a folder and paint a new image from each.
package paint

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"

	"markovpaint/markov"
	"markovpaint/palette"
	"markovpaint/parallel"
	"markovpaint/synth"
)

type CLICmd struct {
	Scan          string `help:"Source folder to scan" default:"." env:"MARKOVPAINT_SCAN"`
	Dest          string `help:"Destination folder for painted pictures. Relative to scan dir if not absolute." default:"painted" env:"MARKOVPAINT_DEST"`
	Width         int    `help:"Width of the painted image, source width if 0" group:"output"`
	Height        int    `help:"Height of the painted image, source height if 0" group:"output"`
	Format        string `help:"Output format of painted image" enum:"png,gif,jpeg,bmp,tiff" default:"png" group:"output"`
	Fallback      string `help:"Color given to cells whose color was never seen next to another: 'copy' or #RGB/#RRGGBB" default:"copy" group:"output"`
	Seed          uint64 `help:"Random seed for reproducible paintings, 0 for a new painting each run" env:"MARKOVPAINT_SEED" group:"output"`
	ExportPalette bool   `help:"Also save the learned colors as a RIFF PAL file" default:"false" group:"output"`

	Compression int    `help:"Color quantization factor, 1 keeps every color" default:"1" env:"MARKOVPAINT_COMPRESSION" group:"model"`
	TrainWidth  int    `help:"Downscale sources to at most this width before training" group:"model"`
	TrainHeight int    `help:"Downscale sources to at most this height before training" group:"model"`
	Palette     string `help:"Palette name (bw, gray16, spectra6, websafe, plan9) or PAL file in RIFF format to snap sources to before training" group:"model"`
	Dither      bool   `help:"Dither when snapping to a palette" default:"false" group:"model"`

	Animate    bool    `help:"Also save an animated GIF of the painting" default:"false" group:"animation"`
	FPS        int     `help:"Animation frames per second" default:"25" group:"animation"`
	Speed      float64 `help:"Cells painted per millisecond for each pending cell" default:"0.05" group:"animation"`
	MaxFrames  int     `help:"Maximum number of animation frames" default:"250" group:"animation"`
	GIFColors  int     `name:"gif-colors" help:"Colors extracted from the source for the animation palette" default:"64" group:"animation"`
	GIFPalette string  `name:"gif-palette" help:"Animation palette extraction method" enum:"dominantcolor,kmeans" default:"dominantcolor" group:"animation"`

	FallbackFunc synth.Fallback `kong:"-"`
	SnapPalette  color.Palette  `kong:"-"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	scanDir, err := filepath.Abs(c.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
	}
	c.Scan = scanDir

	if !filepath.IsAbs(c.Dest) {
		c.Dest = filepath.Join(scanDir, c.Dest)
	}

	switch {
	case c.Width < 0:
		return fmt.Errorf("invalid width: %d", c.Width)
	case c.Height < 0:
		return fmt.Errorf("invalid height: %d", c.Height)
	case c.TrainWidth < 0:
		return fmt.Errorf("invalid training width: %d", c.TrainWidth)
	case c.TrainHeight < 0:
		return fmt.Errorf("invalid training height: %d", c.TrainHeight)
	case c.Compression < 1:
		return fmt.Errorf("invalid compression factor: %d", c.Compression)
	}

	if c.FallbackFunc, err = parseFallback(c.Fallback); err != nil {
		return err
	}

	if c.Palette != "" {
		if c.SnapPalette, err = palette.Load(c.Palette); err != nil {
			return err
		}
	}

	if c.Animate {
		switch {
		case c.FPS < 1:
			return fmt.Errorf("invalid frame rate: %d", c.FPS)
		case c.Speed <= 0:
			return fmt.Errorf("invalid animation speed: %g", c.Speed)
		case c.MaxFrames < 2:
			return fmt.Errorf("need at least 2 animation frames, got %d", c.MaxFrames)
		case c.GIFColors < 1 || c.GIFColors > 255:
			return fmt.Errorf("animation palette size must be within 1..255, got %d", c.GIFColors)
		}
	}

	return nil
}

func parseFallback(s string) (synth.Fallback, error) {
	if strings.EqualFold(s, "copy") || s == "" {
		return synth.CopyColor, nil
	}

	col, err := colorful.Hex(s)
	if err != nil {
		return nil, fmt.Errorf("invalid fallback color %q, should be copy, #RGB or #RRGGBB: %w", s, err)
	}
	r, g, b := col.RGB255()
	return synth.FixedColor(markov.Color{R: r, G: g, B: b}), nil
}

func (c *CLICmd) Run(ctx context.Context, worker parallel.WorkerFunc, wait parallel.WaitFunc) error {
	if err := os.MkdirAll(c.Dest, 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
	}

	files, err := os.ReadDir(c.Scan)
	if err != nil {
		return fmt.Errorf("unable to read folder %q: %w", c.Scan, err)
	}

	var processedCount, errCount atomic.Uint64
	var index uint64
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		worker(func(fileName string, index uint64) func() {
			return func() {
				filePath := filepath.Join(c.Scan, fileName)
				logger := slog.Default().With("file", filePath, "run", uuid.NewString())

				if err := c.paintFile(ctx, logger, filePath, fileName, index); err != nil {
					errCount.Add(1)
					logger.Error("could not paint image", "error", err)
					return
				}
				processedCount.Add(1)
			}
		}(file.Name(), index))
		index++
	}

	wait()

	processed := processedCount.Load()
	errors := errCount.Load()
	slog.Info("stats", "processed", processed, "errors", errors,
		"total", processed+errors)

	if errors > 0 {
		return fmt.Errorf("error processing %d files", errors)
	}
	return nil
}

func (c *CLICmd) paintFile(ctx context.Context, logger *slog.Logger, filePath, fileName string, index uint64) error {
	img, err := decodeFile(filePath)
	if err != nil {
		return err
	}

	model, err := c.train(logger, img)
	if err != nil {
		return err
	}

	width, height := c.Width, c.Height
	if width == 0 {
		width = img.Bounds().Dx()
	}
	if height == 0 {
		height = img.Bounds().Dy()
	}

	opt := synth.DefaultOptions()
	opt.Fallback = c.FallbackFunc
	if c.Seed != 0 {
		opt.Rand = rand.New(rand.NewPCG(c.Seed, index))
	}

	logger.Info("painting", "width", width, "height", height)
	var out *image.RGBA
	if c.Animate {
		painter, err := synth.NewPainter(model, width, height, opt)
		if err != nil {
			return fmt.Errorf("could not start painting: %w", err)
		}
		anim, err := animate(ctx, painter, animation{
			frameMillis: 1000 / float64(c.FPS),
			speed:       c.Speed,
			maxFrames:   c.MaxFrames,
			colors:      c.animationColors(logger, img),
		})
		if err != nil {
			return fmt.Errorf("could not animate painting: %w", err)
		}
		logger.Info("saving animation", "frames", len(anim.Image))
		if err = saveAnimation(anim, c.Dest, fileName); err != nil {
			return err
		}
		out = painter.Image()
	} else if out, err = synth.Synthesize(ctx, model, width, height, opt); err != nil {
		return fmt.Errorf("could not paint: %w", err)
	}

	if err = save(out, c.Format, c.Dest, fileName); err != nil {
		return err
	}

	if c.ExportPalette {
		if err = savePalette(model, c.Dest, fileName); err != nil {
			return err
		}
	}
	return nil
}

// train builds a model from img after the optional downscale and palette
// snapping.
func (c *CLICmd) train(logger *slog.Logger, img image.Image) (*markov.Model, error) {
	src := img
	if c.TrainWidth > 0 || c.TrainHeight > 0 {
		src = downscale(logger, src, c.TrainWidth, c.TrainHeight)
	}

	if len(c.SnapPalette) > 0 {
		logger.Info("applying palette", "palette", c.Palette, "colors", len(c.SnapPalette))
		src = palette.Snap(src, c.SnapPalette, c.Dither)
	}

	model, err := markov.New(c.Compression)
	if err != nil {
		return nil, err
	}
	if err = model.FeedImage(src); err != nil {
		return nil, fmt.Errorf("could not train model: %w", err)
	}

	logger.Info("trained model", "colors", model.Len(), "transitions", model.Transitions())
	return model, nil
}

func (c *CLICmd) animationColors(logger *slog.Logger, img image.Image) color.Palette {
	method, err := palette.ParseMethod(c.GIFPalette)
	if err != nil {
		logger.Warn("falling back to default palette extraction", "error", err)
	}

	colors := palette.Extract(img, c.GIFColors, method)
	logger.Debug("extracted animation palette", "method", method, "colors", len(colors))
	return colors
}

func decodeFile(filePath string) (image.Image, error) {
	imgFile, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("could not open image: %w", err)
	}
	defer imgFile.Close()

	img, _, err := image.Decode(imgFile)
	if err != nil {
		return nil, fmt.Errorf("could not decode image: %w", err)
	}
	return img, nil
}
