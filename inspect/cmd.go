// Package inspect implements the inspect command, which reports what a model
// learns from a single image.
package inspect

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"

	"markovpaint/markov"
	"markovpaint/palette"
)

type CLICmd struct {
	File        string `arg:"" help:"Image to learn from" type:"existingfile"`
	Compression int    `help:"Color quantization factor, 1 keeps every color" default:"1" env:"MARKOVPAINT_COMPRESSION"`
	Top         int    `help:"Number of most frequent colors to list" default:"10"`
	Export      string `help:"Save the listed colors to this RIFF PAL file" type:"path"`
}

func (c *CLICmd) Run() error {
	logger := slog.Default().With("file", c.File)

	img, err := decode(c.File)
	if err != nil {
		return err
	}

	model, err := markov.New(c.Compression)
	if err != nil {
		return err
	}
	if err = model.FeedImage(img); err != nil {
		return fmt.Errorf("could not train model on %q: %w", c.File, err)
	}

	stats := model.Stats()
	logger.Info("model",
		"compression", model.Compression(),
		"colors", stats.Colors,
		"transitions", stats.Transitions,
		"mean_entropy", stats.MeanEntropy,
		"max_entropy", stats.MaxEntropy,
		"dead_ends", stats.DeadEnds)

	top := model.Top(c.Top)
	colors := make([]markov.Color, 0, len(top))
	for i, cc := range top {
		colors = append(colors, cc.Color)
		cf, _ := colorful.MakeColor(cc.Color)
		logger.Info("color", "rank", i+1, "hex", cf.Hex(), "transitions", cc.Count,
			"neighbors", len(distinct(model.Neighbors(cc.Color))))
	}

	if c.Export != "" {
		if err = export(c.Export, palette.FromColors(colors)); err != nil {
			return err
		}
		logger.Info("exported palette", "dest", c.Export, "colors", len(colors))
	}
	return nil
}

func distinct(keys []markov.Key) map[markov.Key]struct{} {
	set := make(map[markov.Key]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func decode(name string) (image.Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("could not open image %q: %w", name, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode image %q: %w", name, err)
	}
	return img, nil
}

func export(name string, pal color.Palette) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("could not create palette file %q: %w", name, err)
	}

	if _, err = palette.Write(f, []color.Palette{pal}); err != nil {
		f.Close()
		return fmt.Errorf("could not write palette file %q: %w", name, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("could not close palette file %q: %w", name, err)
	}
	return nil
}
