package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"markovpaint/inspect"
	"markovpaint/paint"
	"markovpaint/parallel"
)

type cli struct {
	LogLevel  slog.Level `help:"Log level (debug, info, warn, error)" default:"info" env:"MARKOVPAINT_LOG_LEVEL"`
	LogFormat string     `help:"Log output format" enum:"text,json" default:"text" env:"MARKOVPAINT_LOG_FORMAT"`
	Workers   int        `help:"Number of images processed in parallel, GOMAXPROCS if 0" default:"0" env:"MARKOVPAINT_WORKERS"`

	Paint   paint.CLICmd   `cmd:"" help:"Paint new pictures from the color adjacency of every picture in a folder"`
	Inspect inspect.CLICmd `cmd:"" help:"Report the color model learned from a picture"`
}

func setupLogging(level slog.Level, format string) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func main() {
	// a missing .env is fine, flags and the environment still apply
	_ = godotenv.Load(".env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var conf cli
	kctx := kong.Parse(&conf,
		kong.Name("markovpaint"),
		kong.Description("Learn how colors sit next to each other in a picture and paint new ones like it."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	setupLogging(conf.LogLevel, conf.LogFormat)

	pool := parallel.Start(conf.Workers)
	slog.Debug("running", "command", kctx.Command(), "workers", pool.Workers())

	err := kctx.Run(parallel.WorkerFunc(pool.Do), parallel.WaitFunc(pool.Wait))
	pool.Wait()
	kctx.FatalIfErrorf(err)
}
