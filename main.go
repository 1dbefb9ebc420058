package main

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/iburimskiy/matrix-rain/internal/config"
	"github.com/iburimskiy/matrix-rain/internal/game"
	"github.com/iburimskiy/matrix-rain/internal/rain"
)

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	return cfg.Build()
}

// seededRand gives each mount its own reproducible stream.
func seededRand(seed uint64) func(name string) rain.Rand {
	return func(name string) rain.Rand {
		h := fnv.New64a()
		_, _ = h.Write([]byte(name))
		return rand.New(rand.NewPCG(seed, h.Sum64()))
	}
}

func run() error {
	flags := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	scenePath := flags.StringP("scene", "s", "", "scene file (YAML); built-in scene when empty")
	flags.String(config.CfgSoundtrack, "", "audio file to loop under the effects (wav, mp3, flac)")
	debug := flags.Bool("debug", false, "verbose development logging")
	seed := flags.Uint64("seed", 0, "random seed for reproducible rain; 0 picks one")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	log, err := newLogger(*debug)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	scene, err := config.Load(*scenePath, flags)
	if err != nil {
		return err
	}

	opts := game.Options{Logger: log}
	if *seed != 0 {
		opts.NewRand = seededRand(*seed)
	}
	g, err := game.New(scene, opts)
	if err != nil {
		return err
	}
	defer g.Close()

	ebiten.SetWindowSize(scene.Window.Width, scene.Window.Height)
	ebiten.SetWindowTitle(scene.Window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(scene.Window.TPS)
	ebiten.SetRunnableOnUnfocused(true)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "matrixrain:", err)
		os.Exit(1)
	}
}
