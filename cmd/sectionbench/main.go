package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"chunkmesh/internal/config"
	"chunkmesh/internal/logger"

	"github.com/xlab/closer"
	"go.uber.org/zap"
)

func main() {
	debug := flag.Bool("debug", false, "development logging")
	distance := flag.Int("distance", 6, "render distance in chunks")
	workers := flag.Int("workers", config.GetWorkers(), "compile workers")
	packs := flag.Int("packs", config.GetBufferPacks(), "staging buffer packs")
	seed := flag.Int64("seed", config.GetSeed(), "terrain seed")
	flat := flag.Bool("flat", config.GetFlat(), "flat terrain")
	frames := flag.Int("frames", 120, "camera flight frames after the initial build")
	timeout := flag.Duration("timeout", time.Minute, "give up waiting for the queue to drain")
	flag.Parse()

	config.SetRenderDistance(*distance)
	config.SetWorkers(*workers)
	config.SetBufferPacks(*packs)
	config.SetSeed(*seed)
	config.SetFlat(*flat)

	if err := logger.Init(*debug); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	b := newBench(config.Snapshot())
	closer.Bind(func() {
		if err := b.Close(); err != nil {
			logger.Log.Warn("bench shutdown", zap.Error(err))
		}
		logger.Sync()
	})
	defer closer.Close()

	r, err := b.Run(*frames, *timeout)
	if err != nil {
		logger.Log.Error("bench failed", zap.Error(err))
		closer.Exit(1)
	}
	fmt.Print(r)
}
