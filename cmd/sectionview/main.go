package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"chunkmesh/internal/config"
	"chunkmesh/internal/logger"

	"github.com/faiface/mainthread"
)

var frameCap int

func init() {
	runtime.LockOSThread()
}

func main() {
	debug := flag.Bool("debug", false, "development logging")
	distance := flag.Int("distance", 8, "render distance in chunks")
	workers := flag.Int("workers", config.GetWorkers(), "compile workers")
	packs := flag.Int("packs", config.GetBufferPacks(), "staging buffer packs")
	seed := flag.Int64("seed", config.GetSeed(), "terrain seed")
	flat := flag.Bool("flat", config.GetFlat(), "flat terrain")
	fps := flag.Int("fps", 144, "frame rate cap, 0 for none")
	flag.Parse()
	frameCap = *fps

	config.SetRenderDistance(*distance)
	config.SetWorkers(*workers)
	config.SetBufferPacks(*packs)
	config.SetSeed(*seed)
	config.SetFlat(*flat)

	if err := logger.Init(*debug); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	mainthread.Run(run)
}
