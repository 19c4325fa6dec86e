package main

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/veandco/go-sdl2/sdl"
	"golang.org/x/sync/errgroup"

	"nescore/emu"
	"nescore/emu/log"
	"nescore/emu/rpc"
	"nescore/hw/input"
	"nescore/ines"
)

// emuMain runs the emulator with the given rom, in a window, or headless when
// a number of frames is given.
func emuMain(args Run, cfg emu.Config) {
	if args.Trace != nil {
		cfg.TraceOut = args.Trace
		defer args.Trace.Close()
	}
	if args.Palette != "" {
		cfg.General.Palette = args.Palette
	}
	if args.Scale > 0 {
		cfg.Video.Scale = args.Scale
	}
	if args.RunAhead >= 0 {
		cfg.Emulation.RunAheadFrames = args.RunAhead
	}
	cfg.Video.Monitor = args.Monitor

	rom, err := ines.Open(args.RomPath, args.Patch)
	checkf(err, "error reading ROM")

	if args.CPUProfile != "" {
		f, err := os.Create(args.CPUProfile)
		checkf(err, "failed to create cpu profile file")
		checkf(pprof.StartCPUProfile(f), "failed to start cpu profile")
		defer func() {
			pprof.StopCPUProfile()
			f.Close()
			fmt.Println("CPU profile written to", args.CPUProfile)
		}()
	}

	var exitcode int
	if args.Frames > 0 {
		exitcode = runHeadless(rom, args, cfg)
	} else {
		sdl.Main(func() {
			exitcode = runWindowed(rom, args, cfg)
		})
	}
	if exitcode != 0 {
		os.Exit(exitcode)
	}
}

func runHeadless(rom *ines.Rom, args Run, cfg emu.Config) int {
	out := &emu.Headless{Limit: args.Frames}
	emulator, err := emu.New(rom, args.RomPath, cfg, out, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start emulator: %v\n", err)
		return 1
	}
	if err := serve(emulator, args.Port); err != nil {
		fmt.Fprintf(os.Stderr, "emulation error: %v\n", err)
		return 1
	}
	if args.Screenshot != "" {
		if err := emu.SaveAsPNG(out.Last(), args.Screenshot); err != nil {
			fmt.Fprintf(os.Stderr, "failed to save screenshot: %v\n", err)
			return 1
		}
	}
	return 0
}

func runWindowed(rom *ines.Rom, args Run, cfg emu.Config) int {
	emulator, err := emu.Launch(rom, args.RomPath, cfg, input.NewProvider(cfg.Input))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start emulator: %v\n", err)
		return 1
	}
	if err := serve(emulator, args.Port); err != nil {
		fmt.Fprintf(os.Stderr, "emulation error: %v\n", err)
		return 1
	}
	return 0
}

// serve runs the emulation loop, and the RPC server if port is not 0. The
// server is stopped once the loop exits.
func serve(emulator *emu.Emulator, port int) error {
	if port == 0 {
		return emulator.Run()
	}

	server, err := rpc.NewServer(port, emulator)
	if err != nil {
		return fmt.Errorf("rpc server: %w", err)
	}

	var g errgroup.Group
	g.Go(server.Serve)
	g.Go(func() error {
		defer server.Close()
		return emulator.Run()
	})
	err = g.Wait()
	log.ModEmu.DebugZ("emulator and rpc server stopped").End()
	return err
}
