package emu

import (
	"bytes"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"nescore/emu/log"
	"nescore/hw"
	"nescore/ines"
)

type Emulator struct {
	NES   *hw.Console
	out   Output
	input InputProvider
	cfg   Config

	// These are accessed concurrently by the emulator loop and the UI.
	quit    atomic.Bool
	paused  atomic.Bool
	reset   atomic.Bool
	restart atomic.Bool
	save    atomic.Bool
	load    atomic.Bool

	frames   int64
	runahead bytes.Buffer
}

// New powers on a console with rom inserted. Frames are sent to out, the
// controllers are read from in, which can be nil if no controller is plugged.
// It doesn't start the emulation loop, call Run for that.
func New(rom *ines.Rom, romPath string, cfg Config, out Output, in InputProvider) (*Emulator, error) {
	nes := hw.NewConsole()
	if err := nes.LoadROMData(rom); err != nil {
		return nil, err
	}
	if romPath != "" {
		nes.SetROMName(romPath)
	}

	if cfg.General.Palette != "" {
		pal, err := hw.LoadPaletteFile(cfg.General.Palette)
		if err != nil {
			return nil, fmt.Errorf("palette: %w", err)
		}
		nes.SetPalette(pal)
	}
	if cfg.General.BasePath != "" {
		if err := os.MkdirAll(cfg.General.BasePath, DefaultFileMode); err != nil {
			return nil, err
		}
		nes.SetBasePath(cfg.General.BasePath)
	}
	if cfg.TraceOut != nil {
		nes.SetTrace(cfg.TraceOut)
	}
	if err := nes.PowerOn(); err != nil {
		return nil, fmt.Errorf("power on failed: %w", err)
	}
	if cfg.General.AutoSnapshot {
		if err := nes.LoadSnapshot(); err != nil {
			log.ModEmu.WarnZ("failed to restore snapshot").Error("err", err).End()
			if err := nes.PowerOn(); err != nil {
				return nil, err
			}
		}
	}

	if in == nil {
		in = noInput{}
	}
	return &Emulator{
		NES:   nes,
		out:   out,
		input: in,
		cfg:   cfg,
	}, nil
}

// Launch shows the window, plugs the keyboard controllers and powers on the
// console. It doesn't start the emulation loop, call Run for that.
func Launch(rom *ines.Rom, romPath string, cfg Config, in InputProvider) (*Emulator, error) {
	win, err := NewWindow("nescore", cfg.Video)
	if err != nil {
		return nil, err
	}
	e, err := New(rom, romPath, cfg, win, in)
	if err != nil {
		win.Close()
		return nil, err
	}
	win.SetHotkeys(e)
	return e, nil
}

// RunOneFrame runs the console for one frame and shows it.
func (e *Emulator) RunOneFrame() error {
	p1, p2 := e.input.Buttons()
	e.NES.SetController(0, p1)
	e.NES.SetController(1, p2)

	if e.cfg.Emulation.RunAheadFrames > 0 {
		return e.runAhead()
	}
	if err := e.NES.RunFrame(); err != nil {
		return err
	}
	e.frames++
	e.out.EndFrame(e.NES.FrameBuffer())
	return nil
}

// runAhead runs one frame, saves the state, then runs RunAheadFrames more
// frames with the same inputs and shows the last one. The state is then
// restored, so the emulation only moved one frame forward.
func (e *Emulator) runAhead() error {
	if err := e.NES.RunFrame(); err != nil {
		return err
	}
	e.frames++

	e.runahead.Reset()
	if err := e.NES.SaveState(&e.runahead); err != nil {
		return fmt.Errorf("run-ahead: %w", err)
	}
	for range e.cfg.Emulation.RunAheadFrames {
		if err := e.NES.RunFrame(); err != nil {
			return err
		}
	}
	e.out.EndFrame(e.NES.FrameBuffer())

	if err := e.NES.LoadState(&e.runahead); err != nil {
		return fmt.Errorf("run-ahead: %w", err)
	}
	return nil
}

// Frames returns the number of emulated frames.
func (e *Emulator) Frames() int64 { return e.frames }

func (e *Emulator) loop() error {
	for e.out.Poll() {
		if e.paused.Load() {
			// Don't burn cpu while paused.
			time.Sleep(100 * time.Millisecond)
		} else if err := e.RunOneFrame(); err != nil {
			return err
		}
		if e.quit.Load() {
			break
		}
		e.handleRequests()
	}
	return nil
}

// Run runs the emulation loop until the output is closed, Stop is called or
// a fatal emulation error happens.
func (e *Emulator) Run() error {
	err := e.loop()
	e.out.Close()
	if err != nil {
		log.ModEmu.ErrorZ("emulation stopped").Error("err", err).End()
		return err
	}

	log.ModEmu.InfoZ("emulation loop exited").Int64("frames", e.frames).End()
	if e.cfg.General.AutoSnapshot {
		if err := e.NES.SaveSnapshot(); err != nil {
			log.ModEmu.WarnZ("failed to save snapshot").Error("err", err).End()
		}
	}
	return nil
}

// SetPause, Stop, Reset, Restart, SaveSnapshot and LoadSnapshot control the
// emulator loop in a concurrent-safe way. Requests are handled between frames.

func (e *Emulator) SetPause(pause bool) { e.paused.Store(pause) }

func (e *Emulator) TogglePause() {
	for {
		v := e.paused.Load()
		if e.paused.CompareAndSwap(v, !v) {
			return
		}
	}
}

func (e *Emulator) Reset()        { e.reset.Store(true) }
func (e *Emulator) Restart()      { e.restart.Store(true) }
func (e *Emulator) SaveSnapshot() { e.save.Store(true) }
func (e *Emulator) LoadSnapshot() { e.load.Store(true) }
func (e *Emulator) Stop()         { e.quit.Store(true) }

func (e *Emulator) IsPaused() bool { return e.paused.Load() }

func (e *Emulator) handleRequests() {
	if e.reset.CompareAndSwap(true, false) {
		log.ModEmu.InfoZ("performing soft reset").End()
		e.NES.Reset()
	} else if e.restart.CompareAndSwap(true, false) {
		log.ModEmu.InfoZ("performing hard reset").End()
		if err := e.NES.PowerOn(); err != nil {
			log.ModEmu.ErrorZ("power on failed").Error("err", err).End()
		}
	}

	if e.save.CompareAndSwap(true, false) {
		if err := e.NES.SaveSnapshot(); err != nil {
			log.ModEmu.WarnZ("failed to save snapshot").Error("err", err).End()
		}
	}
	if e.load.CompareAndSwap(true, false) {
		if err := e.NES.LoadSnapshot(); err != nil {
			log.ModEmu.WarnZ("failed to load snapshot").Error("err", err).End()
		}
	}
}
