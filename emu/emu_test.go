package emu

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"nescore/hw"
	"nescore/ines"
)

func TestMain(m *testing.M) {
	// Keep the user config directory out of the tests.
	dir, err := os.MkdirTemp("", "nescore-emu")
	if err != nil {
		panic(err)
	}
	os.Setenv("XDG_CONFIG_HOME", dir)
	os.Setenv("HOME", dir)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func tcheck(tb testing.TB, err error) {
	if err == nil {
		return
	}

	tb.Helper()
	tb.Fatalf("fatal error:\n\n%s\n", err)
}

// counterLoop increments $0200 forever.
var counterLoop = []uint8{
	0xEE, 0x00, 0x02, // INC $0200
	0x4C, 0x00, 0x80, // JMP $8000
}

func testRom(prog []uint8) *ines.Rom {
	prg := make([]byte, 0x8000)
	copy(prg, prog)
	for _, v := range []int{0x7FFA, 0x7FFC, 0x7FFE} {
		prg[v], prg[v+1] = 0x00, 0x80
	}
	return ines.NewRom(0, ines.VertMirroring, prg, make([]byte, 0x2000))
}

func newTestEmulator(tb testing.TB, cfg Config, out Output) *Emulator {
	tb.Helper()
	if cfg.General.BasePath == "" {
		cfg.General.BasePath = tb.TempDir()
	}
	e, err := New(testRom(counterLoop), "counter.nes", cfg, out, nil)
	tcheck(tb, err)
	return e
}

func TestHeadlessRun(t *testing.T) {
	out := &Headless{Limit: 10}
	e := newTestEmulator(t, Config{}, out)
	tcheck(t, e.Run())

	if got := out.Frames(); got != 10 {
		t.Errorf("output got %d frames, want 10", got)
	}
	if got := e.Frames(); got != 10 {
		t.Errorf("emulated %d frames, want 10", got)
	}
	if got := e.NES.PPU.Frames(); got != 10 {
		t.Errorf("PPU rendered %d frames, want 10", got)
	}
	if out.Last() == nil {
		t.Errorf("no frame shown")
	}
}

func TestRunAhead(t *testing.T) {
	const frames = 5

	ref := newTestEmulator(t, Config{}, &Headless{})
	cfg := Config{Emulation: EmulationConfig{RunAheadFrames: 2}}
	out := &Headless{}
	e := newTestEmulator(t, cfg, out)

	for range frames {
		tcheck(t, ref.RunOneFrame())
		tcheck(t, e.RunOneFrame())
	}

	// Run-ahead only changes what is shown.
	if e.NES.CPU.RAM != ref.NES.CPU.RAM {
		t.Errorf("RAM differs from the run without run-ahead")
	}
	if e.NES.CPU.Cycles != ref.NES.CPU.Cycles {
		t.Errorf("cycles = %d, want %d", e.NES.CPU.Cycles, ref.NES.CPU.Cycles)
	}
	if out.Frames() != frames {
		t.Errorf("output got %d frames, want %d", out.Frames(), frames)
	}
}

func TestStopAndPause(t *testing.T) {
	e := newTestEmulator(t, Config{}, &Headless{})
	e.Stop()
	tcheck(t, e.Run())
	if got := e.Frames(); got != 1 {
		t.Errorf("emulated %d frames after Stop, want 1", got)
	}

	e = newTestEmulator(t, Config{}, &Headless{})
	e.SetPause(true)
	if !e.IsPaused() {
		t.Errorf("IsPaused() = false after SetPause(true)")
	}
	e.Stop()
	tcheck(t, e.Run())
	if got := e.Frames(); got != 0 {
		t.Errorf("emulated %d frames while paused, want 0", got)
	}

	e.TogglePause()
	if e.IsPaused() {
		t.Errorf("IsPaused() = true after TogglePause")
	}
}

func TestResetRequests(t *testing.T) {
	e := newTestEmulator(t, Config{}, &Headless{})
	tcheck(t, e.RunOneFrame())
	counter := e.NES.CPU.RAM[0x200]

	// Soft reset keeps the RAM content.
	e.Reset()
	e.handleRequests()
	if e.NES.CPU.PC != 0x8000 {
		t.Errorf("PC = $%04X after reset, want $8000", e.NES.CPU.PC)
	}
	if got := e.NES.CPU.RAM[0x200]; got != counter {
		t.Errorf("counter = %d after reset, want %d", got, counter)
	}

	// Hard reset clears it.
	e.Restart()
	e.handleRequests()
	if got := e.NES.CPU.RAM[0x200]; got != 0 {
		t.Errorf("counter = %d after power cycle, want 0", got)
	}
	if e.reset.Load() || e.restart.Load() {
		t.Errorf("requests not cleared")
	}
}

func TestSnapshotRequests(t *testing.T) {
	e := newTestEmulator(t, Config{}, &Headless{})
	tcheck(t, e.RunOneFrame())
	counter := e.NES.CPU.RAM[0x200]

	e.SaveSnapshot()
	e.handleRequests()
	if _, err := os.Stat(e.NES.SnapshotPath()); err != nil {
		t.Fatalf("snapshot not saved: %s", err)
	}

	tcheck(t, e.RunOneFrame())
	e.LoadSnapshot()
	e.handleRequests()
	if got := e.NES.CPU.RAM[0x200]; got != counter {
		t.Errorf("counter = %d after loading the snapshot, want %d", got, counter)
	}
}

func TestAutoSnapshot(t *testing.T) {
	cfg := Config{General: GeneralConfig{BasePath: t.TempDir(), AutoSnapshot: true}}

	e := newTestEmulator(t, cfg, &Headless{Limit: 3})
	tcheck(t, e.Run())
	counter := e.NES.CPU.RAM[0x200]
	if counter == 0 {
		t.Fatalf("program didn't run")
	}

	// The next run starts where the previous one stopped.
	e = newTestEmulator(t, cfg, &Headless{Limit: 3})
	if got := e.NES.CPU.RAM[0x200]; got != counter {
		t.Errorf("counter = %d, want %d", got, counter)
	}
}

func TestRunFatalError(t *testing.T) {
	e, err := New(testRom([]uint8{0xEA, 0x02}), "", Config{}, &Headless{}, nil)
	tcheck(t, err)

	err = e.Run()
	if !errors.Is(err, hw.ErrBadOpcode) {
		t.Errorf("Run() = %v, want %v", err, hw.ErrBadOpcode)
	}
}

func TestNewBadPalette(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.pal")
	tcheck(t, os.WriteFile(path, make([]byte, 10), 0644))

	cfg := Config{General: GeneralConfig{Palette: path}}
	_, err := New(testRom(counterLoop), "", cfg, &Headless{}, nil)
	if !errors.Is(err, hw.ErrPaletteSize) {
		t.Errorf("New() = %v, want %v", err, hw.ErrPaletteSize)
	}
}

type fixedInput [2]hw.Buttons

func (in fixedInput) Buttons() (hw.Buttons, hw.Buttons) { return in[0], in[1] }

func TestInputProvider(t *testing.T) {
	// Strobe, then store the A button of both controllers at $0200 and $0201.
	prog := []uint8{
		0xA9, 0x01,       // LDA #$01
		0x8D, 0x16, 0x40, // STA $4016
		0xA9, 0x00,       // LDA #$00
		0x8D, 0x16, 0x40, // STA $4016
		0xAD, 0x16, 0x40, // LDA $4016
		0x8D, 0x00, 0x02, // STA $0200
		0xAD, 0x17, 0x40, // LDA $4017
		0x8D, 0x01, 0x02, // STA $0201
		0x4C, 0x00, 0x80, // JMP $8000
	}
	in := fixedInput{hw.ButtonA, 0}
	e, err := New(testRom(prog), "", Config{}, &Headless{}, in)
	tcheck(t, err)
	tcheck(t, e.RunOneFrame())

	if got := e.NES.CPU.RAM[0x200] & 1; got != 1 {
		t.Errorf("controller 1 A = %d, want 1", got)
	}
	if got := e.NES.CPU.RAM[0x201] & 1; got != 0 {
		t.Errorf("controller 2 A = %d, want 0", got)
	}
}

func TestSaveAsPNG(t *testing.T) {
	out := &Headless{Limit: 1}
	e := newTestEmulator(t, Config{}, out)
	tcheck(t, e.Run())

	path := filepath.Join(t.TempDir(), "frame.png")
	tcheck(t, SaveAsPNG(out.Last(), path))

	f, err := os.Open(path)
	tcheck(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	tcheck(t, err)

	want := image.Rect(0, 0, hw.ScreenWidth, hw.ScreenHeight)
	if img.Bounds() != want {
		t.Errorf("image bounds = %v, want %v", img.Bounds(), want)
	}
}

func BenchmarkRunFrame(b *testing.B) {
	e := newTestEmulator(b, Config{}, &Headless{})
	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		if err := e.RunOneFrame(); err != nil {
			b.Fatal(err)
		}
	}
}
