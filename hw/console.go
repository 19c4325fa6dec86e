package hw

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"nescore/emu/log"
	"nescore/hw/mappers"
	"nescore/hw/snapshot"
	"nescore/ines"
)

var (
	ErrNoCartridge = errors.New("no cartridge loaded")
	ErrPoweredOff  = errors.New("console is powered off")
)

// Console is a complete NES: it owns the CPU, the PPU, the cartridge and the
// controller ports, and wires them together.
type Console struct {
	CPU   *CPU
	PPU   *PPU
	Cart  *mappers.Cartridge
	Input Controllers

	rom      *ines.Rom
	romName  string
	basePath string
	palette  Palette
	trace    io.Writer

	on  bool
	err error // fatal error latched during emulation
}

func NewConsole() *Console {
	return &Console{
		basePath: ".",
		palette:  DefaultPalette,
	}
}

// SetBasePath sets the directory where snapshot files are stored.
func (c *Console) SetBasePath(dir string) { c.basePath = dir }

// SetPalette changes the RGB palette used to convert rendered frames.
func (c *Console) SetPalette(p Palette) {
	c.palette = p
	if c.PPU != nil {
		c.PPU.SetPalette(p)
	}
}

// SetTrace enables (w != nil) or disables the CPU execution trace.
func (c *Console) SetTrace(w io.Writer) {
	c.trace = w
	c.setupTrace()
}

func (c *Console) setupTrace() {
	if c.CPU == nil {
		return
	}
	c.CPU.SetTrace(c.trace)
	if c.CPU.tracer != nil {
		c.CPU.tracer.ppuPos = c.PPU.Position
	}
}

// LoadROM loads the cartridge image at path, applying the IPS patch at
// patchPath first, if not empty. The console is left powered off.
func (c *Console) LoadROM(path, patchPath string) error {
	rom, err := ines.Open(path, patchPath)
	if err != nil {
		return fmt.Errorf("load rom: %w", err)
	}
	if err := c.LoadROMData(rom); err != nil {
		return err
	}
	c.SetROMName(path)
	return nil
}

// SetROMName derives the snapshot file name from the ROM path.
func (c *Console) SetROMName(path string) {
	c.romName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// LoadROMData inserts the cartridge built from rom. The console is left
// powered off.
func (c *Console) LoadROMData(rom *ines.Rom) error {
	cart, err := mappers.Load(rom)
	if err != nil {
		return fmt.Errorf("load cartridge: %w", err)
	}

	c.PowerOff()
	bus := &sysbus{cart: cart, input: &c.Input}
	cpu := NewCPU(bus)
	ppu := NewPPU(cart, cpu)
	ppu.SetPalette(c.palette)
	bus.cpu, bus.ppu = cpu, ppu
	cart.ConnectIRQ(cpu)

	c.CPU, c.PPU, c.Cart = cpu, ppu, cart
	c.rom = rom
	c.romName = "rom"
	c.setupTrace()

	log.ModEmu.InfoZ("cartridge loaded").
		String("mapper", cart.Name()).
		Uint16("number", cart.Number()).
		Int("prg", len(rom.PRG)).
		Int("chr", len(rom.CHR)).
		Stringer("mirroring", rom.Mirroring()).
		End()
	return nil
}

// Rom returns the cartridge image, nil if none is loaded.
func (c *Console) Rom() *ines.Rom { return c.rom }

// PowerOn puts every component in its power-up state and runs the reset
// sequence. It also clears any fatal error.
func (c *Console) PowerOn() error {
	if c.Cart == nil {
		return ErrNoCartridge
	}
	c.Cart.Reset()
	c.PPU.Reset()
	c.Input = Controllers{}
	c.CPU.PowerOn()
	c.err = nil
	c.on = true
	return nil
}

func (c *Console) PowerOff() { c.on = false }

// Reset presses the reset button.
func (c *Console) Reset() {
	if c.on {
		c.CPU.Reset()
	}
}

// RunFrame runs the CPU for one frame worth of cycles. Once a fatal error is
// returned, it keeps returning it until the console is powered on again.
func (c *Console) RunFrame() error {
	switch {
	case c.err != nil:
		return c.err
	case !c.on:
		return ErrPoweredOff
	}
	if err := c.CPU.RunFrame(); err != nil {
		c.err = fmt.Errorf("emulation stopped at $%04X: %w", c.CPU.PC, err)
		return c.err
	}
	return nil
}

// FrameBuffer returns the last complete frame. The image is updated in place
// by RunFrame.
func (c *Console) FrameBuffer() *image.RGBA {
	if c.PPU == nil {
		return image.NewRGBA(image.Rect(0, 0, ScreenWidth, ScreenHeight))
	}
	return c.PPU.Output()
}

// SetController sets the state of the buttons of the controller on port.
func (c *Console) SetController(port int, b Buttons) {
	c.Input.SetButtons(port, b)
}

// SaveState writes a snapshot of the console.
func (c *Console) SaveState(w io.Writer) error {
	if c.Cart == nil {
		return ErrNoCartridge
	}
	bw := bufio.NewWriter(w)
	if err := snapshot.NewEncoder(bw).Save(c.CPU, c.PPU, c.Cart, &c.Input); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return bw.Flush()
}

// LoadState restores a snapshot written by SaveState. If the snapshot can't
// be loaded, the console is left as it was.
func (c *Console) LoadState(r io.Reader) error {
	if c.Cart == nil {
		return ErrNoCartridge
	}

	var backup bytes.Buffer
	if err := snapshot.NewEncoder(&backup).Save(c.CPU, c.PPU, c.Cart, &c.Input); err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	d := snapshot.NewDecoder(bufio.NewReader(r))
	if err := d.Load(c.CPU, c.PPU, c.Cart, &c.Input); err != nil {
		if rerr := snapshot.NewDecoder(&backup).Load(c.CPU, c.PPU, c.Cart, &c.Input); rerr != nil {
			c.err = fmt.Errorf("restore state: %w", rerr)
			c.on = false
		}
		return fmt.Errorf("load state: %w", err)
	}
	c.err = nil
	c.on = true
	return nil
}

// SnapshotPath returns the path of the snapshot file of the current ROM.
func (c *Console) SnapshotPath() string {
	return filepath.Join(c.basePath, c.romName+".snap")
}

// SaveSnapshot writes the snapshot file, creating or replacing it.
func (c *Console) SaveSnapshot() error {
	path := c.SnapshotPath()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.SaveState(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.ModSnapshot.InfoZ("snapshot saved").String("path", path).End()
	return nil
}

// LoadSnapshot restores the snapshot file. A missing file is not an error.
func (c *Console) LoadSnapshot() error {
	path := c.SnapshotPath()
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.ModSnapshot.InfoZ("no snapshot to load").String("path", path).End()
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	if err := c.LoadState(f); err != nil {
		return err
	}
	log.ModSnapshot.InfoZ("snapshot loaded").String("path", path).End()
	return nil
}
