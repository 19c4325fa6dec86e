// Package mappers implements the cartridge container and the bank switching
// logic of the supported iNES mappers.
package mappers

import (
	"errors"
	"fmt"

	"nescore/emu/log"
	"nescore/hw/snapshot"
	"nescore/ines"
)

var (
	ErrUnsupportedMapper = errors.New("unsupported mapper")
	ErrPRGWrite          = errors.New("write to PRG ROM only region")
)

type kind uint8

const (
	kindNROM kind = iota
	kindMMC1
	kindUxROM
	kindMMC3
	kindAxROM
)

type MapperDesc struct {
	Name string
	kind kind
}

var All = map[uint16]MapperDesc{
	0: NROM,
	1: MMC1,
	2: UxROM,
	4: MMC3,
	7: AxROM,
}

// IRQLine is the CPU interrupt request line, driven by mappers with a
// scanline counter.
type IRQLine interface {
	SetIRQ(bool)
}

const (
	prgSlots = 4 // 8KB each, $8000-$FFFF
	chrSlots = 8 // 1KB each, $0000-$1FFF

	chrRAMSize = 0x2000
)

// A Cartridge holds the ROM data of a game and the state of its mapper.
//
// The mapper variant is a closed set: per variant state lives in dedicated
// fields and each operation dispatches on kind.
type Cartridge struct {
	desc   MapperDesc
	number uint16

	prg    []byte
	chr    []byte
	chrRAM bool
	prgRAM []byte

	// Offsets in prg/chr for each bank slot, always < len(prg) and < len(chr).
	// Reads within a slot wrap too: images smaller than a slot are mirrored.
	prgMap [prgSlots]uint32
	chrMap [chrSlots]uint32

	board     ines.NTMirroring // as wired on the board
	mirroring ines.NTMirroring // current

	irq IRQLine

	mmc1  mmc1
	mmc3  mmc3
	latch uint8 // UxROM/AxROM bank register
}

// Load creates the cartridge for rom, along with its mapper.
func Load(rom *ines.Rom) (*Cartridge, error) {
	desc, ok := All[rom.Mapper()]
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrUnsupportedMapper, rom.Mapper())
	}
	if len(rom.PRG) == 0 {
		return nil, fmt.Errorf("mapper %s: empty PRG ROM", desc.Name)
	}

	c := &Cartridge{
		desc:   desc,
		number: rom.Mapper(),
		prg:    rom.PRG,
		chr:    rom.CHR,
		prgRAM: make([]byte, rom.PRGRAMSize()),
		board:  rom.Mirroring(),
	}
	if len(c.chr) == 0 {
		c.chr = make([]byte, chrRAMSize)
		c.chrRAM = true
	}
	c.Reset()

	modMapper.InfoZ("cartridge loaded").
		String("mapper", desc.Name).
		Int("prg", len(c.prg)).
		Int("chr", len(c.chr)).
		Bool("chrram", c.chrRAM).
		Stringer("mirroring", c.board).
		End()
	return c, nil
}

var modMapper = log.ModMapper

func (c *Cartridge) Name() string   { return c.desc.Name }
func (c *Cartridge) Number() uint16 { return c.number }

// ConnectIRQ sets the line raised by the mapper scanline counter.
func (c *Cartridge) ConnectIRQ(irq IRQLine) { c.irq = irq }

func (c *Cartridge) setIRQ(v bool) {
	if c.irq != nil {
		c.irq.SetIRQ(v)
	}
}

// Mirroring returns the current nametable mirroring.
func (c *Cartridge) Mirroring() ines.NTMirroring { return c.mirroring }

// SetMirroring changes the nametable mirroring. Four-screen boards ignore it.
func (c *Cartridge) SetMirroring(m ines.NTMirroring) {
	if c.board == ines.FourScreen {
		return
	}
	if m != c.mirroring {
		modMapper.DebugZ("select NT mirroring").String("mapper", c.desc.Name).Stringer("prev", c.mirroring).Stringer("new", m).End()
	}
	c.mirroring = m
}

// Reset puts the mapper in its power-on state.
func (c *Cartridge) Reset() {
	c.mirroring = c.board
	c.latch = 0
	switch c.desc.kind {
	case kindNROM:
		c.resetNROM()
	case kindMMC1:
		c.resetMMC1()
	case kindUxROM:
		c.resetUxROM()
	case kindMMC3:
		c.resetMMC3()
	case kindAxROM:
		c.resetAxROM()
	}
}

// PRGRead reads from the CPU $6000-$FFFF cartridge space.
func (c *Cartridge) PRGRead(addr uint16) uint8 {
	if addr >= 0x8000 {
		off := c.prgMap[(addr-0x8000)/0x2000] + uint32(addr%0x2000)
		return c.prg[off%uint32(len(c.prg))]
	}
	return c.prgRAM[int(addr-0x6000)%len(c.prgRAM)]
}

// PRGWrite writes into the CPU $6000-$FFFF cartridge space, be it PRG RAM or
// mapper registers.
func (c *Cartridge) PRGWrite(addr uint16, val uint8) error {
	switch c.desc.kind {
	case kindNROM:
		c.writeNROM(addr, val)
	case kindMMC1:
		c.writeMMC1(addr, val)
	case kindUxROM:
		return c.writeUxROM(addr, val)
	case kindMMC3:
		c.writeMMC3(addr, val)
	case kindAxROM:
		return c.writeAxROM(addr, val)
	}
	return nil
}

func (c *Cartridge) writePRGRAM(addr uint16, val uint8) {
	c.prgRAM[int(addr-0x6000)%len(c.prgRAM)] = val
}

// CHRRead reads from the PPU $0000-$1FFF pattern tables.
func (c *Cartridge) CHRRead(addr uint16) uint8 {
	return c.chr[c.chrOffset(addr)]
}

// CHRWrite writes into the pattern tables, only effective with CHR RAM.
func (c *Cartridge) CHRWrite(addr uint16, val uint8) {
	if !c.chrRAM {
		return
	}
	c.chr[c.chrOffset(addr)] = val
}

// chrOffset wraps around undersized CHR images.
func (c *Cartridge) chrOffset(addr uint16) uint32 {
	addr &= 0x1FFF
	off := c.chrMap[addr/0x400] + uint32(addr%0x400)
	return off % uint32(len(c.chr))
}

// ScanlineCounter is clocked by the PPU once per rendered scanline.
func (c *Cartridge) ScanlineCounter() {
	if c.desc.kind == kindMMC3 {
		c.scanlineMMC3()
	}
}

// setPRGMap maps the sizeKB (8, 16 or 32) PRG page at slot. A negative page
// is counted from the end of PRG.
func (c *Cartridge) setPRGMap(sizeKB, slot, page int) {
	size := len(c.prg)
	if page < 0 {
		page += size / (sizeKB * 0x400)
	}
	n := sizeKB / 8
	for i := range n {
		off := (sizeKB*0x400*page + 0x2000*i) % size
		if off < 0 {
			off += size
		}
		c.prgMap[n*slot+i] = uint32(off)
	}
}

// setCHRMap maps the sizeKB (1, 2, 4 or 8) CHR page at slot.
func (c *Cartridge) setCHRMap(sizeKB, slot, page int) {
	size := len(c.chr)
	for i := range sizeKB {
		off := (sizeKB*0x400*page + 0x400*i) % size
		if off < 0 {
			off += size
		}
		c.chrMap[sizeKB*slot+i] = uint32(off)
	}
}

// SaveState writes PRG RAM, CHR RAM (if any) then the mapper registers.
func (c *Cartridge) SaveState(e *snapshot.Encoder) {
	e.Slice(c.prgRAM)
	if c.chrRAM {
		e.Slice(c.chr)
	}

	switch c.desc.kind {
	case kindMMC1:
		c.mmc1.save(e)
	case kindUxROM, kindAxROM:
		e.Uint8(c.latch)
	case kindMMC3:
		c.mmc3.save(e)
	}
}

func (c *Cartridge) LoadState(d *snapshot.Decoder) {
	ram := d.Slice(c.prgRAM)
	if len(ram) != len(c.prgRAM) {
		d.Fail(fmt.Errorf("mapper %s: PRG RAM size mismatch %d != %d", c.desc.Name, len(ram), len(c.prgRAM)))
		return
	}
	c.prgRAM = ram
	if c.chrRAM {
		chr := d.Slice(c.chr)
		if len(chr) != chrRAMSize {
			d.Fail(fmt.Errorf("mapper %s: CHR RAM size mismatch %d", c.desc.Name, len(chr)))
			return
		}
		c.chr = chr
	}

	switch c.desc.kind {
	case kindMMC1:
		c.mmc1.load(d)
		c.applyMMC1()
	case kindUxROM:
		c.latch = d.Uint8()
		c.applyUxROM()
	case kindAxROM:
		c.latch = d.Uint8()
		c.applyAxROM()
	case kindMMC3:
		c.mmc3.load(d)
		c.applyMMC3()
	}
}
