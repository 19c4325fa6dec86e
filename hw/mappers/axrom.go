package mappers

import (
	"fmt"

	"nescore/ines"
)

var AxROM = MapperDesc{
	Name: "AxROM",
	kind: kindAxROM,
}

func (c *Cartridge) resetAxROM() {
	c.applyAxROM()
}

func (c *Cartridge) writeAxROM(addr uint16, val uint8) error {
	if addr < 0x8000 {
		return fmt.Errorf("%s: %w at $%04X", c.desc.Name, ErrPRGWrite, addr)
	}

	// 7  bit  0
	// ---- ----
	// xxxM PPPP
	//    | ||||
	//    | ++++- Select 32 KB PRG ROM bank for CPU $8000-$FFFF
	//    +------ Select 1 KB VRAM page for all 4 nametables
	c.latch = val
	c.applyAxROM()
	return nil
}

func (c *Cartridge) applyAxROM() {
	c.setPRGMap(32, 0, int(c.latch&0x0F))
	c.setCHRMap(8, 0, 0)
	if c.latch&0x10 != 0 {
		c.SetMirroring(ines.OnlyBScreen)
	} else {
		c.SetMirroring(ines.OnlyAScreen)
	}
}
