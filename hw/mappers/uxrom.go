package mappers

import "fmt"

var UxROM = MapperDesc{
	Name: "UxROM",
	kind: kindUxROM,
}

func (c *Cartridge) resetUxROM() {
	c.applyUxROM()
}

func (c *Cartridge) writeUxROM(addr uint16, val uint8) error {
	if addr < 0x8000 {
		return fmt.Errorf("%s: %w at $%04X", c.desc.Name, ErrPRGWrite, addr)
	}

	// 7  bit  0
	// ---- ----
	// xxxx pPPP
	//      ||||
	//      ++++- Select 16 KB PRG ROM bank for CPU $8000-$BFFF
	//            (UNROM uses bits 2-0; UOROM uses bits 3-0)
	c.latch = val
	c.applyUxROM()
	return nil
}

func (c *Cartridge) applyUxROM() {
	c.setPRGMap(16, 0, int(c.latch&0x0F))
	c.setPRGMap(16, 1, -1)
	c.setCHRMap(8, 0, 0)
}
