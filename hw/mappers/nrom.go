package mappers

var NROM = MapperDesc{
	Name: "NROM",
	kind: kindNROM,
}

func (c *Cartridge) resetNROM() {
	// 16KB PRG is mirrored at $C000.
	c.setPRGMap(32, 0, 0)
	c.setCHRMap(8, 0, 0)
}

func (c *Cartridge) writeNROM(addr uint16, val uint8) {
	if addr < 0x8000 {
		c.writePRGRAM(addr, val)
		return
	}
	modMapper.DebugZ("ignored write to PRG ROM").String("mapper", c.desc.Name).Hex16("addr", addr).Hex8("val", val).End()
}
