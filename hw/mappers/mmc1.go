package mappers

import (
	"nescore/hw/snapshot"
	"nescore/ines"
)

var MMC1 = MapperDesc{
	Name: "MMC1",
	kind: kindMMC1,
}

type mmc1 struct {
	serial  uint8    // shift register
	counter uint8    // count of bits shifted
	regs    [4]uint8 // CTRL, CHR0, CHR1, PRG
}

func (m *mmc1) save(e *snapshot.Encoder) {
	e.Uint8(m.serial)
	e.Uint8(m.counter)
	e.Bytes(m.regs[:])
}

func (m *mmc1) load(d *snapshot.Decoder) {
	m.serial = d.Uint8()
	m.counter = d.Uint8()
	d.Bytes(m.regs[:])
}

func (c *Cartridge) resetMMC1() {
	// On powerup bits 2,3 of CTRL are set: $8000 is switchable and $C000 is
	// fixed to the last bank.
	c.mmc1 = mmc1{regs: [4]uint8{0x0C, 0, 0, 0}}
	c.applyMMC1()
}

func (c *Cartridge) writeMMC1(addr uint16, val uint8) {
	if addr < 0x8000 {
		c.writePRGRAM(addr, val)
		return
	}

	m := &c.mmc1
	if val&0x80 != 0 {
		// Reset bit: clear the shift register and set 16KB PRG mode with
		// $C000 fixed, other bits of CTRL unchanged.
		m.serial = 0
		m.counter = 0
		m.regs[0] |= 0x0C
		c.applyMMC1()
		return
	}

	m.serial = (m.serial >> 1) | (val&1)<<4
	m.counter++
	if m.counter == 5 {
		reg := (addr & 0x6000) >> 13
		m.regs[reg] = m.serial
		m.serial = 0
		m.counter = 0

		modMapper.DebugZ("write reg").String("mapper", c.desc.Name).Uint16("reg", reg).Hex8("val", m.regs[reg]).End()
		c.applyMMC1()
	}
}

// CTRL register ($8000-$9FFF)
//
//	4bit0
//	-----
//	CPPMM
//	|||||
//	|||++- Mirroring (0: one-screen, lower bank; 1: one-screen, upper bank;
//	|||               2: vertical; 3: horizontal)
//	|++--- PRG ROM bank mode (0, 1: switch 32 KB at $8000, ignoring low bit of bank number;
//	|                         2: fix first bank at $8000 and switch 16 KB bank at $C000;
//	|                         3: fix last bank at $C000 and switch 16 KB bank at $8000)
//	+----- CHR ROM bank mode (0: switch 8 KB at a time; 1: switch two separate 4 KB banks)
func (c *Cartridge) applyMMC1() {
	regs := &c.mmc1.regs
	prg := int(regs[3] & 0x0F)

	switch (regs[0] >> 2) & 0b11 {
	case 0, 1:
		c.setPRGMap(32, 0, prg>>1)
	case 2:
		c.setPRGMap(16, 0, 0)
		c.setPRGMap(16, 1, prg)
	case 3:
		c.setPRGMap(16, 0, prg)
		c.setPRGMap(16, 1, -1)
	}

	if regs[0]&0x10 != 0 {
		c.setCHRMap(4, 0, int(regs[1]))
		c.setCHRMap(4, 1, int(regs[2]))
	} else {
		c.setCHRMap(8, 0, int(regs[1]>>1))
	}

	switch regs[0] & 0b11 {
	case 0:
		c.SetMirroring(ines.OnlyAScreen)
	case 1:
		c.SetMirroring(ines.OnlyBScreen)
	case 2:
		c.SetMirroring(ines.VertMirroring)
	case 3:
		c.SetMirroring(ines.HorzMirroring)
	}
}
