package mappers

import (
	"nescore/hw/snapshot"
	"nescore/ines"
)

var MMC3 = MapperDesc{
	Name: "MMC3",
	kind: kindMMC3,
}

type mmc3 struct {
	bankSelect uint8
	regs       [8]uint8
	horizontal bool

	irqPeriod  uint8
	irqCounter uint8
	irqEnabled bool
}

func (m *mmc3) save(e *snapshot.Encoder) {
	e.Uint8(m.bankSelect)
	e.Bytes(m.regs[:])
	e.Bool(m.horizontal)
	e.Uint8(m.irqPeriod)
	e.Uint8(m.irqCounter)
	e.Bool(m.irqEnabled)
}

func (m *mmc3) load(d *snapshot.Decoder) {
	m.bankSelect = d.Uint8()
	d.Bytes(m.regs[:])
	m.horizontal = d.Bool()
	m.irqPeriod = d.Uint8()
	m.irqCounter = d.Uint8()
	m.irqEnabled = d.Bool()
}

func (c *Cartridge) resetMMC3() {
	c.mmc3 = mmc3{horizontal: true}
	c.setPRGMap(8, 3, -1)
	c.applyMMC3()
}

func (c *Cartridge) writeMMC3(addr uint16, val uint8) {
	if addr < 0x8000 {
		c.writePRGRAM(addr, val)
		return
	}

	m := &c.mmc3
	switch addr & 0xE001 {
	case 0x8000:
		// 7  bit  0
		// ---- ----
		// CPMx xRRR
		// |||   |||
		// |||   +++- Specify which bank register to update on next write to Bank Data register
		// ||+------- Nothing on the MMC3
		// |+-------- PRG ROM bank mode (0: $8000-$9FFF swappable, $C000-$DFFF fixed to second-last bank;
		// |                             1: $C000-$DFFF swappable, $8000-$9FFF fixed to second-last bank)
		// +--------- CHR A12 inversion (0: two 2 KB banks at $0000-$0FFF, four 1 KB banks at $1000-$1FFF;
		//                               1: two 2 KB banks at $1000-$1FFF, four 1 KB banks at $0000-$0FFF)
		m.bankSelect = val
	case 0x8001:
		m.regs[m.bankSelect&0b111] = val
	case 0xA000:
		m.horizontal = val&1 != 0
	case 0xA001:
		// PRG RAM protect, not emulated.
	case 0xC000:
		m.irqPeriod = val
	case 0xC001:
		m.irqCounter = 0
	case 0xE000:
		m.irqEnabled = false
		c.setIRQ(false)
	case 0xE001:
		m.irqEnabled = true
	}
	c.applyMMC3()
}

func (c *Cartridge) applyMMC3() {
	m := &c.mmc3

	c.setPRGMap(8, 1, int(m.regs[7]))
	if m.bankSelect&(1<<6) == 0 {
		c.setPRGMap(8, 0, int(m.regs[6]))
		c.setPRGMap(8, 2, -2)
	} else {
		c.setPRGMap(8, 0, -2)
		c.setPRGMap(8, 2, int(m.regs[6]))
	}

	if m.bankSelect&(1<<7) == 0 {
		c.setCHRMap(2, 0, int(m.regs[0]>>1))
		c.setCHRMap(2, 1, int(m.regs[1]>>1))
		for i := range 4 {
			c.setCHRMap(1, 4+i, int(m.regs[2+i]))
		}
	} else {
		for i := range 4 {
			c.setCHRMap(1, i, int(m.regs[2+i]))
		}
		c.setCHRMap(2, 2, int(m.regs[0]>>1))
		c.setCHRMap(2, 3, int(m.regs[1]>>1))
	}

	if m.horizontal {
		c.SetMirroring(ines.HorzMirroring)
	} else {
		c.SetMirroring(ines.VertMirroring)
	}
}

// The counter is reloaded when it reaches 0, or decremented. An IRQ is raised
// when it is 0 after that, if enabled.
func (c *Cartridge) scanlineMMC3() {
	m := &c.mmc3
	if m.irqCounter == 0 {
		m.irqCounter = m.irqPeriod
	} else {
		m.irqCounter--
	}
	if m.irqEnabled && m.irqCounter == 0 {
		c.setIRQ(true)
	}
}
