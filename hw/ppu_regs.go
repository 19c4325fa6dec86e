package hw

import "nescore/emu/log"

const (
	// PPUCTRL bits
	// $2000

	// Nametable selection mask
	// (0 = $2000; 1 = $2400; 2 = $2800; 3 = $2C00)
	ntselect = 0b11

	// VRAM address increment per CPU read/write of PPUDATA
	// (0: +1 i.e. horizontal; 1: +32 i.e. vertical)
	vramIncr = 2

	// Sprite pattern table address for 8x8 sprites
	// (0: $0000; 1: $1000; ignored in 8x16 mode)
	spriteAddr = 3

	// Background pattern table address (0: $0000; 1: $1000)
	backgroundAddr = 4

	// Sprite size (0: 8x8 pixels; 1: 8x16 pixels)
	spriteSize = 5

	// Generate an NMI at the start of the
	// vertical blanking interval (0: off; 1: on)
	nmiOnVblank = 7
)

const (
	// PPUMASK bits
	// $2001

	// Greyscale
	// (0: normal color, 1: produce a greyscale display)
	greyscale = 0

	// Show background in leftmost 8 pixels of screen
	leftmostBg = 1

	// Show sprites in leftmost 8 pixels of screen
	leftmostSprites = 2

	showBg      = 3
	showSprites = 4

	// Emphasis bits, red, green then blue.
	emphasisShift = 5
)

const (
	// PPUSTATUS bits
	// $2002

	// Stale PPU bus contents.
	openbusMask = 0b11111

	// Sprite overflow. Set when more than 8 sprites are found on a
	// scanline, cleared at dot 1 of the pre-render line.
	spriteOverflow = 5

	// Sprite 0 Hit. Set when a nonzero pixel of sprite 0 overlaps
	// a nonzero background pixel; cleared at dot 1 of the pre-render
	// line.
	sprite0Hit = 6

	// Vertical blank has started. Set at dot 1 of line 241, cleared
	// after reading $2002 and at dot 1 of the pre-render line.
	vblank = 7
)

// loopy is a VRAM address register, as described by Loopy:
//
//	yyy NN YYYYY XXXXX
//	||| || ||||| +++++-- coarse X scroll
//	||| || +++++-------- coarse Y scroll
//	||| ++-------------- nametable select
//	+++----------------- fine Y scroll
type loopy uint16

func (l loopy) coarseX() uint16 { return uint16(l) & 0x1F }

func (l loopy) coarseY() uint16 { return uint16(l) >> 5 & 0x1F }

func (l loopy) nametable() uint16 { return uint16(l) >> 10 & 0b11 }

func (l loopy) fineY() uint16 { return uint16(l) >> 12 & 0b111 }

// addr is the 14-bit VRAM address.
func (l loopy) addr() uint16 { return uint16(l) & 0x3FFF }

func (l *loopy) setCoarseX(v uint16) { *l = *l&^0x1F | loopy(v&0x1F) }

func (l *loopy) setCoarseY(v uint16) { *l = *l&^(0x1F<<5) | loopy(v&0x1F)<<5 }

func (l *loopy) setNametable(v uint16) { *l = *l&^(0b11<<10) | loopy(v&0b11)<<10 }

func (l *loopy) setFineY(v uint16) { *l = *l&^(0b111<<12) | loopy(v&0b111)<<12 }

// ReadReg reads the PPU register at index reg (0-7), with side effects.
func (p *PPU) ReadReg(reg uint16) uint8 {
	switch reg {
	case 2: // PPUSTATUS
		p.res = p.res&openbusMask | p.status
		p.status &^= 1 << vblank
		p.latch = false
	case 4: // OAMDATA
		p.res = p.oamMem[p.oamAddr]
	case 7: // PPUDATA
		addr := p.v.addr()
		if addr <= 0x3EFF {
			// Reading VRAM is delayed by one read.
			p.res = p.buffer
			p.buffer = p.read(addr)
		} else {
			// Palette reads are immediate but still refill the buffer.
			p.buffer = p.read(addr)
			p.res = p.buffer
		}
		p.incVRAMaddr()
	}
	return p.res
}

// PeekReg returns what ReadReg would return, without side effects.
func (p *PPU) PeekReg(reg uint16) uint8 {
	switch reg {
	case 2:
		return p.res&openbusMask | p.status
	case 4:
		return p.oamMem[p.oamAddr]
	case 7:
		if addr := p.v.addr(); addr > 0x3EFF {
			return p.read(addr)
		}
		return p.buffer
	}
	return p.res
}

// WriteReg writes val into the PPU register at index reg (0-7).
func (p *PPU) WriteReg(reg uint16, val uint8) {
	p.res = val
	switch reg {
	case 0:
		p.writePPUCTRL(val)
	case 1:
		p.writePPUMASK(val)
	case 3: // OAMADDR
		p.oamAddr = val
	case 4: // OAMDATA
		p.oamMem[p.oamAddr] = val
		p.oamAddr++
	case 5:
		p.writePPUSCROLL(val)
	case 6:
		p.writePPUADDR(val)
	case 7: // PPUDATA
		p.write(p.v.addr(), val)
		p.incVRAMaddr()
	}
}

// PPUCTRL: $2000
func (p *PPU) writePPUCTRL(val uint8) {
	log.ModPPU.DebugZ("Write to PPUCTRL").Hex8("val", val).End()
	p.ctrl = val
	p.t.setNametable(uint16(val & ntselect))
	p.updateCtrl()
}

// updateCtrl refreshes the fields derived from PPUCTRL.
func (p *PPU) updateCtrl() {
	p.vramIncr = 1
	if p.ctrl&(1<<vramIncr) != 0 {
		p.vramIncr = 32
	}
	p.sprHeight = 8
	if p.ctrl&(1<<spriteSize) != 0 {
		p.sprHeight = 16
	}
	p.bgTable = uint16(p.ctrl>>backgroundAddr&1) * 0x1000
	p.sprTable = uint16(p.ctrl>>spriteAddr&1) * 0x1000
}

// PPUMASK: $2001
func (p *PPU) writePPUMASK(val uint8) {
	log.ModPPU.DebugZ("Write to PPUMASK").Hex8("val", val).End()
	p.mask = val
	p.updateMask()
}

// updateMask refreshes the fields derived from PPUMASK.
func (p *PPU) updateMask() {
	p.grayMask = 0xFF
	if p.mask&(1<<greyscale) != 0 {
		p.grayMask = 0x30
	}
	p.rendering = p.mask&(1<<showBg|1<<showSprites) != 0
}

// PPUSCROLL: $2005
func (p *PPU) writePPUSCROLL(val uint8) {
	if !p.latch {
		p.fineX = val & 0b111
		p.t.setCoarseX(uint16(val >> 3))
	} else {
		p.t.setFineY(uint16(val))
		p.t.setCoarseY(uint16(val >> 3))
	}
	p.latch = !p.latch
}

// To read/write VRAM from CPU, PPUADDR is set to the address of the operation.
// It's a 16-bit register so 2 writes are necessary.
// PPUADDR: $2006
func (p *PPU) writePPUADDR(val uint8) {
	if !p.latch {
		p.t = p.t&0xFF | loopy(val&0x3F)<<8
	} else {
		p.t = p.t&0x7F00 | loopy(val)
		p.v = p.t
	}
	p.latch = !p.latch
}

// After each i/o on PPUDATA, PPUADDR is incremented.
func (p *PPU) incVRAMaddr() {
	p.v = (p.v + loopy(p.vramIncr)) & 0x7FFF
}
