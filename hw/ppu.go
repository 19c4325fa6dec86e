package hw

import (
	"image"

	"nescore/emu/log"
	"nescore/hw/snapshot"
	"nescore/ines"
)

const (
	NumScanlines = 262 // Number of scanlines per frame.
	NumCycles    = 341 // Number of PPU cycles per scanline.

	ScreenWidth  = 256
	ScreenHeight = 240
)

// PPUBus is the view the PPU has of the cartridge.
type PPUBus interface {
	CHRRead(addr uint16) uint8
	CHRWrite(addr uint16, val uint8)
	Mirroring() ines.NTMirroring
	ScanlineCounter()
}

// NMILine receives the vertical blank interrupt.
type NMILine interface {
	SetNMI()
}

// noSprite marks a void sprite slot.
const noSprite = 64

type sprite struct {
	id    uint8 // index in OAM, noSprite if void
	x     uint8
	y     uint8
	tile  uint8
	attr  uint8
	dataL uint8
	dataH uint8
}

// PPU is the 2C02 picture processing unit, emulated dot by dot.
type PPU struct {
	cart PPUBus
	nmi  NMILine

	Scanline int // Current scanline being drawn
	Cycle    int // Current cycle/pixel in scanline
	oddFrame bool
	frames   uint64

	ciRAM  [0x1000]uint8 // nametables, only 2KB are used unless four-screen
	cgRAM  [0x20]uint8   // palettes
	oamMem [0x100]uint8

	oam    [8]sprite // sprites of the current scanline
	secOAM [8]sprite // sprites being evaluated for the next scanline

	ctrl   uint8
	mask   uint8
	status uint8

	// derived from ctrl and mask
	vramIncr  uint16
	sprHeight int
	bgTable   uint16
	sprTable  uint16
	grayMask  uint8
	rendering bool

	res    uint8 // last value put on the data bus
	buffer uint8 // PPUDATA read buffer
	latch  bool  // write toggle shared by PPUSCROLL and PPUADDR

	v, t    loopy
	fineX   uint8
	oamAddr uint8

	// Background fetch latches and shift registers
	fetchAddr          uint16
	nt, at             uint8
	bgL, bgH           uint8
	atShiftL, atShiftH uint8
	bgShiftL, bgShiftH uint16
	atLatchL, atLatchH bool

	work   [ScreenWidth * ScreenHeight]uint16 // emphasis<<6 | color
	screen *image.RGBA
	colors [8 * 64][4]uint8
}

// NewPPU returns a PPU reading pattern tables from cart and raising
// interrupts on nmi.
func NewPPU(cart PPUBus, nmi NMILine) *PPU {
	p := &PPU{
		cart:   cart,
		nmi:    nmi,
		screen: image.NewRGBA(image.Rect(0, 0, ScreenWidth, ScreenHeight)),
	}
	p.SetPalette(DefaultPalette)
	p.Reset()
	return p
}

// Output returns the last complete frame.
func (p *PPU) Output() *image.RGBA {
	return p.screen
}

// Frames returns the number of frames completed since reset.
func (p *PPU) Frames() uint64 { return p.frames }

// Pixels returns the color indices being rendered, each holding the emphasis
// bits in bits 6-8 and the palette color in bits 0-5.
func (p *PPU) Pixels() []uint16 { return p.work[:] }

func (p *PPU) Reset() {
	p.Scanline, p.Cycle = 0, 0
	p.oddFrame = false
	p.frames = 0
	p.ctrl, p.mask, p.status = 0, 0, 0
	p.updateCtrl()
	p.updateMask()
	p.res, p.buffer, p.latch = 0, 0, false
	p.v, p.t, p.fineX, p.oamAddr = 0, 0, 0, 0
	clear(p.work[:])
	clear(p.ciRAM[:])
	clear(p.cgRAM[:])
	clear(p.oamMem[:])
	p.clearOAM()
	for i := range p.oam {
		p.oam[i] = p.secOAM[i]
	}
}

// Position returns the scanline and dot about to be processed.
func (p *PPU) Position() (scanline, dot int) {
	return p.Scanline, p.Cycle
}

// read reads the PPU bus.
func (p *PPU) read(addr uint16) uint8 {
	addr &= 0x3FFF
	switch DecodePPU(addr) {
	case TargetCHR:
		return p.cart.CHRRead(addr)
	case TargetNametable:
		return p.ciRAM[NTMirror(p.cart.Mirroring(), addr)]
	}
	return p.cgRAM[paletteIndex(addr)] & p.grayMask
}

// write writes to the PPU bus.
func (p *PPU) write(addr uint16, val uint8) {
	addr &= 0x3FFF
	switch DecodePPU(addr) {
	case TargetCHR:
		p.cart.CHRWrite(addr, val)
	case TargetNametable:
		p.ciRAM[NTMirror(p.cart.Mirroring(), addr)] = val
	case TargetPalette:
		p.cgRAM[paletteIndex(addr)] = val
	}
}

// Tick advances the PPU by one dot.
func (p *PPU) Tick() {
	switch {
	case p.Scanline < 240:
		p.doScanline(renderMode)
	case p.Scanline == 240:
		p.doScanline(postRender)
	case p.Scanline == 241:
		p.doScanline(vblankNMI)
	case p.Scanline == 261:
		p.doScanline(preRender)
	}

	p.Cycle++
	if p.Cycle >= NumCycles {
		p.Cycle %= NumCycles
		p.Scanline++
		if p.Scanline >= NumScanlines {
			p.Scanline = 0
			p.oddFrame = !p.oddFrame
		}
	}
}

type scanlineMode int

const (
	preRender scanlineMode = iota
	renderMode
	postRender
	vblankNMI
)

func (p *PPU) doScanline(sm scanlineMode) {
	switch sm {
	case vblankNMI:
		if p.Cycle == 1 {
			p.status |= 1 << vblank
			if p.ctrl&(1<<nmiOnVblank) != 0 {
				p.nmi.SetNMI()
			}
		}
		return
	case postRender:
		if p.Cycle == 0 {
			p.present()
		}
		return
	}

	// Sprites
	switch p.Cycle {
	case 1:
		p.clearOAM()
		if sm == preRender {
			p.status &^= 1<<spriteOverflow | 1<<sprite0Hit
		}
	case 257:
		p.evalSprites()
	case 321:
		p.loadSprites()
	}

	// Background
	switch c := p.Cycle; {
	case c >= 2 && c <= 255, c >= 322 && c <= 337:
		p.renderPixel()
		switch c % 8 {
		case 1: // nametable
			p.fetchAddr = p.ntAddr()
			p.reloadShift()
		case 2:
			p.nt = p.read(p.fetchAddr)
		case 3: // attribute
			p.fetchAddr = p.atAddr()
		case 4:
			p.at = p.read(p.fetchAddr)
			if p.v.coarseY()&2 != 0 {
				p.at >>= 4
			}
			if p.v.coarseX()&2 != 0 {
				p.at >>= 2
			}
		case 5: // background low bits
			p.fetchAddr = p.bgAddr()
		case 6:
			p.bgL = p.read(p.fetchAddr)
		case 7: // background high bits
			p.fetchAddr += 8
		case 0:
			p.bgH = p.read(p.fetchAddr)
			p.incHorz()
		}
	case c == 256:
		p.renderPixel()
		p.bgH = p.read(p.fetchAddr)
		p.incVert()
	case c == 257:
		p.renderPixel()
		p.reloadShift()
		p.copyHorz()
	case c >= 280 && c <= 304:
		if sm == preRender {
			p.copyVert()
		}
	case c == 1:
		p.fetchAddr = p.ntAddr()
		if sm == preRender {
			p.status &^= 1 << vblank
		}
	case c == 321, c == 339:
		p.fetchAddr = p.ntAddr()
	case c == 338:
		p.nt = p.read(p.fetchAddr)
	case c == 340:
		p.nt = p.read(p.fetchAddr)
		// Odd frames are one dot shorter when rendering.
		if sm == preRender && p.rendering && p.oddFrame {
			p.Cycle++
		}
	}

	if p.Cycle == 260 && p.rendering {
		p.cart.ScanlineCounter()
	}
}

func (p *PPU) ntAddr() uint16 { return 0x2000 | uint16(p.v)&0xFFF }

func (p *PPU) atAddr() uint16 {
	return 0x23C0 | p.v.nametable()<<10 | (p.v.coarseY()/4)<<3 | p.v.coarseX()/4
}

func (p *PPU) bgAddr() uint16 {
	return p.bgTable + uint16(p.nt)*16 + p.v.fineY()
}

func (p *PPU) incHorz() {
	if !p.rendering {
		return
	}
	if p.v.coarseX() == 31 {
		p.v ^= 0x41F
	} else {
		p.v.setCoarseX(p.v.coarseX() + 1)
	}
}

func (p *PPU) incVert() {
	if !p.rendering {
		return
	}
	if fy := p.v.fineY(); fy < 7 {
		p.v.setFineY(fy + 1)
		return
	}
	p.v.setFineY(0)
	switch cy := p.v.coarseY(); cy {
	case 31:
		p.v.setCoarseY(0)
	case 29:
		p.v.setCoarseY(0)
		p.v ^= 0b10 << 10
	default:
		p.v.setCoarseY(cy + 1)
	}
}

func (p *PPU) copyHorz() {
	if p.rendering {
		p.v = p.v&^0x041F | p.t&0x041F
	}
}

func (p *PPU) copyVert() {
	if p.rendering {
		p.v = p.v&^0x7BE0 | p.t&0x7BE0
	}
}

func (p *PPU) reloadShift() {
	p.bgShiftL = p.bgShiftL&0xFF00 | uint16(p.bgL)
	p.bgShiftH = p.bgShiftH&0xFF00 | uint16(p.bgH)
	p.atLatchL = p.at&1 != 0
	p.atLatchH = p.at&2 != 0
}

func (p *PPU) clearOAM() {
	for i := range p.secOAM {
		p.secOAM[i] = sprite{id: noSprite, x: 0xFF, y: 0xFF, tile: 0xFF, attr: 0xFF}
	}
}

// evalSprites fills secondary OAM with the sprites of the current scanline.
func (p *PPU) evalSprites() {
	line := p.Scanline
	if line == 261 {
		line = -1
	}
	n := 0
	for i := range 64 {
		y := p.oamMem[i*4]
		row := line - int(y)
		if row < 0 || row >= p.sprHeight {
			continue
		}
		if n == len(p.secOAM) {
			p.status |= 1 << spriteOverflow
			break
		}
		p.secOAM[n] = sprite{
			id:   uint8(i),
			y:    y,
			tile: p.oamMem[i*4+1],
			attr: p.oamMem[i*4+2],
			x:    p.oamMem[i*4+3],
		}
		n++
	}
}

// loadSprites copies secondary OAM into the sprites used for rendering, and
// fetches their pattern data.
func (p *PPU) loadSprites() {
	h := p.sprHeight
	for i := range p.oam {
		spr := p.secOAM[i]

		var addr uint16
		if h == 16 {
			addr = uint16(spr.tile&1)*0x1000 + uint16(spr.tile&^1)*16
		} else {
			addr = p.sprTable + uint16(spr.tile)*16
		}

		row := ((p.Scanline-int(spr.y))%h + h) % h
		if spr.attr&0x80 != 0 { // vertical flip
			row ^= h - 1
		}
		addr += uint16(row + row&8) // second tile of 8x16 sprites

		spr.dataL = p.read(addr)
		spr.dataH = p.read(addr + 8)
		if spr.attr&0x40 != 0 { // horizontal flip
			spr.dataL = reverseBits[spr.dataL]
			spr.dataH = reverseBits[spr.dataH]
		}
		p.oam[i] = spr
	}
}

func (p *PPU) renderPixel() {
	x := p.Cycle - 2
	if p.Scanline < 240 && x >= 0 && x < ScreenWidth {
		var pal, objPal uint8
		var behind bool

		if p.mask&(1<<showBg) != 0 && (p.mask&(1<<leftmostBg) != 0 || x >= 8) {
			shift := 15 - p.fineX
			pal = uint8(p.bgShiftH>>shift&1)<<1 | uint8(p.bgShiftL>>shift&1)
			if pal != 0 {
				shift = 7 - p.fineX
				pal |= (p.atShiftH>>shift&1<<1 | p.atShiftL>>shift&1) << 2
			}
		}

		if p.mask&(1<<showSprites) != 0 && (p.mask&(1<<leftmostSprites) != 0 || x >= 8) {
			// Lower indices have priority, so they are drawn last.
			for i := len(p.oam) - 1; i >= 0; i-- {
				spr := &p.oam[i]
				if spr.id == noSprite {
					continue
				}
				sx := x - int(spr.x)
				if sx < 0 || sx >= 8 {
					continue
				}
				spal := (spr.dataH>>(7-sx)&1)<<1 | spr.dataL>>(7-sx)&1
				if spal == 0 {
					continue
				}
				if spr.id == 0 && pal != 0 && x != 255 {
					p.status |= 1 << sprite0Hit
				}
				objPal = 16 + (spal | (spr.attr&3)<<2)
				behind = spr.attr&0x20 != 0
			}
		}

		if objPal != 0 && (pal == 0 || !behind) {
			pal = objPal
		}
		if !p.rendering {
			pal = 0
		}
		color := p.read(0x3F00+uint16(pal)) & 0x3F
		p.work[p.Scanline*ScreenWidth+x] = uint16(p.mask>>emphasisShift)<<6 | uint16(color)
	}

	p.bgShiftL <<= 1
	p.bgShiftH <<= 1
	p.atShiftL = p.atShiftL<<1 | b2u8(p.atLatchL)
	p.atShiftH = p.atShiftH<<1 | b2u8(p.atLatchH)
}

// present converts the work buffer into the output image.
func (p *PPU) present() {
	pix := p.screen.Pix
	for i, c := range p.work {
		copy(pix[i*4:i*4+4], p.colors[c][:])
	}
	p.frames++
	log.ModPPU.DebugZ("frame complete").Uint64("frame", p.frames).End()
}

func b2u8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// reverseBits maps a byte to its bit-reversed value.
var reverseBits = func() (t [256]uint8) {
	for i := range t {
		for b := range 8 {
			t[i] |= uint8(i>>b&1) << (7 - b)
		}
	}
	return t
}()

// SaveState writes the nametables, palettes, OAM, mirroring, dot counters,
// registers, bus latches, VRAM addresses and background latches.
func (p *PPU) SaveState(e *snapshot.Encoder) {
	e.Bytes(p.ciRAM[:])
	e.Bytes(p.cgRAM[:])
	e.Bytes(p.oamMem[:])
	e.Uint8(uint8(p.cart.Mirroring()))

	e.Int(p.Scanline)
	e.Int(p.Cycle)
	e.Bool(p.oddFrame)
	e.Uint64(p.frames)

	e.Uint8(p.ctrl)
	e.Uint8(p.mask)
	e.Uint8(p.status)

	e.Uint8(p.res)
	e.Uint8(p.buffer)
	e.Bool(p.latch)

	e.Uint16(uint16(p.v))
	e.Uint16(uint16(p.t))
	e.Uint8(p.fineX)
	e.Uint8(p.oamAddr)

	e.Uint16(p.fetchAddr)
	e.Uint8(p.nt)
	e.Uint8(p.at)
	e.Uint8(p.bgL)
	e.Uint8(p.bgH)
	e.Uint8(p.atShiftL)
	e.Uint8(p.atShiftH)
	e.Uint16(p.bgShiftL)
	e.Uint16(p.bgShiftH)
	e.Bool(p.atLatchL)
	e.Bool(p.atLatchH)
}

// LoadState reads a state written by SaveState, then rebuilds the sprite
// buffers.
func (p *PPU) LoadState(d *snapshot.Decoder) {
	d.Bytes(p.ciRAM[:])
	d.Bytes(p.cgRAM[:])
	d.Bytes(p.oamMem[:])
	d.Uint8() // mirroring, restored with the cartridge

	p.Scanline = d.Int()
	p.Cycle = d.Int()
	p.oddFrame = d.Bool()
	p.frames = d.Uint64()

	p.ctrl = d.Uint8()
	p.mask = d.Uint8()
	p.status = d.Uint8()
	p.updateCtrl()
	p.updateMask()

	p.res = d.Uint8()
	p.buffer = d.Uint8()
	p.latch = d.Bool()

	p.v = loopy(d.Uint16())
	p.t = loopy(d.Uint16())
	p.fineX = d.Uint8()
	p.oamAddr = d.Uint8()

	p.fetchAddr = d.Uint16()
	p.nt = d.Uint8()
	p.at = d.Uint8()
	p.bgL = d.Uint8()
	p.bgH = d.Uint8()
	p.atShiftL = d.Uint8()
	p.atShiftH = d.Uint8()
	p.bgShiftL = d.Uint16()
	p.bgShiftH = d.Uint16()
	p.atLatchL = d.Bool()
	p.atLatchH = d.Bool()

	if p.Scanline < 0 || p.Scanline >= NumScanlines || p.Cycle < 0 || p.Cycle >= NumCycles {
		d.Fail(snapshot.ErrShort)
		return
	}
	p.rebuildSprites()
}

// rebuildSprites recomputes the sprite buffers as they were at the current
// position: primary OAM was loaded at dot 321 of the current line, or of the
// previous one, and secondary OAM evaluated at dot 257.
func (p *PPU) rebuildSprites() {
	status := p.status
	cur := p.Scanline
	if p.Cycle < 321 {
		p.Scanline = (cur + NumScanlines - 1) % NumScanlines
	}
	p.clearOAM()
	p.evalSprites()
	p.loadSprites()

	p.Scanline = cur
	p.clearOAM()
	if p.Cycle >= 257 {
		p.evalSprites()
	}
	p.status = status
}
