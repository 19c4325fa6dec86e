package hw

import (
	"nescore/emu/log"
	"nescore/hw/mappers"
	"nescore/ines"
)

//go:generate go tool stringer -type=Target

// Target is the device serving an address on the CPU or PPU bus.
type Target uint8

const (
	TargetNone Target = iota
	TargetRAM
	TargetPPU
	TargetAPU
	TargetDMA
	TargetController
	TargetStrobe
	TargetCartridge
	TargetCHR
	TargetNametable
	TargetPalette
)

// DecodeCPU returns the device responding to a CPU access at addr.
//
//	$0000-$1FFF  internal RAM, mirrored every 2KB
//	$2000-$3FFF  PPU registers, mirrored every 8 bytes
//	$4000-$4013  APU
//	$4014        OAM DMA (write), APU (read)
//	$4015        APU
//	$4016        controllers (read), strobe (write)
//	$4017        controller 2 (read), APU frame counter (write)
//	$4018-$5FFF  unmapped
//	$6000-$FFFF  cartridge
func DecodeCPU(addr uint16, write bool) Target {
	switch {
	case addr < 0x2000:
		return TargetRAM
	case addr < 0x4000:
		return TargetPPU
	case addr == 0x4014:
		if write {
			return TargetDMA
		}
		return TargetAPU
	case addr == 0x4016:
		if write {
			return TargetStrobe
		}
		return TargetController
	case addr == 0x4017:
		if write {
			return TargetAPU
		}
		return TargetController
	case addr < 0x4018:
		return TargetAPU
	case addr < 0x6000:
		return TargetNone
	}
	return TargetCartridge
}

// DecodePPU returns the device responding to a PPU access at addr. Only the
// low 14 bits of addr are decoded.
func DecodePPU(addr uint16) Target {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		return TargetCHR
	case addr < 0x3F00:
		return TargetNametable
	}
	return TargetPalette
}

// NTMirror maps a nametable address ($2000-$3EFF) to an offset in nametable
// RAM, according to the mirroring mode m. Offsets are below $800, except in
// four-screen mode.
func NTMirror(m ines.NTMirroring, addr uint16) uint16 {
	switch m {
	case ines.VertMirroring:
		return addr % 0x800
	case ines.HorzMirroring:
		return ((addr / 2) & 0x400) + addr%0x400
	case ines.OnlyAScreen:
		return addr % 0x400
	case ines.OnlyBScreen:
		return 0x400 + addr%0x400
	}
	return addr & 0xFFF
}

// paletteIndex maps a palette address ($3F00-$3FFF) to an offset in palette
// RAM. $3F10/$3F14/$3F18/$3F1C alias the background entries.
func paletteIndex(addr uint16) uint16 {
	if addr&0x13 == 0x10 {
		addr &^= 0x10
	}
	return addr & 0x1F
}

// sysbus connects the CPU to the rest of the console.
type sysbus struct {
	cpu   *CPU
	ppu   *PPU
	cart  *mappers.Cartridge
	input *Controllers
}

func (b *sysbus) Tick() {
	b.ppu.Tick()
	b.ppu.Tick()
	b.ppu.Tick()
}

func (b *sysbus) Read8(addr uint16) uint8 {
	switch DecodeCPU(addr, false) {
	case TargetRAM:
		return b.cpu.RAM[addr%0x800]
	case TargetPPU:
		return b.ppu.ReadReg(addr % 8)
	case TargetController:
		return b.input.Read(int(addr - 0x4016))
	case TargetCartridge:
		return b.cart.PRGRead(addr)
	case TargetAPU:
		return 0xFF
	}
	log.ModMem.DebugZ("unmapped read").Hex16("addr", addr).End()
	return 0
}

func (b *sysbus) Peek8(addr uint16) uint8 {
	switch DecodeCPU(addr, false) {
	case TargetRAM:
		return b.cpu.RAM[addr%0x800]
	case TargetPPU:
		return b.ppu.PeekReg(addr % 8)
	case TargetController:
		return b.input.Peek(int(addr - 0x4016))
	case TargetCartridge:
		return b.cart.PRGRead(addr)
	case TargetAPU:
		return 0xFF
	}
	return 0
}

func (b *sysbus) Write8(addr uint16, val uint8) error {
	switch DecodeCPU(addr, true) {
	case TargetRAM:
		b.cpu.RAM[addr%0x800] = val
	case TargetPPU:
		b.ppu.WriteReg(addr%8, val)
	case TargetDMA:
		b.cpu.DMAOAM(val)
	case TargetStrobe:
		b.input.Strobe(val&1 != 0)
	case TargetCartridge:
		return b.cart.PRGWrite(addr, val)
	case TargetAPU:
	default:
		log.ModMem.WarnZ("unmapped write").Hex16("addr", addr).Hex8("val", val).End()
		return ErrUnmappedWrite
	}
	return nil
}
