package hw

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"nescore/ines"
)

/* general testing helpers */

func tcheck(tb testing.TB, err error) {
	if err == nil {
		return
	}

	tb.Helper()
	tb.Fatalf("fatal error:\n\n%s\n", err)
}

func tcheckf(tb testing.TB, err error, format string, args ...any) {
	if err == nil {
		return
	}

	tb.Helper()
	tb.Fatalf("fatal error:\n\n%s: %s\n", fmt.Sprintf(format, args...), err)
}

// flatBus is a 64KB RAM bus, for CPU tests.
type flatBus struct {
	mem   [0x10000]uint8
	ticks int64
}

func (b *flatBus) Read8(addr uint16) uint8 { return b.mem[addr] }

func (b *flatBus) Write8(addr uint16, val uint8) error {
	b.mem[addr] = val
	return nil
}

func (b *flatBus) Peek8(addr uint16) uint8 { return b.mem[addr] }

func (b *flatBus) Tick() { b.ticks++ }

// load parses a memory dump such as:
//
//	0600: a2 40 e0 41
//	0700: ea
func (b *flatBus) load(tb testing.TB, dump string) {
	tb.Helper()
	for _, line := range strings.Split(strings.TrimSpace(dump), "\n") {
		saddr, sbytes, ok := strings.Cut(line, ":")
		if !ok {
			tb.Fatalf("malformed dump line %q", line)
		}
		addr, err := strconv.ParseUint(strings.TrimSpace(saddr), 16, 16)
		tcheckf(tb, err, "dump line %q", line)
		for _, sb := range strings.Fields(sbytes) {
			v, err := strconv.ParseUint(sb, 16, 8)
			tcheckf(tb, err, "dump line %q", line)
			b.mem[addr] = uint8(v)
			addr++
		}
	}
}

// loadCPUWith returns a CPU connected to a flat bus loaded with dump,
// PC set to the address of the first line.
func loadCPUWith(tb testing.TB, dump string) (*CPU, *flatBus) {
	tb.Helper()
	bus := new(flatBus)
	bus.load(tb, dump)

	cpu := NewCPU(bus)
	first, _, _ := strings.Cut(strings.TrimSpace(dump), ":")
	pc, err := strconv.ParseUint(first, 16, 16)
	tcheck(tb, err)
	cpu.PC = uint16(pc)
	cpu.SP = 0xFD
	cpu.P = Reserved | Interrupt
	return cpu, bus
}

// nromImage returns a 32KB NROM image running prog from $8000, with every
// interrupt vector pointing to it. chr holds the first bytes of CHR ROM.
func nromImage(prog []uint8, chr []uint8) *ines.Rom {
	prg := make([]byte, 0x8000)
	copy(prg, prog)
	for _, v := range []int{0x7FFA, 0x7FFC, 0x7FFE} {
		prg[v], prg[v+1] = 0x00, 0x80
	}
	chrrom := make([]byte, 0x2000)
	copy(chrrom, chr)
	return ines.NewRom(0, ines.VertMirroring, prg, chrrom)
}

// newTestConsole returns a powered on console running rom.
func newTestConsole(tb testing.TB, rom *ines.Rom) *Console {
	tb.Helper()
	nes := NewConsole()
	tcheck(tb, nes.LoadROMData(rom))
	tcheck(tb, nes.PowerOn())
	return nes
}
