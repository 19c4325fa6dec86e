package hw

import (
	"errors"
	"fmt"
	"io"

	"nescore/emu/log"
	"nescore/hw/snapshot"
)

// Interrupt vectors.
const (
	NMIVector   = 0xFFFA
	ResetVector = 0xFFFC
	IRQVector   = 0xFFFE
)

// CyclesPerFrame is the number of CPU cycles in an NTSC frame.
const CyclesPerFrame = 29781

var (
	ErrBadOpcode     = errors.New("undecodable opcode")
	ErrUnmappedWrite = errors.New("write to unmapped address")
)

// Bus is the CPU view of the rest of the system.
type Bus interface {
	Read8(addr uint16) uint8
	Write8(addr uint16, val uint8) error
	Peek8(addr uint16) uint8

	// Tick is called once per CPU cycle, before the memory access of that
	// cycle (if any).
	Tick()
}

// CPU is the 2A03 6502 core along with the 2KB of work RAM.
type CPU struct {
	A, X, Y uint8
	SP      uint8
	PC      uint16
	P       P
	Cycles  int64

	RAM [0x800]uint8

	nmi bool
	irq bool

	bus    Bus
	err    error
	tracer *tracer
}

// NewCPU returns a CPU connected to bus. Call PowerOn before running it.
func NewCPU(bus Bus) *CPU {
	return &CPU{bus: bus}
}

type interrupt uint8

const (
	intNMI interrupt = iota
	intReset
	intIRQ
	intBRK
)

var vectors = [...]uint16{
	intNMI:   NMIVector,
	intReset: ResetVector,
	intIRQ:   IRQVector,
	intBRK:   IRQVector,
}

// PowerOn puts the CPU in its power-up state and runs the reset sequence.
func (c *CPU) PowerOn() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0
	c.P = 0x34
	c.Cycles = 0
	c.nmi, c.irq = false, false
	c.err = nil
	clear(c.RAM[:])
	c.interrupt(intReset)
}

// Reset runs the reset sequence.
func (c *CPU) Reset() {
	c.interrupt(intReset)
}

// SetNMI asserts the non-maskable interrupt line. It is acknowledged as soon
// as the interrupt is serviced.
func (c *CPU) SetNMI() { c.nmi = true }

// SetIRQ sets the state of the interrupt request line.
func (c *CPU) SetIRQ(v bool) { c.irq = v }

// Err returns the fatal error which stopped the CPU, if any.
func (c *CPU) Err() error { return c.err }

func (c *CPU) fail(err error) {
	if c.err == nil {
		c.err = err
		log.ModCPU.ErrorZ("cpu halted").Hex16("PC", c.PC).Error("err", err).End()
	}
}

// SetTrace enables (w != nil) or disables the execution trace.
func (c *CPU) SetTrace(w io.Writer) {
	if w == nil {
		c.tracer = nil
		return
	}
	c.tracer = &tracer{cpu: c, w: w}
}

// RunFrame executes instructions until a full frame worth of CPU cycles have
// elapsed. The cycle counter is taken modulo the frame length on entry.
func (c *CPU) RunFrame() error {
	c.Cycles %= CyclesPerFrame
	for c.Cycles < CyclesPerFrame && c.err == nil {
		c.step()
	}
	return c.err
}

// Run executes instructions until at least ncycles have elapsed.
func (c *CPU) Run(ncycles int64) error {
	until := c.Cycles + ncycles
	for c.Cycles < until && c.err == nil {
		c.step()
	}
	return c.err
}

// Step services pending interrupts, then executes a single instruction.
func (c *CPU) Step() error {
	if c.err == nil {
		c.step()
	}
	return c.err
}

func (c *CPU) step() {
	switch {
	case c.nmi:
		c.interrupt(intNMI)
	case c.irq && !c.P.has(Interrupt):
		c.interrupt(intIRQ)
	}

	if c.tracer != nil {
		c.tracer.write()
	}

	opcode := c.fetch8()
	op := &ops[opcode]
	if op.exec == nil {
		c.PC--
		c.fail(fmt.Errorf("%w $%02X at $%04X", ErrBadOpcode, opcode, c.PC))
		return
	}
	op.exec(c, op.mode)
}

// interrupt runs the interrupt sequence t. BRK has one cycle less than
// NMI/IRQ since its opcode fetch already took one.
func (c *CPU) interrupt(t interrupt) {
	c.tick()
	if t != intBRK {
		c.tick()
	}

	if t != intReset {
		c.push16(c.PC)
		c.push8(c.P.pushed(t == intBRK))
	} else {
		c.SP -= 3
		c.tick()
		c.tick()
		c.tick()
	}

	c.P.set(Interrupt)
	c.PC = c.read16(vectors[t])
	if t == intNMI {
		c.nmi = false
	}
}

// DMAOAM copies the 256 bytes page at page*0x100 into PPU OAM.
func (c *CPU) DMAOAM(page uint8) {
	base := uint16(page) << 8
	for i := range uint16(256) {
		c.Write8(0x2014, c.Read8(base+i))
	}
}

func (c *CPU) tick() {
	c.Cycles++
	c.bus.Tick()
}

// Read8 reads a byte from the bus, consuming a cycle.
func (c *CPU) Read8(addr uint16) uint8 {
	c.tick()
	return c.bus.Read8(addr)
}

// Write8 writes a byte to the bus, consuming a cycle.
func (c *CPU) Write8(addr uint16, val uint8) {
	c.tick()
	if err := c.bus.Write8(addr, val); err != nil {
		c.fail(err)
	}
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.Read8(addr))
	hi := uint16(c.Read8(addr + 1))
	return hi<<8 | lo
}

// read16zp reads a 16-bit pointer in zero page, wrapping around $FF.
func (c *CPU) read16zp(zp uint8) uint16 {
	lo := uint16(c.Read8(uint16(zp)))
	hi := uint16(c.Read8(uint16(zp + 1)))
	return hi<<8 | lo
}

func (c *CPU) fetch8() uint8 {
	val := c.Read8(c.PC)
	c.PC++
	return val
}

func (c *CPU) fetch16() uint16 {
	val := c.read16(c.PC)
	c.PC += 2
	return val
}

func (c *CPU) push8(val uint8) {
	c.Write8(0x0100|uint16(c.SP), val)
	c.SP--
}

func (c *CPU) push16(val uint16) {
	c.push8(uint8(val >> 8))
	c.push8(uint8(val))
}

func (c *CPU) pull8() uint8 {
	c.SP++
	return c.Read8(0x0100 | uint16(c.SP))
}

func (c *CPU) pull16() uint16 {
	lo := uint16(c.pull8())
	hi := uint16(c.pull8())
	return hi<<8 | lo
}

// SaveState writes RAM, then A, X, Y, PC, SP, P, the interrupt lines and the
// cycle counter.
func (c *CPU) SaveState(e *snapshot.Encoder) {
	e.Bytes(c.RAM[:])
	e.Uint8(c.A)
	e.Uint8(c.X)
	e.Uint8(c.Y)
	e.Uint16(c.PC)
	e.Uint8(c.SP)
	e.Uint8(uint8(c.P))
	e.Bool(c.nmi)
	e.Bool(c.irq)
	e.Int64(c.Cycles)
}

func (c *CPU) LoadState(d *snapshot.Decoder) {
	d.Bytes(c.RAM[:])
	c.A = d.Uint8()
	c.X = d.Uint8()
	c.Y = d.Uint8()
	c.PC = d.Uint16()
	c.SP = d.Uint8()
	c.P = P(d.Uint8())
	c.nmi = d.Bool()
	c.irq = d.Bool()
	c.Cycles = d.Int64()
}
