package hw

// mode is an addressing mode.
//
// The 'd' suffixed modes are used by stores and read-modify-write
// instructions: they always pay the extra cycle that the plain indexed modes
// only pay when the effective address crosses a page.
type mode uint8

const (
	imp  mode = iota // implied
	acc              // accumulator
	imm              // #$nn
	zpg              // $nn
	zpx              // $nn,X
	zpy              // $nn,Y
	abs              // $nnnn
	abx              // $nnnn,X
	aby              // $nnnn,Y
	ind              // ($nnnn)
	izx              // ($nn,X)
	izy              // ($nn),Y
	rel              // branch target
	abxd             // $nnnn,X (always 5 cycles)
	abyd             // $nnnn,Y (always 5 cycles)
	izyd             // ($nn),Y (always 6 cycles)
)

// operandSize returns the number of operand bytes following the opcode.
func (m mode) operandSize() uint16 {
	switch m {
	case imp, acc:
		return 0
	case abs, abx, aby, ind, abxd, abyd:
		return 2
	}
	return 1
}

func pagecrossed(a, b uint16) bool {
	return a&0xFF00 != b&0xFF00
}

// resolve consumes the operand bytes of the current instruction and returns
// the effective address, ticking the CPU as many times as the hardware does.
func (c *CPU) resolve(m mode) uint16 {
	switch m {
	case imm:
		c.PC++
		return c.PC - 1
	case zpg:
		return uint16(c.fetch8())
	case zpx:
		c.tick()
		return uint16(c.fetch8() + c.X)
	case zpy:
		c.tick()
		return uint16(c.fetch8() + c.Y)
	case abs:
		return c.fetch16()
	case abx:
		base := c.fetch16()
		addr := base + uint16(c.X)
		if pagecrossed(base, addr) {
			c.tick()
		}
		return addr
	case aby:
		base := c.fetch16()
		addr := base + uint16(c.Y)
		if pagecrossed(base, addr) {
			c.tick()
		}
		return addr
	case abxd:
		c.tick()
		return c.fetch16() + uint16(c.X)
	case abyd:
		c.tick()
		return c.fetch16() + uint16(c.Y)
	case ind:
		ptr := c.fetch16()
		// The pointer high byte is fetched without carry into the page.
		lo := uint16(c.Read8(ptr))
		hi := uint16(c.Read8(ptr&0xFF00 | uint16(uint8(ptr)+1)))
		return hi<<8 | lo
	case izx:
		c.tick()
		return c.read16zp(c.fetch8() + c.X)
	case izy:
		base := c.read16zp(c.fetch8())
		addr := base + uint16(c.Y)
		if pagecrossed(base, addr) {
			c.tick()
		}
		return addr
	case izyd:
		c.tick()
		return c.read16zp(c.fetch8()) + uint16(c.Y)
	}
	panic("resolve: no address for mode " + m.String())
}

func (m mode) String() string {
	names := [...]string{
		imp: "imp", acc: "acc", imm: "imm", zpg: "zpg", zpx: "zpx", zpy: "zpy",
		abs: "abs", abx: "abx", aby: "aby", ind: "ind", izx: "izx", izy: "izy",
		rel: "rel", abxd: "abx", abyd: "aby", izyd: "izy",
	}
	if int(m) < len(names) {
		return names[m]
	}
	return "???"
}

// Peek variants: compute operands and effective addresses of the instruction
// at pc without side effects.

func (c *CPU) peek16(addr uint16) uint16 {
	return uint16(c.bus.Peek8(addr)) | uint16(c.bus.Peek8(addr+1))<<8
}

func (c *CPU) peek16zp(zp uint8) uint16 {
	return uint16(c.bus.Peek8(uint16(zp))) | uint16(c.bus.Peek8(uint16(zp+1)))<<8
}

// peekOperand returns the raw operand of the instruction at pc.
func (c *CPU) peekOperand(m mode, pc uint16) uint16 {
	switch m.operandSize() {
	case 1:
		return uint16(c.bus.Peek8(pc + 1))
	case 2:
		return c.peek16(pc + 1)
	}
	return 0
}

// peekAddr returns the effective address the instruction at pc would access,
// ok is false for modes without memory operand.
func (c *CPU) peekAddr(m mode, pc uint16) (addr uint16, ok bool) {
	oper := c.peekOperand(m, pc)
	switch m {
	case zpg:
		return oper, true
	case zpx:
		return uint16(uint8(oper) + c.X), true
	case zpy:
		return uint16(uint8(oper) + c.Y), true
	case abs:
		return oper, true
	case abx, abxd:
		return oper + uint16(c.X), true
	case aby, abyd:
		return oper + uint16(c.Y), true
	case ind:
		lo := uint16(c.bus.Peek8(oper))
		hi := uint16(c.bus.Peek8(oper&0xFF00 | uint16(uint8(oper)+1)))
		return hi<<8 | lo, true
	case izx:
		return c.peek16zp(uint8(oper) + c.X), true
	case izy, izyd:
		return c.peek16zp(uint8(oper)) + uint16(c.Y), true
	case rel:
		return pc + 2 + uint16(int8(oper)), true
	}
	return 0, false
}
