package hw

// Instruction bodies. Each one receives the addressing mode of the opcode
// being executed; the opcode fetch has already taken place.

func (c *CPU) operand(m mode) uint8 {
	return c.Read8(c.resolve(m))
}

// rmw runs a read-modify-write cycle on the operand (or on A, in accumulator
// mode) and returns the written value.
func (c *CPU) rmw(m mode, f func(*CPU, uint8) uint8) uint8 {
	if m == acc {
		c.tick()
		c.A = f(c, c.A)
		return c.A
	}
	addr := c.resolve(m)
	val := c.Read8(addr)
	c.tick()
	val = f(c, val)
	c.Write8(addr, val)
	return val
}

// loads and stores

func lda(c *CPU, m mode) { c.A = c.operand(m); c.P.setNZ(c.A) }
func ldx(c *CPU, m mode) { c.X = c.operand(m); c.P.setNZ(c.X) }
func ldy(c *CPU, m mode) { c.Y = c.operand(m); c.P.setNZ(c.Y) }
func sta(c *CPU, m mode) { c.Write8(c.resolve(m), c.A) }
func stx(c *CPU, m mode) { c.Write8(c.resolve(m), c.X) }
func sty(c *CPU, m mode) { c.Write8(c.resolve(m), c.Y) }

// transfers

func tax(c *CPU, _ mode) { c.tick(); c.X = c.A; c.P.setNZ(c.X) }
func tay(c *CPU, _ mode) { c.tick(); c.Y = c.A; c.P.setNZ(c.Y) }
func txa(c *CPU, _ mode) { c.tick(); c.A = c.X; c.P.setNZ(c.A) }
func tya(c *CPU, _ mode) { c.tick(); c.A = c.Y; c.P.setNZ(c.A) }
func tsx(c *CPU, _ mode) { c.tick(); c.X = c.SP; c.P.setNZ(c.X) }
func txs(c *CPU, _ mode) { c.tick(); c.SP = c.X }

// stack

func pha(c *CPU, _ mode) { c.tick(); c.push8(c.A) }
func php(c *CPU, _ mode) { c.tick(); c.push8(c.P.pushed(true)) }

func pla(c *CPU, _ mode) {
	c.tick()
	c.tick()
	c.A = c.pull8()
	c.P.setNZ(c.A)
}

func plp(c *CPU, _ mode) {
	c.tick()
	c.tick()
	c.P.pulled(c.pull8())
}

// arithmetic and logic

// add is shared by ADC and SBC, SBC adds the one's complement of its operand.
func (c *CPU) add(val uint8) {
	sum := uint16(c.A) + uint16(val)
	if c.P.has(Carry) {
		sum++
	}
	res := uint8(sum)
	c.P.setTo(Carry, sum > 0xFF)
	c.P.setTo(Overflow, (c.A^res)&(val^res)&0x80 != 0)
	c.A = res
	c.P.setNZ(c.A)
}

func adc(c *CPU, m mode) { c.add(c.operand(m)) }
func sbc(c *CPU, m mode) { c.add(c.operand(m) ^ 0xFF) }
func and(c *CPU, m mode) { c.A &= c.operand(m); c.P.setNZ(c.A) }
func ora(c *CPU, m mode) { c.A |= c.operand(m); c.P.setNZ(c.A) }
func eor(c *CPU, m mode) { c.A ^= c.operand(m); c.P.setNZ(c.A) }

func (c *CPU) compare(reg, val uint8) {
	c.P.setTo(Carry, reg >= val)
	c.P.setNZ(reg - val)
}

func cmpa(c *CPU, m mode) { c.compare(c.A, c.operand(m)) }
func cpx(c *CPU, m mode) { c.compare(c.X, c.operand(m)) }
func cpy(c *CPU, m mode) { c.compare(c.Y, c.operand(m)) }

func bit(c *CPU, m mode) {
	val := c.operand(m)
	c.P.setTo(Zero, c.A&val == 0)
	c.P.setTo(Overflow, val&0x40 != 0)
	c.P.setTo(Negative, val&0x80 != 0)
}

// increments and decrements

func incv(c *CPU, v uint8) uint8 { v++; c.P.setNZ(v); return v }
func decv(c *CPU, v uint8) uint8 { v--; c.P.setNZ(v); return v }

func inc(c *CPU, m mode) { c.rmw(m, incv) }
func dec(c *CPU, m mode) { c.rmw(m, decv) }
func inx(c *CPU, _ mode) { c.tick(); c.X = incv(c, c.X) }
func iny(c *CPU, _ mode) { c.tick(); c.Y = incv(c, c.Y) }
func dex(c *CPU, _ mode) { c.tick(); c.X = decv(c, c.X) }
func dey(c *CPU, _ mode) { c.tick(); c.Y = decv(c, c.Y) }

// shifts and rotates: Carry receives the bit shifted out.

func aslv(c *CPU, v uint8) uint8 {
	c.P.setTo(Carry, v&0x80 != 0)
	v <<= 1
	c.P.setNZ(v)
	return v
}

func lsrv(c *CPU, v uint8) uint8 {
	c.P.setTo(Carry, v&0x01 != 0)
	v >>= 1
	c.P.setNZ(v)
	return v
}

func rolv(c *CPU, v uint8) uint8 {
	carry := uint8(c.P & Carry)
	c.P.setTo(Carry, v&0x80 != 0)
	v = v<<1 | carry
	c.P.setNZ(v)
	return v
}

func rorv(c *CPU, v uint8) uint8 {
	carry := uint8(c.P&Carry) << 7
	c.P.setTo(Carry, v&0x01 != 0)
	v = v>>1 | carry
	c.P.setNZ(v)
	return v
}

func asl(c *CPU, m mode) { c.rmw(m, aslv) }
func lsr(c *CPU, m mode) { c.rmw(m, lsrv) }
func rol(c *CPU, m mode) { c.rmw(m, rolv) }
func ror(c *CPU, m mode) { c.rmw(m, rorv) }

// flags

func clc(c *CPU, _ mode) { c.tick(); c.P.clear(Carry) }
func cld(c *CPU, _ mode) { c.tick(); c.P.clear(Decimal) }
func cli(c *CPU, _ mode) { c.tick(); c.P.clear(Interrupt) }
func clv(c *CPU, _ mode) { c.tick(); c.P.clear(Overflow) }
func sec(c *CPU, _ mode) { c.tick(); c.P.set(Carry) }
func sed(c *CPU, _ mode) { c.tick(); c.P.set(Decimal) }
func sei(c *CPU, _ mode) { c.tick(); c.P.set(Interrupt) }

// jumps, calls and branches

func jmp(c *CPU, m mode) { c.PC = c.resolve(m) }

func jsr(c *CPU, _ mode) {
	lo := uint16(c.fetch8())
	c.tick()
	// PC now points to the last byte of the instruction.
	c.push16(c.PC)
	hi := uint16(c.Read8(c.PC))
	c.PC = hi<<8 | lo
}

func rts(c *CPU, _ mode) {
	c.tick()
	c.tick()
	c.PC = c.pull16() + 1
	c.tick()
}

func rti(c *CPU, m mode) {
	plp(c, m)
	c.PC = c.pull16()
}

func brk(c *CPU, _ mode) {
	c.PC++ // padding byte
	c.interrupt(intBRK)
}

func (c *CPU) branch(taken bool) {
	off := int8(c.fetch8())
	if !taken {
		return
	}
	c.tick()
	dst := c.PC + uint16(off)
	if pagecrossed(c.PC, dst) {
		c.tick()
	}
	c.PC = dst
}

func bpl(c *CPU, _ mode) { c.branch(!c.P.has(Negative)) }
func bmi(c *CPU, _ mode) { c.branch(c.P.has(Negative)) }
func bvc(c *CPU, _ mode) { c.branch(!c.P.has(Overflow)) }
func bvs(c *CPU, _ mode) { c.branch(c.P.has(Overflow)) }
func bcc(c *CPU, _ mode) { c.branch(!c.P.has(Carry)) }
func bcs(c *CPU, _ mode) { c.branch(c.P.has(Carry)) }
func bne(c *CPU, _ mode) { c.branch(!c.P.has(Zero)) }
func beq(c *CPU, _ mode) { c.branch(c.P.has(Zero)) }

func nop(c *CPU, m mode) {
	if m == imp {
		c.tick()
		return
	}
	c.operand(m)
}

// unofficial opcodes

func lax(c *CPU, m mode) {
	c.A = c.operand(m)
	c.X = c.A
	c.P.setNZ(c.A)
}

func sax(c *CPU, m mode) { c.Write8(c.resolve(m), c.A&c.X) }

func dcp(c *CPU, m mode) {
	val := c.rmw(m, func(_ *CPU, v uint8) uint8 { return v - 1 })
	c.compare(c.A, val)
}

func isc(c *CPU, m mode) {
	val := c.rmw(m, func(_ *CPU, v uint8) uint8 { return v + 1 })
	c.add(val ^ 0xFF)
}

func slo(c *CPU, m mode) {
	c.A |= c.rmw(m, aslv)
	c.P.setNZ(c.A)
}

func rla(c *CPU, m mode) {
	c.A &= c.rmw(m, rolv)
	c.P.setNZ(c.A)
}

func sre(c *CPU, m mode) {
	c.A ^= c.rmw(m, lsrv)
	c.P.setNZ(c.A)
}

func rra(c *CPU, m mode) {
	c.add(c.rmw(m, rorv))
}

func anc(c *CPU, m mode) {
	c.A &= c.operand(m)
	c.P.setNZ(c.A)
	c.P.setTo(Carry, c.A&0x80 != 0)
}

func alr(c *CPU, m mode) {
	c.A = lsrv(c, c.A&c.operand(m))
}

func arr(c *CPU, m mode) {
	c.A &= c.operand(m)
	c.A = c.A>>1 | uint8(c.P&Carry)<<7
	c.P.setNZ(c.A)
	c.P.setTo(Carry, c.A&0x40 != 0)
	c.P.setTo(Overflow, (c.A>>6^c.A>>5)&1 != 0)
}

func lxa(c *CPU, m mode) {
	c.A = c.operand(m)
	c.X = c.A
	c.P.setNZ(c.A)
}

func ane(c *CPU, m mode) {
	const magic = 0xEE
	c.A = (c.A | magic) & c.X & c.operand(m)
	c.P.setNZ(c.A)
}

func sbx(c *CPU, m mode) {
	ax := c.A & c.X
	val := c.operand(m)
	c.P.setTo(Carry, ax >= val)
	c.X = ax - val
	c.P.setNZ(c.X)
}

func las(c *CPU, m mode) {
	c.A = c.operand(m) & c.SP
	c.X = c.A
	c.SP = c.A
	c.P.setNZ(c.A)
}

// sh implements the unstable SHA/SHX/SHY/TAS stores: the stored value is ANDed
// with the high byte of the base address plus one, which also replaces the
// high byte of the effective address when indexing crosses a page.
func (c *CPU) sh(m mode, val uint8) {
	addr := c.resolve(m)
	var idx uint8
	switch m {
	case abxd:
		idx = c.X
	default:
		idx = c.Y
	}
	base := addr - uint16(idx)
	hi := uint8(base>>8) + 1
	val &= hi
	if pagecrossed(base, addr) {
		addr = uint16(val)<<8 | addr&0x00FF
	}
	c.Write8(addr, val)
}

func sha(c *CPU, m mode) { c.sh(m, c.A&c.X) }
func shx(c *CPU, m mode) { c.sh(m, c.X) }
func shy(c *CPU, m mode) { c.sh(m, c.Y) }

func tas(c *CPU, m mode) {
	c.SP = c.A & c.X
	c.sh(m, c.SP)
}
