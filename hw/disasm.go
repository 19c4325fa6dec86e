package hw

import "fmt"

// DisasmOp is the disassembly of a single instruction.
type DisasmOp struct {
	PC         uint16
	Bytes      []byte // opcode and operand bytes
	Opcode     string // mnemonic
	Oper       string // operand, with effective address and value when relevant
	Unofficial bool
}

func (d DisasmOp) String() string {
	return fmt.Sprintf("%04X  %-9X %s %s", d.PC, d.Bytes, d.Opcode, d.Oper)
}

// Disasm disassembles the instruction at pc. It has no side effects.
func (c *CPU) Disasm(pc uint16) DisasmOp {
	opcode := c.bus.Peek8(pc)
	op := &ops[opcode]

	d := DisasmOp{
		PC:         pc,
		Opcode:     op.name,
		Unofficial: op.unofficial,
	}
	for i := range op.mode.operandSize() + 1 {
		d.Bytes = append(d.Bytes, c.bus.Peek8(pc+i))
	}

	oper := c.peekOperand(op.mode, pc)
	addr, _ := c.peekAddr(op.mode, pc)
	val := c.bus.Peek8(addr)

	switch op.mode {
	case imp:
	case acc:
		d.Oper = "A"
	case imm:
		d.Oper = fmt.Sprintf("#$%02X", oper)
	case zpg:
		d.Oper = fmt.Sprintf("$%02X = %02X", oper, val)
	case zpx:
		d.Oper = fmt.Sprintf("$%02X,X @ %02X = %02X", oper, addr, val)
	case zpy:
		d.Oper = fmt.Sprintf("$%02X,Y @ %02X = %02X", oper, addr, val)
	case abs:
		if op.name == "JMP" || op.name == "JSR" {
			d.Oper = fmt.Sprintf("$%04X", oper)
		} else {
			d.Oper = fmt.Sprintf("$%04X = %02X", oper, val)
		}
	case abx, abxd:
		d.Oper = fmt.Sprintf("$%04X,X @ %04X = %02X", oper, addr, val)
	case aby, abyd:
		d.Oper = fmt.Sprintf("$%04X,Y @ %04X = %02X", oper, addr, val)
	case ind:
		d.Oper = fmt.Sprintf("($%04X) = %04X", oper, addr)
	case izx:
		ptr := uint8(oper) + c.X
		d.Oper = fmt.Sprintf("($%02X,X) @ %02X = %04X = %02X", oper, ptr, addr, val)
	case izy, izyd:
		base := addr - uint16(c.Y)
		d.Oper = fmt.Sprintf("($%02X),Y = %04X @ %04X = %02X", oper, base, addr, val)
	case rel:
		d.Oper = fmt.Sprintf("$%04X", addr)
	}
	return d
}
