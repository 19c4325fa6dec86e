package hw

import (
	"fmt"
	"io"
)

// tracer writes one nestest-like line per executed instruction.
type tracer struct {
	cpu *CPU
	w   io.Writer
	buf []byte

	// ppuPos, if set, reports the current PPU scanline and dot.
	ppuPos func() (scanline, dot int)
}

func hexEncode(dst []byte, v byte) {
	const hextable = "0123456789ABCDEF"
	dst[0] = hextable[v>>4]
	dst[1] = hextable[v&0x0f]
}

// write the execution trace line for the instruction at PC.
func (t *tracer) write() {
	c := t.cpu
	d := c.Disasm(c.PC)

	// PC and instruction bytes: "C000  4C F5 C5  "
	buf := append(t.buf[:0], "0000  "...)
	hexEncode(buf[0:], uint8(d.PC>>8))
	hexEncode(buf[2:], uint8(d.PC))
	for _, b := range d.Bytes {
		buf = append(buf, 0, 0, ' ')
		hexEncode(buf[len(buf)-3:], b)
	}
	for len(buf) < 15 {
		buf = append(buf, ' ')
	}
	if d.Unofficial {
		buf = append(buf, '*')
	} else {
		buf = append(buf, ' ')
	}

	buf = append(buf, d.Opcode...)
	if d.Oper != "" {
		buf = append(buf, ' ')
		buf = append(buf, d.Oper...)
	}
	for len(buf) < 48 {
		buf = append(buf, ' ')
	}

	buf = fmt.Appendf(buf, "A:%02X X:%02X Y:%02X P:%02X SP:%02X ", c.A, c.X, c.Y, uint8(c.P), c.SP)
	if t.ppuPos != nil {
		scanline, dot := t.ppuPos()
		buf = fmt.Appendf(buf, "PPU:%3d,%3d ", scanline, dot)
	}
	buf = fmt.Appendf(buf, "CYC:%d\n", c.Cycles)

	t.buf = buf
	t.w.Write(buf)
}
