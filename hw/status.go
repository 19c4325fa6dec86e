package hw

// P is the processor status register.
type P uint8

const (
	Carry P = 1 << iota
	Zero
	Interrupt
	Decimal
	Break
	Reserved
	Overflow
	Negative
)

func (p P) String() string {
	const bits = "nvubdizcNVUBDIZC"

	s := make([]byte, 8)
	for i := range 8 {
		ibit := (uint8(p) >> (7 - i)) & 1
		s[i] = bits[i+int(8*ibit)]
	}
	return string(s)
}

func (p *P) set(flags P) { *p |= flags }

func (p *P) clear(flags P) { *p &^= flags }

func (p P) has(flag P) bool { return p&flag == flag }

func (p *P) setTo(flag P, v bool) {
	if v {
		p.set(flag)
	} else {
		p.clear(flag)
	}
}

// setNZ updates Negative and Zero from val.
func (p *P) setNZ(val uint8) {
	p.clear(Zero | Negative)
	if val == 0 {
		p.set(Zero)
	}
	*p |= P(val & 0x80)
}

// pushed returns the status byte as pushed on the stack. Break is only set for
// BRK and PHP, Reserved is always set.
func (p P) pushed(brk bool) uint8 {
	v := p | Reserved
	if brk {
		v |= Break
	} else {
		v &^= Break
	}
	return uint8(v)
}

// pulled loads the status from a stacked value, Break and Reserved bits are
// not affected.
func (p *P) pulled(val uint8) {
	const mask = 0b11001111
	*p = P(uint8(*p)&^mask | val&mask)
}
