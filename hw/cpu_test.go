package hw

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestPString(t *testing.T) {
	p := P(0b00110100)
	if got := p.String(); got != "nvUBdIzc" {
		t.Errorf("got P = %s, want %s", got, "nvUBdIzc")
	}
	p = P(0b00000100)
	if p.String() != "nvubdIzc" {
		t.Errorf("got P = %s, want %s", p.String(), "nvubdIzc")
	}
}

func TestPflag(t *testing.T) {
	p := P(0x40)
	p.set(Interrupt)
	if p != 0x44 {
		t.Errorf("got P = %q, want %q", p.String(), P(0x44))
	}

	// Negative flag
	p.setNZ(0xff)
	if !p.has(Negative) {
		t.Error("N bit should be set")
	}
	p.setNZ(0x7f)
	if p.has(Negative) {
		t.Error("N bit should not be set")
	}

	// Zero flag
	p.setNZ(0)
	if !p.has(Zero) {
		t.Error("Z bit should be set")
	}
	p.setNZ(1)
	if p.has(Zero) {
		t.Error("Z bit should not be set")
	}
	if p != 0x44 {
		t.Errorf("got P = %q, other bits should be left untouched", p.String())
	}
}

func TestPushedPulled(t *testing.T) {
	p := Carry | Negative
	if got := p.pushed(false); got != 0xA1 {
		t.Errorf("pushed(false) = %02X, want A1", got)
	}
	if got := p.pushed(true); got != 0xB1 {
		t.Errorf("pushed(true) = %02X, want B1", got)
	}

	// Break and Reserved can't be changed by a pull.
	p = Reserved
	p.pulled(0xDF)
	if p != 0xEF {
		t.Errorf("pulled(DF) = %02X, want EF", uint8(p))
	}
}

func TestCycles(t *testing.T) {
	tests := []struct {
		name   string
		dump   string
		x, y   uint8
		p      P
		cycles int64
	}{
		{name: "LDA imm", dump: `0600: a9 01`, cycles: 2},
		{name: "LDA zpg", dump: `0600: a5 10`, cycles: 3},
		{name: "LDA zpx", dump: `0600: b5 10`, cycles: 4},
		{name: "LDA abs", dump: `0600: ad 34 12`, cycles: 4},
		{name: "LDA abx", dump: `0600: bd 00 12`, x: 1, cycles: 4},
		{name: "LDA abx page cross", dump: `0600: bd ff 12`, x: 1, cycles: 5},
		{name: "LDA aby page cross", dump: `0600: b9 ff 12`, y: 1, cycles: 5},
		{name: "STA abx", dump: `0600: 9d 00 12`, cycles: 5},
		{name: "LDA izx", dump: "0600: a1 10\n0010: 00 12", cycles: 6},
		{name: "LDA izy", dump: "0600: b1 10\n0010: 00 12", y: 1, cycles: 5},
		{name: "LDA izy page cross", dump: "0600: b1 10\n0010: ff 12", y: 1, cycles: 6},
		{name: "STA izy", dump: "0600: 91 10\n0010: 00 12", cycles: 6},
		{name: "INC zpg", dump: `0600: e6 10`, cycles: 5},
		{name: "INC abx", dump: `0600: fe 00 12`, cycles: 7},
		{name: "ASL acc", dump: `0600: 0a`, cycles: 2},
		{name: "JMP abs", dump: `0600: 4c 00 07`, cycles: 3},
		{name: "JMP ind", dump: `0600: 6c 00 02`, cycles: 5},
		{name: "JSR", dump: `0600: 20 00 07`, cycles: 6},
		{name: "RTS", dump: `0600: 60`, cycles: 6},
		{name: "RTI", dump: `0600: 40`, cycles: 6},
		{name: "PHA", dump: `0600: 48`, cycles: 3},
		{name: "PLA", dump: `0600: 68`, cycles: 4},
		{name: "BRK", dump: `0600: 00`, cycles: 7},
		{name: "NOP", dump: `0600: ea`, cycles: 2},
		{name: "NOP abx page cross", dump: `0600: 1c ff 12`, x: 1, cycles: 5},
		{name: "SLO abx", dump: `0600: 1f 00 12`, cycles: 7},
		{name: "LAX izy", dump: "0600: b3 10\n0010: 00 12", cycles: 5},
		{name: "BNE not taken", dump: `0600: d0 10`, p: Zero, cycles: 2},
		{name: "BNE taken", dump: `0600: d0 10`, cycles: 3},
		{name: "BNE taken page cross", dump: `06f0: d0 20`, cycles: 4},
		{name: "BNE taken backwards page cross", dump: `0600: d0 f0`, cycles: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpu, bus := loadCPUWith(t, tt.dump)
			cpu.X, cpu.Y = tt.x, tt.y
			cpu.P |= tt.p

			tcheck(t, cpu.Step())
			if cpu.Cycles != tt.cycles {
				t.Errorf("got %d cycles, want %d", cpu.Cycles, tt.cycles)
			}
			if bus.ticks != cpu.Cycles {
				t.Errorf("bus ticked %d times for %d cycles", bus.ticks, cpu.Cycles)
			}
		})
	}
}

func TestCPx(t *testing.T) {
	tests := []struct {
		name string
		dump string
		want P
	}{
		// LDX #$40
		// CPX #$41
		{"40 - 41", `0600: a2 40 e0 41`, 0b10110000},
		// LDX #$40
		// CPX #$40
		{"40 - 40", `0600: a2 40 e0 40`, 0b00110011},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpu, _ := loadCPUWith(t, tt.dump)
			cpu.P = 0b00110000
			tcheck(t, cpu.Run(4))
			if cpu.Cycles != 4 {
				t.Errorf("got %d cycles, want 4", cpu.Cycles)
			}
			if cpu.X != 0x40 {
				t.Errorf("X = %02X, want 40", cpu.X)
			}
			if cpu.P != tt.want {
				t.Errorf("P = %s, want %s", cpu.P, tt.want)
			}
		})
	}
}

func TestADCSBC(t *testing.T) {
	tests := []struct {
		name   string
		opcode string
		a, val string
		carry  bool
		want   uint8
		wantP  P
	}{
		{name: "adc", opcode: "69", a: "50", val: "10", want: 0x60},
		{name: "adc overflow", opcode: "69", a: "50", val: "50", want: 0xA0, wantP: Overflow | Negative},
		{name: "adc carry out", opcode: "69", a: "ff", val: "01", want: 0x00, wantP: Carry | Zero},
		{name: "adc carry and overflow", opcode: "69", a: "80", val: "80", want: 0x00, wantP: Carry | Zero | Overflow},
		{name: "adc carry in", opcode: "69", a: "01", val: "01", carry: true, want: 0x03},
		{name: "sbc borrow", opcode: "e9", a: "50", val: "f0", carry: true, want: 0x60},
		{name: "sbc", opcode: "e9", a: "50", val: "30", carry: true, want: 0x20, wantP: Carry},
		{name: "sbc overflow", opcode: "e9", a: "50", val: "b0", carry: true, want: 0xA0, wantP: Overflow | Negative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// LDA #a
			// ADC/SBC #val
			cpu, _ := loadCPUWith(t, "0600: a9 "+tt.a+" "+tt.opcode+" "+tt.val)
			cpu.P = Reserved
			if tt.carry {
				cpu.P |= Carry
			}
			tcheck(t, cpu.Step())
			tcheck(t, cpu.Step())

			if cpu.A != tt.want {
				t.Errorf("A = %02X, want %02X", cpu.A, tt.want)
			}
			if want := Reserved | tt.wantP; cpu.P != want {
				t.Errorf("P = %s, want %s", cpu.P, want)
			}
		})
	}
}

func TestIndirectJMPBug(t *testing.T) {
	cpu, _ := loadCPUWith(t, `
0600: 6c ff 02
02ff: 34
0200: 12
0300: 99`)
	tcheck(t, cpu.Step())
	if cpu.PC != 0x1234 {
		t.Errorf("PC = %04X, want 1234", cpu.PC)
	}
}

func TestPowerOn(t *testing.T) {
	bus := new(flatBus)
	bus.load(t, `fffc: 00 80`)

	cpu := NewCPU(bus)
	cpu.RAM[0x42] = 0xAA
	cpu.PowerOn()

	if cpu.PC != 0x8000 {
		t.Errorf("PC = %04X, want 8000", cpu.PC)
	}
	if cpu.SP != 0xFD {
		t.Errorf("SP = %02X, want FD", cpu.SP)
	}
	if cpu.P != 0x34 {
		t.Errorf("P = %02X, want 34", uint8(cpu.P))
	}
	if cpu.Cycles != 7 {
		t.Errorf("reset took %d cycles, want 7", cpu.Cycles)
	}
	if cpu.RAM[0x42] != 0 {
		t.Errorf("RAM not cleared at power on")
	}
}

func TestInterrupts(t *testing.T) {
	const prog = `
0600: ea 00 ff
0700: ea ea
0800: ea
fffa: 00 07
fffe: 00 08`

	t.Run("nmi", func(t *testing.T) {
		cpu, bus := loadCPUWith(t, prog)
		cpu.SetNMI()
		tcheck(t, cpu.Step())

		if cpu.PC != 0x0701 {
			t.Errorf("PC = %04X, want 0701", cpu.PC)
		}
		if cpu.Cycles != 7+2 {
			t.Errorf("got %d cycles, want 9", cpu.Cycles)
		}
		stack := bus.mem[0x1FB:0x1FE]
		if want := []uint8{0x24, 0x00, 0x06}; !bytes.Equal(stack, want) {
			t.Errorf("stack = % X, want % X", stack, want)
		}
		if cpu.SP != 0xFA {
			t.Errorf("SP = %02X, want FA", cpu.SP)
		}

		// NMI is acknowledged.
		cpu.Cycles = 0
		tcheck(t, cpu.Step())
		if cpu.Cycles != 2 {
			t.Errorf("NMI serviced twice")
		}
	})

	t.Run("irq masked", func(t *testing.T) {
		cpu, _ := loadCPUWith(t, prog)
		cpu.SetIRQ(true)
		tcheck(t, cpu.Step())
		if cpu.PC != 0x0601 {
			t.Errorf("PC = %04X, want 0601", cpu.PC)
		}
	})

	t.Run("irq", func(t *testing.T) {
		cpu, bus := loadCPUWith(t, prog)
		cpu.P = Reserved
		cpu.SetIRQ(true)
		tcheck(t, cpu.Step())
		if cpu.PC != 0x0801 {
			t.Errorf("PC = %04X, want 0801", cpu.PC)
		}
		if bus.mem[0x1FB] != 0x20 {
			t.Errorf("pushed P = %02X, want 20", bus.mem[0x1FB])
		}
		if !cpu.P.has(Interrupt) {
			t.Errorf("I flag should be set")
		}
	})

	t.Run("brk rti", func(t *testing.T) {
		cpu, bus := loadCPUWith(t, prog+"\n0800: 40")
		cpu.PC = 0x0601
		tcheck(t, cpu.Step())

		if cpu.PC != 0x0800 {
			t.Errorf("PC = %04X, want 0800", cpu.PC)
		}
		if cpu.Cycles != 7 {
			t.Errorf("got %d cycles, want 7", cpu.Cycles)
		}
		stack := bus.mem[0x1FB:0x1FE]
		if want := []uint8{0x34, 0x03, 0x06}; !bytes.Equal(stack, want) {
			t.Errorf("stack = % X, want % X", stack, want)
		}

		tcheck(t, cpu.Step())
		if cpu.PC != 0x0603 {
			t.Errorf("RTI: PC = %04X, want 0603", cpu.PC)
		}
		if cpu.P != 0x24 {
			t.Errorf("RTI: P = %02X, want 24", uint8(cpu.P))
		}
	})
}

func TestBadOpcode(t *testing.T) {
	cpu, _ := loadCPUWith(t, `0600: 02`)

	err := cpu.Step()
	if !errors.Is(err, ErrBadOpcode) {
		t.Fatalf("got err = %v, want %v", err, ErrBadOpcode)
	}
	if cpu.PC != 0x0600 {
		t.Errorf("PC = %04X, want 0600", cpu.PC)
	}

	// The CPU stays halted.
	cycles := cpu.Cycles
	if err := cpu.RunFrame(); !errors.Is(err, ErrBadOpcode) {
		t.Errorf("RunFrame: got err = %v, want %v", err, ErrBadOpcode)
	}
	if cpu.Cycles != cycles {
		t.Errorf("halted CPU ran %d cycles", cpu.Cycles-cycles)
	}
}

func TestOpcodesTable(t *testing.T) {
	var official, jam int
	for opcode, op := range ops {
		switch {
		case op.name == "JAM":
			jam++
			if op.exec != nil {
				t.Errorf("opcode %02X: JAM should not be executable", opcode)
			}
		case op.exec == nil:
			t.Errorf("opcode %02X not implemented", opcode)
		case !op.unofficial:
			official++
		}
	}
	if official != 151 {
		t.Errorf("got %d official opcodes, want 151", official)
	}
	if jam != 12 {
		t.Errorf("got %d JAM opcodes, want 12", jam)
	}
}

func TestDisasm(t *testing.T) {
	tests := []struct {
		dump string
		x, y uint8
		want string
	}{
		{dump: "0600: a5 10\n0010: 42", want: "LDA $10 = 42"},
		{dump: "0600: bd 00 12\n1201: 07", x: 1, want: "LDA $1200,X @ 1201 = 07"},
		{dump: "0600: b1 10\n0010: ff 12\n1300: 09", y: 1, want: "LDA ($10),Y = 12FF @ 1300 = 09"},
		{dump: "0600: 4c f5 c5", want: "JMP $C5F5"},
		{dump: "0600: 0a", want: "ASL A"},
		{dump: "0600: d0 fe", want: "BNE $0600"},
		{dump: "0600: 6c ff 02\n02ff: 34\n0200: 12", want: "JMP ($02FF) = 1234"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			cpu, bus := loadCPUWith(t, tt.dump)
			cpu.X, cpu.Y = tt.x, tt.y

			d := cpu.Disasm(0x0600)
			if got := d.Opcode + " " + d.Oper; strings.TrimSpace(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if bus.ticks != 0 || cpu.Cycles != 0 {
				t.Errorf("disassembly consumed cycles")
			}
		})
	}
}

func TestTraceFormat(t *testing.T) {
	cpu, _ := loadCPUWith(t, `c000: 4c f5 c5`)
	cpu.Cycles = 7

	var out bytes.Buffer
	cpu.SetTrace(&out)
	cpu.tracer.ppuPos = func() (int, int) { return 0, 21 }
	tcheck(t, cpu.Step())

	want := "C000  4C F5 C5  JMP $C5F5" + strings.Repeat(" ", 23) +
		"A:00 X:00 Y:00 P:24 SP:FD PPU:  0, 21 CYC:7\n"
	if out.String() != want {
		t.Errorf("trace differs\ngot:\n%q\nwant:\n%q\n", out.String(), want)
	}
}

func BenchmarkTraceFormat(b *testing.B) {
	cpu, _ := loadCPUWith(b, `c000: a9 32`)
	var out bytes.Buffer
	cpu.SetTrace(&out)

	for range b.N {
		out.Reset()
		cpu.tracer.write()
	}
}
