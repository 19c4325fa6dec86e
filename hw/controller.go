package hw

import (
	"nescore/emu/log"
	"nescore/hw/snapshot"
)

// Buttons is the state of a standard NES controller, one bit per button.
type Buttons uint8

const (
	ButtonA Buttons = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// ButtonNames holds the button names, in bit order.
var ButtonNames = [8]string{"A", "B", "Select", "Start", "Up", "Down", "Left", "Right"}

// Controllers handles the 2 controller ports, at $4016 and $4017.
type Controllers struct {
	buttons [2]Buttons // live state, set by the host

	strobe bool
	state  [2]uint8 // state shift registers.
}

// SetButtons sets the live state of the controller plugged on port (0 or 1).
func (c *Controllers) SetButtons(port int, b Buttons) {
	c.buttons[port&1] = b
}

// Strobe sets the strobe line. The controller states are latched on its
// falling edge.
func (c *Controllers) Strobe(on bool) {
	if c.strobe && !on {
		c.state[0] = uint8(c.buttons[0])
		c.state[1] = uint8(c.buttons[1])
		log.ModInput.DebugZ("latched controllers").
			Hex8("port1", c.state[0]).
			Hex8("port2", c.state[1]).
			End()
	}
	c.strobe = on
}

// Read shifts out the next bit of the controller at port.
func (c *Controllers) Read(port int) uint8 {
	port &= 1
	if c.strobe {
		// While strobe is high, the A button is continuously reloaded.
		return 0x40 | uint8(c.buttons[port]&ButtonA)
	}

	ret := c.state[port] & 1
	// After 8 bits are read, all subsequent bits report 1 on a standard
	// controller.
	c.state[port] = c.state[port]>>1 | 0x80

	// Emulate open bus behavior.
	return 0x40 | ret
}

// Peek returns what Read would return, without shifting.
func (c *Controllers) Peek(port int) uint8 {
	port &= 1
	if c.strobe {
		return 0x40 | uint8(c.buttons[port]&ButtonA)
	}
	return 0x40 | c.state[port]&1
}

func (c *Controllers) SaveState(e *snapshot.Encoder) {
	e.Uint8(c.state[0])
	e.Uint8(c.state[1])
	e.Bool(c.strobe)
}

func (c *Controllers) LoadState(d *snapshot.Decoder) {
	c.state[0] = d.Uint8()
	c.state[1] = d.Uint8()
	c.strobe = d.Bool()
}
