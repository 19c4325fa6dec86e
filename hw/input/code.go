package input

import (
	"fmt"
	"strings"

	"github.com/veandco/go-sdl2/sdl"
)

// A Code identifies a keyboard key by its SDL scancode. The zero Code is not
// bound to any key.
type Code struct {
	Scancode sdl.Scancode
}

// Key returns the Code of the key with the given SDL scancode.
func Key(sc sdl.Scancode) Code { return Code{Scancode: sc} }

func (c Code) IsSet() bool { return c.Scancode != sdl.SCANCODE_UNKNOWN }

// Name returns an user-friendly name for the key.
func (c Code) Name() string {
	if !c.IsSet() {
		return ""
	}
	return sdl.GetScancodeName(c.Scancode)
}

// MarshalText encodes c as "key <name>", or the empty string when unset.
func (c Code) MarshalText() ([]byte, error) {
	if !c.IsSet() {
		return []byte{}, nil
	}
	return []byte("key " + c.Name()), nil
}

func (c *Code) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		c.Scancode = sdl.SCANCODE_UNKNOWN
		return nil
	}

	name, ok := strings.CutPrefix(s, "key ")
	if !ok {
		return fmt.Errorf("unrecognized input code: %s", s)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("malformed key code: %q", s)
	}
	sc := sdl.GetScancodeFromName(name)
	if sc == sdl.SCANCODE_UNKNOWN {
		return fmt.Errorf("unrecognized scancode %q", name)
	}
	c.Scancode = sc
	return nil
}
