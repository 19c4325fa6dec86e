package input

import (
	"github.com/veandco/go-sdl2/sdl"

	"nescore/emu/log"
	"nescore/hw"
)

// PortConfig holds the key bindings of the controller plugged on a port.
type PortConfig struct {
	Plugged bool `toml:"plugged"`

	// Buttons holds one key per button, in hw.ButtonNames order.
	Buttons [8]Code `toml:"buttons"`
}

type Config struct {
	Ports [2]PortConfig `toml:"ports"`
}

// DefaultConfig has the first controller plugged and bound to the arrows, X,
// Z, right shift and return keys.
func DefaultConfig() Config {
	return Config{
		Ports: [2]PortConfig{
			{
				Plugged: true,
				Buttons: [8]Code{
					Key(sdl.SCANCODE_X),
					Key(sdl.SCANCODE_Z),
					Key(sdl.SCANCODE_RSHIFT),
					Key(sdl.SCANCODE_RETURN),
					Key(sdl.SCANCODE_UP),
					Key(sdl.SCANCODE_DOWN),
					Key(sdl.SCANCODE_LEFT),
					Key(sdl.SCANCODE_RIGHT),
				},
			},
			{
				Plugged: false,
			},
		},
	}
}

// Provider converts the keyboard state into controller states.
type Provider struct {
	keystate []uint8
	cfg      Config
}

// NewProvider returns a Provider reading the SDL keyboard state, which is
// updated while SDL events are pumped.
func NewProvider(cfg Config) *Provider {
	var keystate []uint8
	sdl.Do(func() { keystate = sdl.GetKeyboardState() })
	for i, port := range cfg.Ports {
		if !port.Plugged {
			continue
		}
		ev := log.ModInput.InfoZ("controller plugged").Int("port", i+1)
		for b, code := range port.Buttons {
			ev = ev.String(hw.ButtonNames[b], code.Name())
		}
		ev.End()
	}
	return &Provider{keystate: keystate, cfg: cfg}
}

func (p *Provider) port(idx int) hw.Buttons {
	port := &p.cfg.Ports[idx]
	if !port.Plugged {
		return 0
	}

	var b hw.Buttons
	for i, code := range port.Buttons {
		if !code.IsSet() || int(code.Scancode) >= len(p.keystate) {
			continue
		}
		if p.keystate[code.Scancode] != 0 {
			b |= 1 << i
		}
	}
	return b
}

// Buttons returns the current state of both controllers.
func (p *Provider) Buttons() (hw.Buttons, hw.Buttons) {
	return p.port(0), p.port(1)
}
