package input

import (
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/google/go-cmp/cmp"
	"github.com/veandco/go-sdl2/sdl"

	"nescore/hw"
)

func TestCodeMarshalRoundTrip(t *testing.T) {
	tests := []struct {
		text string
		code *Code // nil for unmarshal errors
	}{
		{"", &Code{}},
		{"key W", &Code{Scancode: sdl.SCANCODE_W}},
		{"key Up", &Code{Scancode: sdl.SCANCODE_UP}},
		{"key Return", &Code{Scancode: sdl.SCANCODE_RETURN}},
		{"key Right Shift", &Code{Scancode: sdl.SCANCODE_RSHIFT}},

		// unmarshal errors
		{"key   ", nil},
		{"key NotAKey", nil},
		{"joybtn a 030000004c050000cc0900", nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var code Code
			if err := code.UnmarshalText([]byte(tt.text)); err != nil {
				if tt.code != nil {
					t.Fatalf("UnmarshalText(%q) error: %v", tt.text, err)
				}
				t.Log("UnmarshalText error:", err)
				return
			}
			if tt.code == nil {
				t.Fatalf("UnmarshalText(%q) succeeded, want an error", tt.text)
			}

			if diff := cmp.Diff(*tt.code, code); diff != "" {
				t.Fatalf("UnmarshalText(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}

			text, err := code.MarshalText()
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.text, string(text)); diff != "" {
				t.Fatalf("MarshalText mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProviderButtons(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ports[1] = PortConfig{
		Plugged: true,
		Buttons: [8]Code{0: Key(sdl.SCANCODE_K), 7: Key(sdl.SCANCODE_L)},
	}

	p := &Provider{keystate: make([]uint8, sdl.NUM_SCANCODES), cfg: cfg}
	p.keystate[sdl.SCANCODE_X] = 1
	p.keystate[sdl.SCANCODE_LEFT] = 1
	p.keystate[sdl.SCANCODE_L] = 1

	pad1, pad2 := p.Buttons()
	if want := hw.ButtonA | hw.ButtonLeft; pad1 != want {
		t.Errorf("port 1 = %08b, want %08b", pad1, want)
	}
	if want := hw.ButtonRight; pad2 != want {
		t.Errorf("port 2 = %08b, want %08b", pad2, want)
	}

	p.cfg.Ports[0].Plugged = false
	if pad1, _ := p.Buttons(); pad1 != 0 {
		t.Errorf("unplugged port = %08b, want 0", pad1)
	}
}

func TestConfigTOML(t *testing.T) {
	want := DefaultConfig()
	buf, err := toml.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}

	var got Config
	if _, err := toml.Decode(string(buf), &got); err != nil {
		t.Fatalf("decoding:\n%s\nerror: %v", buf, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}
