package emu

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"nescore/hw"
)

// Output shows the emulated frames.
type Output interface {
	// Poll processes pending host events, it returns false if the emulator
	// should stop.
	Poll() bool
	EndFrame(frame *image.RGBA)
	Close()
}

// InputProvider gives the state of the controllers.
type InputProvider interface {
	Buttons() (hw.Buttons, hw.Buttons)
}

// Headless is an Output without a window.
type Headless struct {
	// Limit is the number of frames to run, 0 means no limit.
	Limit int

	// OnFrame, if non-nil, is called on each frame.
	OnFrame func(n int, frame *image.RGBA)

	frames int
	last   *image.RGBA
}

func (h *Headless) Poll() bool { return h.Limit == 0 || h.frames < h.Limit }

func (h *Headless) EndFrame(frame *image.RGBA) {
	h.frames++
	h.last = frame
	if h.OnFrame != nil {
		h.OnFrame(h.frames, frame)
	}
}

func (h *Headless) Close() {}

// Frames returns the number of frames shown so far.
func (h *Headless) Frames() int { return h.frames }

// Last returns the last frame shown, or nil.
func (h *Headless) Last() *image.RGBA { return h.last }

// noInput has no controller plugged.
type noInput struct{}

func (noInput) Buttons() (hw.Buttons, hw.Buttons) { return 0, 0 }

// SaveAsPNG writes img as a PNG file.
func SaveAsPNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png %s: %w", path, err)
	}
	return f.Close()
}
