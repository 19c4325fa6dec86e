package emu

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/veandco/go-sdl2/sdl"

	"nescore/emu/log"
	"nescore/hw"
	"nescore/hw/shaders"
)

// Window is an Output showing the frames in an OpenGL window. Its methods
// can be called from any goroutine, calls are forwarded to the SDL main
// thread.
type Window struct {
	*sdl.Window
	context sdl.GLContext
	prog    uint32
	texture uint32
	vao     uint32

	hotkeys map[sdl.Keycode]func()
}

// NewWindow creates the window, scaled by cfg.Scale, on the monitor cfg.Monitor.
func NewWindow(title string, cfg VideoConfig) (*Window, error) {
	cfg.Check()

	type result struct {
		w   *Window
		err error
	}
	errc := make(chan result, 1)
	sdl.Do(func() {
		w, err := newWindow(title, cfg)
		errc <- result{w, err}
	})
	res := <-errc
	return res.w, res.err
}

func newWindow(title string, cfg VideoConfig) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("failed to initialize SDL: %s", err)
	}

	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 3)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 3)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)

	winw := int32(hw.ScreenWidth * cfg.Scale)
	winh := int32(hw.ScreenHeight * cfg.Scale)
	x, y := windowPos(cfg.Monitor, winw, winh)
	w, err := sdl.CreateWindow(title, x, y, winw, winh,
		sdl.WINDOW_OPENGL|sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("failed to create window: %s", err)
	}

	context, err := w.GLCreateContext()
	if err != nil {
		w.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("failed to create OpenGL context: %s", err)
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize opengl: %s", err)
	}

	swap := 1
	if cfg.DisableVSync {
		swap = 0
	}
	if err := sdl.GLSetSwapInterval(swap); err != nil {
		log.ModEmu.WarnZ("failed to set swap interval").Int("interval", swap).Error("err", err).End()
	}

	prog, err := shaders.Program(cfg.Shader)
	if err != nil {
		return nil, err
	}

	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, hw.ScreenWidth, hw.ScreenHeight, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)

	var VBO, VAO, EBO uint32
	gl.GenVertexArrays(1, &VAO)
	gl.GenBuffers(1, &VBO)
	gl.GenBuffers(1, &EBO)

	gl.BindVertexArray(VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, EBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	// Position attributes
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 5*4, 0)
	gl.EnableVertexAttribArray(0)

	// Texture coordinate attributes.
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, 5*4, 3*4)
	gl.EnableVertexAttribArray(1)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	log.ModEmu.InfoZ("window created").
		Int("scale", cfg.Scale).
		String("shader", cfg.Shader).
		Bool("vsync", !cfg.DisableVSync).
		End()

	return &Window{
		Window:  w,
		context: context,
		prog:    prog,
		texture: texture,
		vao:     VAO,
		hotkeys: make(map[sdl.Keycode]func()),
	}, nil
}

// windowPos centers a window of size (w, h) on the display at index monitor.
func windowPos(monitor, w, h int32) (x, y int32) {
	n, err := sdl.GetNumVideoDisplays()
	if err != nil || monitor < 0 || int(monitor) >= n {
		if monitor != 0 {
			log.ModEmu.WarnZ("invalid monitor index, using the primary one").Int("monitor", int(monitor)).End()
		}
		return sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED
	}
	bounds, err := sdl.GetDisplayBounds(int(monitor))
	if err != nil {
		return sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED
	}
	return bounds.X + (bounds.W-w)/2, bounds.Y + (bounds.H-h)/2
}

// SetHotkey calls fn each time key is pressed.
func (w *Window) SetHotkey(key sdl.Keycode, fn func()) {
	sdl.Do(func() { w.hotkeys[key] = fn })
}

// SetHotkeys binds the function keys to the emulator controls.
func (w *Window) SetHotkeys(e *Emulator) {
	w.SetHotkey(sdl.K_F1, e.TogglePause)
	w.SetHotkey(sdl.K_F2, e.Reset)
	w.SetHotkey(sdl.K_F3, e.Restart)
	w.SetHotkey(sdl.K_F5, e.SaveSnapshot)
	w.SetHotkey(sdl.K_F7, e.LoadSnapshot)
}

// Poll pumps the SDL events, that also updates the keyboard state.
func (w *Window) Poll() bool {
	running := true
	sdl.Do(func() {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				running = false
			case *sdl.KeyboardEvent:
				if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
					break
				}
				if e.Keysym.Sym == sdl.K_ESCAPE {
					running = false
				} else if fn, ok := w.hotkeys[e.Keysym.Sym]; ok {
					fn()
				}
			case *sdl.WindowEvent:
				if e.Event == sdl.WINDOWEVENT_RESIZED {
					gl.Viewport(0, 0, e.Data1, e.Data2)
				}
			}
		}
	})
	return running
}

// EndFrame draws frame and swaps the buffers.
func (w *Window) EndFrame(frame *image.RGBA) {
	sdl.Do(func() {
		gl.Clear(gl.COLOR_BUFFER_BIT)

		gl.BindTexture(gl.TEXTURE_2D, w.texture)
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, hw.ScreenWidth, hw.ScreenHeight, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(frame.Pix))

		gl.UseProgram(w.prog)
		gl.BindVertexArray(w.vao)
		gl.DrawElements(gl.TRIANGLES, 6, gl.UNSIGNED_INT, nil)

		w.GLSwap()
	})
}

func (w *Window) Close() {
	sdl.Do(func() {
		if w.context != nil {
			sdl.GLDeleteContext(w.context)
		}
		if err := w.Destroy(); err != nil {
			log.ModEmu.WarnZ("failed to destroy window").Error("err", err).End()
		}
		sdl.Quit()
	})
}

// Columns are position and texture coordinates.
// Rows are the quad vertices in clockwise order.
var vertices = []float32{
	// x, y, z, s, t
	1.0, 1.0, 0, 1, 0, // top right
	1.0, -1.0, 0, 1, 1, // bottom right
	-1.0, -1.0, 0, 0, 1, // bottom left
	-1.0, 1.0, 0, 0, 0, // top left
}

var indices = []uint32{
	0, 1, 3,
	1, 2, 3,
}
