// Package shaders holds the GLSL programs used to draw the emulator screen.
// Each program is a pair of <name>.vert and <name>.frag files.
package shaders

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
)

//go:embed *.vert *.frag
var dir embed.FS

const DefaultName = "Passthrough"

// Names returns the sorted names of the embedded shader programs.
func Names() []string {
	files, err := fs.Glob(dir, "*.frag")
	if err != nil {
		panic(err)
	}

	var names []string
	for _, f := range files {
		name := strings.TrimSuffix(f, path.Ext(f))
		if _, err := fs.Stat(dir, name+Vertex.ext()); err == nil {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

func readAll(name string) ([]byte, error) {
	return dir.ReadFile(name)
}

type Type uint32

const (
	Vertex Type = iota
	Fragment
)

func (t Type) glType() uint32 {
	if t == Vertex {
		return gl.VERTEX_SHADER
	}
	return gl.FRAGMENT_SHADER
}

func (t Type) ext() string {
	if t == Vertex {
		return ".vert"
	}
	return ".frag"
}

func (t Type) String() string {
	if t == Vertex {
		return "vertex"
	}
	return "fragment"
}

// Compile compiles the shader of type typ of the program name. It requires a
// current OpenGL context.
func Compile(name string, typ Type) (uint32, error) {
	buf, err := readAll(name + typ.ext())
	if err != nil {
		return 0, fmt.Errorf("%s shader %q: %w", typ, name, err)
	}

	csrc, free := gl.Strs(string(buf) + "\x00")
	sh := gl.CreateShader(typ.glType())
	gl.ShaderSource(sh, 1, csrc, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	if gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status); status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLength)

		log := make([]byte, logLength+1)
		gl.GetShaderInfoLog(sh, logLength, nil, &log[0])
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("%s shader %q compile error: %s", typ, name, log)
	}

	return sh, nil
}

// Program compiles and links the program name.
func Program(name string) (uint32, error) {
	vert, err := Compile(name, Vertex)
	if err != nil {
		return 0, err
	}
	frag, err := Compile(name, Fragment)
	if err != nil {
		gl.DeleteShader(vert)
		return 0, err
	}
	return LinkProgram(vert, frag)
}

// LinkProgram links the vertex and fragment shaders, which are then deleted.
func LinkProgram(vert, frag uint32) (uint32, error) {
	prg := gl.CreateProgram()
	gl.AttachShader(prg, vert)
	gl.AttachShader(prg, frag)
	gl.LinkProgram(prg)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	if gl.GetProgramiv(prg, gl.LINK_STATUS, &status); status == gl.FALSE {
		var logLength int32
		var glLog [256]byte
		gl.GetProgramInfoLog(prg, int32(len(glLog)), &logLength, &glLog[0])
		return 0, fmt.Errorf("shader program link error: %s", glLog[:logLength])
	}

	return prg, nil
}
