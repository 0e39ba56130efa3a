package shader

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Program is a linked GL program. Uniforms are addressed by their source
// names.
type Program struct {
	ID        uint32
	prepared  *Prepared
	locations map[string]int32
}

// Build compiles and links p on the current context.
func Build(p *Prepared) (*Program, error) {
	id, err := newProgram(p)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}
	return &Program{ID: id, prepared: p, locations: make(map[string]int32)}, nil
}

func (p *Program) Use() {
	gl.UseProgram(p.ID)
}

// SetMat4 uploads m to the named uniform of the program in use. Unknown or
// optimized-out uniforms are ignored.
func (p *Program) SetMat4(name string, m mgl32.Mat4) {
	gl.UniformMatrix4fv(p.location(name), 1, false, &m[0])
}

func (p *Program) location(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.ID, gl.Str(p.prepared.Mapped(name)+"\x00"))
	p.locations[name] = loc
	return loc
}

func (p *Program) Delete() {
	gl.DeleteProgram(p.ID)
}

func newProgram(p *Prepared) (uint32, error) {
	vertexShader, err := compileShader(p.Vertex, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fragmentShader, err := compileShader(p.Fragment, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.BindAttribLocation(program, LocationPosition, gl.Str(p.Mapped(AttribPosition)+"\x00"))
	gl.BindAttribLocation(program, LocationColor, gl.Str(p.Mapped(AttribColor)+"\x00"))
	gl.LinkProgram(program)

	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link program: %s", strings.TrimRight(log, "\x00\n"))
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile %s shader: %s", stageName(shaderType), strings.TrimRight(logText, "\x00\n"))
	}
	return shader, nil
}

func stageName(shaderType uint32) string {
	if shaderType == gl.VERTEX_SHADER {
		return "vertex"
	}
	return "fragment"
}
