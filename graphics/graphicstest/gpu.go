package graphicstest

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/goglboot/graphics"
)

// GPU records every call as a formatted string.
type GPU struct {
	Calls []string
}

var _ graphics.GPU = (*GPU)(nil)

func (g *GPU) add(format string, args ...any) {
	g.Calls = append(g.Calls, fmt.Sprintf(format, args...))
}

func (g *GPU) ClearColor(r, gr, b, a float32) { g.add("ClearColor(%g,%g,%g,%g)", r, gr, b, a) }
func (g *GPU) ClearDepth(depth float64) { g.add("ClearDepth(%g)", depth) }
func (g *GPU) Enable(c graphics.Capability) { g.add("Enable(%d)", c) }
func (g *GPU) DepthFunc(fn graphics.DepthFunc) {
	g.add("DepthFunc(%d)", fn)
}
func (g *GPU) Viewport(x, y, width, height int32) {
	g.add("Viewport(%d,%d,%d,%d)", x, y, width, height)
}
func (g *GPU) Clear() { g.add("Clear") }
func (g *GPU) BindVertexArray(vao uint32) { g.add("BindVertexArray(%d)", vao) }
func (g *GPU) DrawArrays(mode graphics.Primitive, first, count int32) {
	g.add("DrawArrays(%d,%d,%d)", mode, first, count)
}
func (g *GPU) UseProgram(program uint32) { g.add("UseProgram(%d)", program) }

// Filter returns the calls that start with prefix.
func (g *GPU) Filter(prefix string) []string {
	var out []string
	for _, c := range g.Calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (g *GPU) Reset() {
	g.Calls = g.Calls[:0]
}

// Uniform is one recorded SetMat4 call.
type Uniform struct {
	Name  string
	Value mgl32.Mat4
}

// Program records uniform uploads.
type Program struct {
	Uses     int
	Uniforms []Uniform
}

func (p *Program) Use() { p.Uses++ }

func (p *Program) SetMat4(name string, m mgl32.Mat4) {
	p.Uniforms = append(p.Uniforms, Uniform{Name: name, Value: m})
}

// Named returns the recorded values uploaded under name, in order.
func (p *Program) Named(name string) []mgl32.Mat4 {
	var out []mgl32.Mat4
	for _, u := range p.Uniforms {
		if u.Name == name {
			out = append(out, u.Value)
		}
	}
	return out
}
