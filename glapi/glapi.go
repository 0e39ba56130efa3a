// Package glapi implements the graphics interfaces on top of go-gl's
// OpenGL 4.6 core bindings. Every call requires the bootstrapped context to
// be current on the calling thread.
package glapi

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/richinsley/goglboot/graphics"
)

// Loader resolves the GL entry points for the current context.
type Loader struct{}

var _ graphics.Loader = Loader{}

func (Loader) Init() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL bindings: %w", err)
	}
	return nil
}

// GPU issues state and draw calls on the current context.
type GPU struct{}

var _ graphics.GPU = GPU{}

func (GPU) ClearColor(r, g, b, a float32) { gl.ClearColor(r, g, b, a) }
func (GPU) ClearDepth(depth float64) { gl.ClearDepth(depth) }
func (GPU) Enable(c graphics.Capability) { gl.Enable(capability(c)) }
func (GPU) DepthFunc(fn graphics.DepthFunc) {
	gl.DepthFunc(depthFunc(fn))
}
func (GPU) Viewport(x, y, width, height int32) { gl.Viewport(x, y, width, height) }
func (GPU) Clear() { gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT) }
func (GPU) BindVertexArray(vao uint32) { gl.BindVertexArray(vao) }
func (GPU) DrawArrays(mode graphics.Primitive, first, count int32) {
	gl.DrawArrays(primitive(mode), first, count)
}
func (GPU) UseProgram(program uint32) { gl.UseProgram(program) }

func capability(c graphics.Capability) uint32 {
	switch c {
	case graphics.CapMultisample:
		return gl.MULTISAMPLE
	default:
		return gl.DEPTH_TEST
	}
}

func depthFunc(fn graphics.DepthFunc) uint32 {
	if fn == graphics.DepthLessOrEqual {
		return gl.LEQUAL
	}
	return gl.LESS
}

func primitive(p graphics.Primitive) uint32 {
	if p == graphics.TriangleFan {
		return gl.TRIANGLE_FAN
	}
	return gl.TRIANGLES
}

// Mesh is a vertex array with one position and one color buffer.
type Mesh struct {
	VAO      uint32
	buffers  [2]uint32
	Vertices int32
}

// UploadMesh creates a vertex array holding xyz positions at attribute
// location posLoc and rgb colors at colorLoc.
func UploadMesh(positions, colors []float32, posLoc, colorLoc uint32) (*Mesh, error) {
	if len(positions) == 0 || len(positions)%3 != 0 {
		return nil, fmt.Errorf("positions length %d is not a positive multiple of 3", len(positions))
	}
	if len(colors) != len(positions) {
		return nil, fmt.Errorf("%d color components for %d position components", len(colors), len(positions))
	}

	m := &Mesh{Vertices: int32(len(positions) / 3)}
	gl.GenVertexArrays(1, &m.VAO)
	gl.BindVertexArray(m.VAO)
	gl.GenBuffers(2, &m.buffers[0])

	for i, data := range [][]float32{positions, colors} {
		loc := posLoc
		if i == 1 {
			loc = colorLoc
		}
		gl.BindBuffer(gl.ARRAY_BUFFER, m.buffers[i])
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
		gl.VertexAttribPointer(loc, 3, gl.FLOAT, false, 0, gl.PtrOffset(0))
		gl.EnableVertexAttribArray(loc)
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return m, nil
}

func (m *Mesh) Delete() {
	gl.DeleteBuffers(2, &m.buffers[0])
	gl.DeleteVertexArrays(1, &m.VAO)
}
