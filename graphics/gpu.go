package graphics

// Capability is a server-side GPU capability toggled with Enable.
type Capability int

const (
	CapDepthTest Capability = iota
	CapMultisample
)

// DepthFunc is the depth comparison used when depth testing is enabled.
type DepthFunc int

const (
	DepthLess DepthFunc = iota
	DepthLessOrEqual
)

// Primitive is the topology passed to DrawArrays.
type Primitive int

const (
	Triangles Primitive = iota
	TriangleFan
)

// GPU is the subset of the graphics API used by the bootstrapper and the
// frame loop once the function loader has been initialized.
type GPU interface {
	ClearColor(r, g, b, a float32)
	ClearDepth(depth float64)
	Enable(c Capability)
	DepthFunc(fn DepthFunc)
	Viewport(x, y, width, height int32)
	// Clear clears the color and depth buffers.
	Clear()
	BindVertexArray(vao uint32)
	DrawArrays(mode Primitive, first, count int32)
	UseProgram(program uint32)
}

// Baseline is the GPU state applied once the final context is bound.
type Baseline struct {
	ClearColor  [4]float32
	ClearDepth  float64
	DepthTest   bool
	DepthFunc   DepthFunc
	Multisample bool
}

// DefaultBaseline is depth testing with less-or-equal, clear depth 1 and
// multisampling, clearing to opaque black.
func DefaultBaseline() Baseline {
	return Baseline{
		ClearColor:  [4]float32{0, 0, 0, 1},
		ClearDepth:  1.0,
		DepthTest:   true,
		DepthFunc:   DepthLessOrEqual,
		Multisample: true,
	}
}

// Apply issues the baseline state on g.
func (b Baseline) Apply(g GPU) {
	g.ClearColor(b.ClearColor[0], b.ClearColor[1], b.ClearColor[2], b.ClearColor[3])
	if b.DepthTest {
		g.Enable(CapDepthTest)
		g.DepthFunc(b.DepthFunc)
	}
	g.ClearDepth(b.ClearDepth)
	if b.Multisample {
		g.Enable(CapMultisample)
	}
}
