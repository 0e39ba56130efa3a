package glapi

import (
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/richinsley/goglboot/diag"
)

// Info describes the driver behind the current context.
type Info struct {
	Vendor      string
	Renderer    string
	Version     string
	GLSLVersion string
	Extensions  []string
}

// QueryInfo reads Info from the current context.
func QueryInfo() Info {
	info := Info{
		Vendor:      gl.GoStr(gl.GetString(gl.VENDOR)),
		Renderer:    gl.GoStr(gl.GetString(gl.RENDERER)),
		Version:     gl.GoStr(gl.GetString(gl.VERSION)),
		GLSLVersion: gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)),
	}
	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	for i := int32(0); i < n; i++ {
		info.Extensions = append(info.Extensions, gl.GoStr(gl.GetStringi(gl.EXTENSIONS, uint32(i))))
	}
	return info
}

// Report writes the info through r, one extension per line when
// extensions is set.
func (i Info) Report(r *diag.Reporter, extensions bool) {
	r.Info("OpenGL vendor: %s", i.Vendor)
	r.Info("OpenGL renderer: %s", i.Renderer)
	r.Info("OpenGL version: %s", i.Version)
	r.Info("GLSL version: %s", i.GLSLVersion)
	r.Info("OpenGL extensions: %d", len(i.Extensions))
	if !extensions {
		return
	}
	for n, ext := range i.Extensions {
		r.Info("  extension %d: %s", n, ext)
	}
}
