// Package translator turns ESSL 3.00 (WebGL2) shader sources into desktop
// GLSL 4.10 and reports the names the translator gave each variable.
package translator

import (
	"context"
	"fmt"

	gst "github.com/richinsley/goshadertranslator"
)

// Stage is the pipeline stage a source is compiled for.
type Stage string

const (
	Vertex   Stage = "vertex"
	Fragment Stage = "fragment"
)

// Result is one translated source.
type Result struct {
	Code string
	// Names maps a variable's source name to its name in Code.
	Names map[string]string
}

// Mapped returns the translated name of a source variable, or name itself
// when the translator did not report it.
func (r *Result) Mapped(name string) string {
	if m, ok := r.Names[name]; ok && m != "" {
		return m
	}
	return name
}

// Translator owns one translator runtime.
type Translator struct {
	t *gst.ShaderTranslator
}

// New starts the translator runtime. It is not safe for concurrent use.
func New(ctx context.Context) (*Translator, error) {
	t, err := gst.NewShaderTranslator(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start shader translator: %w", err)
	}
	return &Translator{t: t}, nil
}

func (t *Translator) Translate(source string, stage Stage) (*Result, error) {
	out, err := t.t.TranslateShader(source, string(stage), gst.ShaderSpecWebGL2, gst.OutputFormatGLSL410)
	if err != nil {
		return nil, fmt.Errorf("%s shader translation failed: %w", stage, err)
	}
	res := &Result{Code: out.Code, Names: make(map[string]string, len(out.Variables))}
	for name, v := range out.Variables {
		res.Names[name] = v.MappedName
	}
	return res, nil
}
