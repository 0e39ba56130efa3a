// Package shader loads the scene's shader sources, translates ESSL sources to
// desktop GLSL and links them into a program with matrix uniforms.
package shader

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/richinsley/goglboot/translator"
)

// File names looked up in a shader directory.
const (
	VertexFile   = "camera.vs"
	FragmentFile = "camera.fs"
)

// Vertex attribute names and the locations their buffers are bound to.
const (
	AttribPosition = "vPosition"
	AttribColor    = "vColor"

	LocationPosition = 0
	LocationColor    = 1
)

//go:embed shaders/camera.vs shaders/camera.fs
var embedded embed.FS

type Sources struct {
	Vertex   string
	Fragment string
	// Origin is the directory the sources came from, "embedded" otherwise.
	Origin string
}

// Load reads camera.vs and camera.fs from dir. An empty dir selects the
// built-in sources.
func Load(dir string) (Sources, error) {
	if dir == "" {
		vs, _ := embedded.ReadFile("shaders/" + VertexFile)
		fs, _ := embedded.ReadFile("shaders/" + FragmentFile)
		return Sources{Vertex: string(vs), Fragment: string(fs), Origin: "embedded"}, nil
	}
	vs, err := os.ReadFile(filepath.Join(dir, VertexFile))
	if err != nil {
		return Sources{}, fmt.Errorf("read vertex shader: %w", err)
	}
	fs, err := os.ReadFile(filepath.Join(dir, FragmentFile))
	if err != nil {
		return Sources{}, fmt.Errorf("read fragment shader: %w", err)
	}
	return Sources{Vertex: string(vs), Fragment: string(fs), Origin: dir}, nil
}

// NeedsTranslation reports whether src is ESSL and must go through the
// translator before a desktop core context can compile it.
func NeedsTranslation(src string) bool {
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if !strings.HasPrefix(line, "#version") {
			return false
		}
		return strings.HasSuffix(line, " es")
	}
	return false
}

// Prepared holds compile-ready desktop sources and the translated names of
// their variables.
type Prepared struct {
	Vertex   string
	Fragment string
	names    map[string]string
}

// Mapped returns the name of a source variable in the prepared code.
func (p *Prepared) Mapped(name string) string {
	if m, ok := p.names[name]; ok {
		return m
	}
	return name
}

// Prepare translates whichever sources are ESSL. tr may be nil when neither
// is.
func Prepare(tr *translator.Translator, src Sources) (*Prepared, error) {
	p := &Prepared{names: make(map[string]string)}
	var err error
	if p.Vertex, err = p.stage(tr, src.Vertex, translator.Vertex); err != nil {
		return nil, err
	}
	if p.Fragment, err = p.stage(tr, src.Fragment, translator.Fragment); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Prepared) stage(tr *translator.Translator, src string, stage translator.Stage) (string, error) {
	if !NeedsTranslation(src) {
		return src, nil
	}
	if tr == nil {
		return "", fmt.Errorf("%s shader is ESSL and no translator is available", stage)
	}
	res, err := tr.Translate(src, stage)
	if err != nil {
		return "", err
	}
	for name := range res.Names {
		p.names[name] = res.Mapped(name)
	}
	return res.Code, nil
}
