package options

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/richinsley/goglboot/graphics"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	o := Defaults()
	if err := o.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	cfg := o.Bootstrap()
	if cfg.Window.Width != 1920 || cfg.Window.Height != 1080 || cfg.Window.ClassName != "OGL" {
		t.Errorf("window = %+v", cfg.Window)
	}
	if cfg.Attribs != (graphics.ContextAttribs{Major: 4, Minor: 6, Profile: graphics.ProfileCore}) {
		t.Errorf("attribs = %+v", cfg.Attribs)
	}
	if !cfg.PixelFormat.DoubleBuffer || cfg.PixelFormat.DepthBits != 32 || cfg.PixelFormat.StencilBits != 8 {
		t.Errorf("pixel format = %+v", cfg.PixelFormat)
	}
	if !cfg.Baseline.DepthTest || cfg.Baseline.DepthFunc != graphics.DepthLessOrEqual {
		t.Errorf("baseline = %+v", cfg.Baseline)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "run.toml", `
[window]
title = "cubes"
width = 800
height = 600

[context]
major = 3
minor = 3
profile = "compatibility"

[render]
view = "camera"
clear_color = [0.1, 0.2, 0.3, 1.0]
`)
	o, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if o.Window.Title != "cubes" || o.Window.Width != 800 || o.Window.Height != 600 {
		t.Errorf("window = %+v", o.Window)
	}
	if o.Window.ClassName != "OGL" {
		t.Errorf("unset key lost its default: class = %q", o.Window.ClassName)
	}
	cfg := o.Bootstrap()
	if cfg.Attribs.Major != 3 || cfg.Attribs.Minor != 3 || cfg.Attribs.Profile != graphics.ProfileCompatibility {
		t.Errorf("attribs = %+v", cfg.Attribs)
	}
	if cfg.Baseline.ClearColor != [4]float32{0.1, 0.2, 0.3, 1.0} {
		t.Errorf("clear color = %v", cfg.Baseline.ClearColor)
	}
	if o.Render.View != "camera" || o.Render.FOV != 45 {
		t.Errorf("render = %+v", o.Render)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "run.yaml", `
render:
  time_scale: 0.5
  max_frames: 120
logging:
  level: debug
  format: json
`)
	o, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if o.Render.TimeScale != 0.5 || o.Render.MaxFrames != 120 {
		t.Errorf("render = %+v", o.Render)
	}
	if o.Logging.Level != "debug" || o.Logging.Format != "json" {
		t.Errorf("logging = %+v", o.Logging)
	}
	if o.Window.Width != 1920 {
		t.Errorf("width = %d", o.Window.Width)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil || !strings.HasPrefix(err.Error(), "read config") {
		t.Errorf("missing file: %v", err)
	}
	bad := writeFile(t, "bad.toml", "[window\nwidth = ")
	if _, err := Load(bad); err == nil || !strings.HasPrefix(err.Error(), "parse config") {
		t.Errorf("bad toml: %v", err)
	}
	ini := writeFile(t, "run.ini", "width=1")
	if _, err := Load(ini); err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("ini: %v", err)
	}
}

func TestParseFlagsOverrideFile(t *testing.T) {
	path := writeFile(t, "run.toml", "[window]\nwidth = 800\nheight = 600\n[render]\nview = \"camera\"\n")
	o, err := Parse("test", []string{"-config", path, "-height", "720", "-frames", "10", "-glinfo", "-loglevel", "warn"})
	if err != nil {
		t.Fatal(err)
	}
	if o.Window.Width != 800 || o.Window.Height != 720 {
		t.Errorf("size = %dx%d, want 800x720", o.Window.Width, o.Window.Height)
	}
	if o.Render.View != "camera" {
		t.Errorf("unset flag overwrote file value: view = %q", o.Render.View)
	}
	if o.Render.MaxFrames != 10 || !o.Render.GLInfo || o.Logging.Level != "warn" {
		t.Errorf("overrides not applied: %+v %+v", o.Render, o.Logging)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"zero width", []string{"-width", "0"}, "window size"},
		{"view", []string{"-view", "fly"}, "unknown view"},
		{"time scale", []string{"-timescale", "-1"}, "time scale"},
		{"unknown flag", []string{"-nope"}, "not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test", tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestValidateContextAndClipPlanes(t *testing.T) {
	o := Defaults()
	o.Context.Major, o.Context.Minor = 3, 1
	o.Context.Profile = "es"
	o.Render.Near, o.Render.Far = 1, 1
	err := o.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"context version 3.1", "unknown profile", "clip planes"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("%q missing from %v", want, err)
		}
	}
}
