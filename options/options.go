// Package options holds the run configuration: compiled defaults, an
// optional TOML or YAML file and command-line overrides, applied in that
// order.
package options

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/richinsley/goglboot/bootstrap"
	"github.com/richinsley/goglboot/graphics"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Window  WindowOptions  `toml:"window" yaml:"window"`
	Context ContextOptions `toml:"context" yaml:"context"`
	Render  RenderOptions  `toml:"render" yaml:"render"`
	Logging LoggingOptions `toml:"logging" yaml:"logging"`
}

type WindowOptions struct {
	ClassName string `toml:"class_name" yaml:"class_name"`
	Title     string `toml:"title" yaml:"title"`
	Width     int    `toml:"width" yaml:"width"`
	Height    int    `toml:"height" yaml:"height"`
}

type ContextOptions struct {
	Major             int    `toml:"major" yaml:"major"`
	Minor             int    `toml:"minor" yaml:"minor"`
	Profile           string `toml:"profile" yaml:"profile"` // "core" or "compatibility"
	ForwardCompatible bool   `toml:"forward_compatible" yaml:"forward_compatible"`
	Debug             bool   `toml:"debug" yaml:"debug"`
	ColorBits         uint8  `toml:"color_bits" yaml:"color_bits"`
	DepthBits         uint8  `toml:"depth_bits" yaml:"depth_bits"`
	StencilBits       uint8  `toml:"stencil_bits" yaml:"stencil_bits"`
}

type RenderOptions struct {
	ClearColor [4]float32 `toml:"clear_color" yaml:"clear_color"`
	FOV        float32    `toml:"fov" yaml:"fov"` // vertical, degrees
	Near       float32    `toml:"near" yaml:"near"`
	Far        float32    `toml:"far" yaml:"far"`
	View       string     `toml:"view" yaml:"view"` // "orbit" or "camera"
	TimeScale  float64    `toml:"time_scale" yaml:"time_scale"`
	Shaders    string     `toml:"shaders" yaml:"shaders"` // directory with camera.vs/camera.fs
	MaxFrames  uint64     `toml:"max_frames" yaml:"max_frames"`
	GLInfo     bool       `toml:"gl_info" yaml:"gl_info"`
}

type LoggingOptions struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json" or "console"
}

func Defaults() *Options {
	return &Options{
		Window: WindowOptions{
			ClassName: "OGL",
			Title:     "OGL",
			Width:     1920,
			Height:    1080,
		},
		Context: ContextOptions{
			Major:       4,
			Minor:       6,
			Profile:     "core",
			ColorBits:   32,
			DepthBits:   32,
			StencilBits: 8,
		},
		Render: RenderOptions{
			ClearColor: [4]float32{0, 0, 0, 1},
			FOV:        45,
			Near:       0.1,
			Far:        100,
			View:       "orbit",
			TimeScale:  1.0,
		},
		Logging: LoggingOptions{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a .toml, .yaml or .yml file over the defaults.
func Load(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	o := Defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, o)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, o)
	default:
		return nil, fmt.Errorf("config %s: unsupported format %q", path, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return o, nil
}

// Parse reads flags from args. -config selects a file loaded before the
// remaining flags are applied; flags that were not given keep the file's or
// the default value.
func Parse(name string, args []string) (*Options, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "Path to a .toml or .yaml configuration file")
		width      = fs.Int("width", 0, "Window width")
		height     = fs.Int("height", 0, "Window height")
		view       = fs.String("view", "", "View mode: orbit or camera")
		timeScale  = fs.Float64("timescale", 0, "Multiplier applied to frame delta time")
		shaders    = fs.String("shaders", "", "Directory containing camera.vs and camera.fs")
		frames     = fs.Uint64("frames", 0, "Close the window after this many frames (0 = run until closed)")
		logLevel   = fs.String("loglevel", "", "Log level: debug, info, warn, error")
		logFormat  = fs.String("logformat", "", "Log format: console or json")
		glInfo     = fs.Bool("glinfo", false, "Report driver information and extensions after bootstrap")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	o := Defaults()
	if *configPath != "" {
		var err error
		if o, err = Load(*configPath); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			o.Window.Width = *width
		case "height":
			o.Window.Height = *height
		case "view":
			o.Render.View = *view
		case "timescale":
			o.Render.TimeScale = *timeScale
		case "shaders":
			o.Render.Shaders = *shaders
		case "frames":
			o.Render.MaxFrames = *frames
		case "loglevel":
			o.Logging.Level = *logLevel
		case "logformat":
			o.Logging.Format = *logFormat
		case "glinfo":
			o.Render.GLInfo = *glInfo
		}
	})
	return o, o.Validate()
}

func (o *Options) Validate() error {
	var errs []error
	if o.Window.Width <= 0 || o.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", o.Window.Width, o.Window.Height))
	}
	if o.Context.Major < 3 || (o.Context.Major == 3 && o.Context.Minor < 2) {
		errs = append(errs, fmt.Errorf("context version %d.%d: profiles need 3.2 or later", o.Context.Major, o.Context.Minor))
	}
	if _, err := o.profile(); err != nil {
		errs = append(errs, err)
	}
	if o.Render.View != "orbit" && o.Render.View != "camera" {
		errs = append(errs, fmt.Errorf("unknown view %q", o.Render.View))
	}
	if o.Render.FOV <= 0 || o.Render.FOV >= 180 {
		errs = append(errs, fmt.Errorf("fov %g must be in (0, 180)", o.Render.FOV))
	}
	if o.Render.Near <= 0 || o.Render.Far <= o.Render.Near {
		errs = append(errs, fmt.Errorf("clip planes near=%g far=%g", o.Render.Near, o.Render.Far))
	}
	if o.Render.TimeScale < 0 {
		errs = append(errs, fmt.Errorf("time scale %g is negative", o.Render.TimeScale))
	}
	return errors.Join(errs...)
}

func (o *Options) profile() (graphics.Profile, error) {
	switch o.Context.Profile {
	case "core", "":
		return graphics.ProfileCore, nil
	case "compatibility":
		return graphics.ProfileCompatibility, nil
	}
	return graphics.ProfileCore, fmt.Errorf("unknown profile %q", o.Context.Profile)
}

// Aspect is the window's width over height.
func (o *Options) Aspect() float32 {
	return float32(o.Window.Width) / float32(o.Window.Height)
}

// Bootstrap converts the options into what the bootstrapper requests.
func (o *Options) Bootstrap() bootstrap.Config {
	cfg := bootstrap.DefaultConfig()
	cfg.Window = graphics.WindowConfig{
		ClassName: o.Window.ClassName,
		Title:     o.Window.Title,
		Width:     o.Window.Width,
		Height:    o.Window.Height,
	}
	cfg.PixelFormat.ColorBits = o.Context.ColorBits
	cfg.PixelFormat.DepthBits = o.Context.DepthBits
	cfg.PixelFormat.StencilBits = o.Context.StencilBits
	profile, _ := o.profile()
	cfg.Attribs = graphics.ContextAttribs{
		Major:             o.Context.Major,
		Minor:             o.Context.Minor,
		Profile:           profile,
		ForwardCompatible: o.Context.ForwardCompatible,
		Debug:             o.Context.Debug,
	}
	cfg.Baseline.ClearColor = o.Render.ClearColor
	return cfg
}
