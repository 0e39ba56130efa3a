// Package bootstrap takes the process from no window to a bound, versioned
// core-profile rendering context.
//
// The sequence is strictly ordered: a window must exist before its device
// context can be fetched, a provisional legacy context must be current
// before the versioned-context entry point can be resolved, and the
// provisional context is unbound and destroyed before the final context is
// bound. Any failure aborts the sequence, is reported with the step name and
// releases everything acquired so far.
package bootstrap

import (
	"errors"
	"fmt"

	"github.com/richinsley/goglboot/clock"
	"github.com/richinsley/goglboot/diag"
	"github.com/richinsley/goglboot/graphics"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Phase names recorded on the clock.
const (
	PhaseWindow  = "Window"
	PhaseContext = "Context"
)

// Config is what the bootstrapper asks the platform for.
type Config struct {
	Window      graphics.WindowConfig
	PixelFormat graphics.PixelFormat
	Attribs     graphics.ContextAttribs
	Baseline    graphics.Baseline
}

// DefaultConfig requests a 1920x1080 window and an OpenGL 4.6 core context.
func DefaultConfig() Config {
	return Config{
		Window: graphics.WindowConfig{
			ClassName: "OGL",
			Title:     "OGL",
			Width:     1920,
			Height:    1080,
		},
		PixelFormat: graphics.DefaultPixelFormat(),
		Attribs: graphics.ContextAttribs{
			Major:   4,
			Minor:   6,
			Profile: graphics.ProfileCore,
		},
		Baseline: graphics.DefaultBaseline(),
	}
}

// Ready is the result of a successful bootstrap. The final context is
// current on the calling thread.
type Ready struct {
	Instance      graphics.Instance
	Window        graphics.Window
	DeviceContext graphics.DeviceContext
	Context       graphics.RenderingContext
	PixelFormat   int

	b *Bootstrapper
}

// Close releases the context, device context and window.
func (r *Ready) Close() error {
	return r.b.Shutdown()
}

// Bootstrapper owns the window, device context and rendering contexts it
// creates until Shutdown.
type Bootstrapper struct {
	cfg      Config
	driver   graphics.Driver
	loader   graphics.Loader
	gpu      graphics.GPU
	reporter *diag.Reporter
	clock    *clock.Clock

	attempted   bool
	instance    graphics.Instance
	window      graphics.Window
	dc          graphics.DeviceContext
	format      int
	provisional graphics.RenderingContext
	final       graphics.RenderingContext
	bound       bool
}

// New prepares a bootstrapper. A nil clock gets a private one; a nil
// reporter discards diagnostics.
func New(cfg Config, driver graphics.Driver, loader graphics.Loader, gpu graphics.GPU, reporter *diag.Reporter, clk *clock.Clock) *Bootstrapper {
	if clk == nil {
		clk = clock.New()
	}
	return &Bootstrapper{
		cfg:      cfg,
		driver:   driver,
		loader:   loader,
		gpu:      gpu,
		reporter: reporter,
		clock:    clk,
	}
}

// Initialize runs the full sequence once. On failure the returned error is
// an *Error and every acquired resource has already been released.
func (b *Bootstrapper) Initialize() (*Ready, error) {
	if b.attempted {
		return nil, ErrAlreadyInitialized
	}
	b.attempted = true

	b.clock.StartPhase(PhaseWindow)
	err := b.initWindow()
	d := b.clock.EndPhase()
	if err != nil {
		b.reporter.Error("failed to initialize window")
		b.unwind()
		return nil, err
	}
	b.reporter.Info("window initialized in %.6f seconds", d.Seconds())

	b.clock.StartPhase(PhaseContext)
	err = b.initContext()
	d = b.clock.EndPhase()
	if err != nil {
		b.reporter.Error("failed to initialize rendering context")
		b.unwind()
		return nil, err
	}
	b.reporter.Info("rendering context %d.%d %s initialized in %.6f seconds",
		b.cfg.Attribs.Major, b.cfg.Attribs.Minor, b.cfg.Attribs.Profile, d.Seconds())

	b.driver.ShowWindow(b.window)

	return &Ready{
		Instance:      b.instance,
		Window:        b.window,
		DeviceContext: b.dc,
		Context:       b.final,
		PixelFormat:   b.format,
		b:             b,
	}, nil
}

// steps 1-2
func (b *Bootstrapper) initWindow() error {
	b.instance = b.driver.HostInstance()
	if b.instance == 0 {
		return b.fail(StepValidateHost, ErrInvalidHostContext, nil)
	}
	b.reporter.Info("host instance valid")

	if err := b.driver.RegisterWindowClass(b.cfg.Window); err != nil {
		return b.fail(StepCreateWindow, ErrWindowCreationFailed, fmt.Errorf("register class %q: %w", b.cfg.Window.ClassName, err))
	}
	w, err := b.driver.CreateWindow(b.cfg.Window)
	if err != nil || w == 0 {
		return b.fail(StepCreateWindow, ErrWindowCreationFailed, err)
	}
	b.window = w
	return nil
}

// steps 3-13
func (b *Bootstrapper) initContext() error {
	dc, err := b.driver.GetDeviceContext(b.window)
	if err != nil || dc == 0 {
		return b.fail(StepAcquireDeviceContext, ErrDeviceContextUnavailable, err)
	}
	b.dc = dc

	pf := b.cfg.PixelFormat
	index, err := b.driver.ChoosePixelFormat(b.dc, pf)
	if err != nil || index == 0 {
		return b.fail(StepChoosePixelFormat, ErrNoMatchingPixelFormat, err)
	}
	if err := b.driver.SetPixelFormat(b.dc, index, pf); err != nil {
		return b.fail(StepApplyPixelFormat, ErrPixelFormatApplyFailed, fmt.Errorf("format %d: %w", index, err))
	}
	b.format = index

	rc, err := b.driver.CreateContext(b.dc)
	if err != nil || rc == 0 {
		return b.fail(StepCreateLegacyContext, ErrLegacyContextCreationFailed, err)
	}
	b.provisional = rc

	if err := b.driver.MakeCurrent(b.dc, b.provisional); err != nil {
		return b.fail(StepBindLegacyContext, ErrContextBindFailed, err)
	}
	b.bound = true

	name := b.driver.CreateContextAttribsName()
	proc := b.driver.ProcAddress(name)
	if proc == 0 {
		return b.fail(StepResolveEntryPoint, ErrExtensionEntryPointMissing, fmt.Errorf("%s not found", name))
	}

	final, createErr := b.driver.CreateContextAttribs(proc, b.dc, 0, b.cfg.Attribs)
	if createErr == nil && final != 0 {
		b.final = final
	}

	// The provisional context goes away whether or not the final one exists.
	if err := b.releaseProvisional(); err != nil {
		b.reporter.With(zap.String("step", StepReleaseLegacyContext.String())).Error("release provisional context: %v", err)
	}

	if b.final == 0 {
		if createErr == nil {
			createErr = errors.New("driver returned no context")
		}
		return b.fail(StepCreateVersionedContext, ErrVersionedContextCreationFailed,
			fmt.Errorf("%d.%d %s: %w", b.cfg.Attribs.Major, b.cfg.Attribs.Minor, b.cfg.Attribs.Profile, createErr))
	}

	if err := b.driver.MakeCurrent(b.dc, b.final); err != nil {
		return b.fail(StepBindFinalContext, ErrFinalContextBindFailed, err)
	}
	b.bound = true

	if err := b.loader.Init(); err != nil {
		return b.fail(StepInitLoader, ErrFunctionLoaderInitFailed, err)
	}

	b.cfg.Baseline.Apply(b.gpu)
	b.reporter.Info("baseline state applied")
	return nil
}

func (b *Bootstrapper) releaseProvisional() error {
	if b.provisional == 0 {
		return nil
	}
	var err error
	if b.bound {
		err = multierr.Append(err, b.driver.MakeCurrent(b.dc, 0))
		b.bound = false
	}
	err = multierr.Append(err, b.driver.DeleteContext(b.provisional))
	b.provisional = 0
	return err
}

func (b *Bootstrapper) fail(step Step, sentinel, cause error) error {
	e := &Error{Step: step, Kind: kindOf(sentinel), Err: sentinel, Cause: cause}
	b.reporter.Skip(1).With(zap.String("step", step.String()), zap.Stringer("kind", e.Kind)).Error("%v", e)
	return e
}

// unwind releases, in reverse order of acquisition, whatever is still held.
func (b *Bootstrapper) unwind() error {
	var err error
	if b.bound {
		err = multierr.Append(err, b.driver.MakeCurrent(b.dc, 0))
		b.bound = false
	}
	if b.final != 0 {
		err = multierr.Append(err, b.driver.DeleteContext(b.final))
		b.final = 0
	}
	err = multierr.Append(err, b.releaseProvisional())

	alive := b.window != 0 && b.driver.WindowValid(b.window)
	if b.dc != 0 {
		if alive {
			err = multierr.Append(err, b.driver.ReleaseDeviceContext(b.window, b.dc))
		}
		b.dc = 0
	}
	if b.window != 0 {
		if alive {
			err = multierr.Append(err, b.driver.DestroyWindow(b.window))
		}
		b.window = 0
	}
	return err
}

// Shutdown releases everything the bootstrapper still owns. It is safe to
// call more than once and after a failed Initialize.
func (b *Bootstrapper) Shutdown() error {
	err := b.unwind()
	if err != nil {
		b.reporter.Error("shutdown: %v", err)
	} else {
		b.reporter.Info("rendering context and window released")
	}
	return err
}
