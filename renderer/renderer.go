// Package renderer is the frame loop: it drains window events, advances the
// clock, draws the scene in object order and presents the frame.
package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/goglboot/bootstrap"
	"github.com/richinsley/goglboot/camera"
	"github.com/richinsley/goglboot/clock"
	"github.com/richinsley/goglboot/diag"
	"github.com/richinsley/goglboot/graphics"
	"github.com/richinsley/goglboot/input"
	"github.com/richinsley/goglboot/scene"
	"go.uber.org/multierr"
)

// ErrWindowLost ends the loop when a present fails because the window is gone.
var ErrWindowLost = errors.New("window lost")

// Uniform names written once per object.
const (
	UniformModel = "model"
	UniformMVP   = "uMVPMatrix"
)

type State int

const (
	StateBootstrapping State = iota
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateBootstrapping:
		return "bootstrapping"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ViewMode selects where the view matrix comes from.
type ViewMode int

const (
	// ViewOrbit circles the origin, advancing with every frame.
	ViewOrbit ViewMode = iota
	// ViewCamera follows the mouse and movement keys.
	ViewCamera
)

// ParseViewMode accepts "orbit" and "camera".
func ParseViewMode(s string) (ViewMode, error) {
	switch s {
	case "", "orbit":
		return ViewOrbit, nil
	case "camera":
		return ViewCamera, nil
	}
	return ViewOrbit, fmt.Errorf("unknown view mode %q", s)
}

func (m ViewMode) String() string {
	if m == ViewCamera {
		return "camera"
	}
	return "orbit"
}

// Program is a linked shader program with matrix uniforms.
type Program interface {
	Use()
	SetMat4(name string, m mgl32.Mat4)
}

// Assets are the GPU objects the loop draws with.
type Assets struct {
	Program Program
	VAO     uint32
	Scene   *scene.Scene
	// Release deletes the GPU objects. It runs while the context is still
	// current, before the context and window are released.
	Release func()
}

// Bootstrapper produces the bound context the loop renders into.
type Bootstrapper interface {
	Initialize() (*bootstrap.Ready, error)
}

// SetupFunc creates the assets once the context is current.
type SetupFunc func(ready *bootstrap.Ready) (Assets, error)

// DefaultCameraStart puts the free camera in front of the cube ring.
var DefaultCameraStart = mgl32.Vec3{0, 0, 15}

type Config struct {
	View ViewMode
	// CameraStart is the initial camera position in ViewCamera mode.
	CameraStart mgl32.Vec3
	// MaxFrames closes the window after that many presented frames; 0 runs
	// until the user quits.
	MaxFrames uint64
}

// Loop is the frame loop driver. It runs on the thread that owns the context.
type Loop struct {
	cfg      Config
	driver   graphics.Driver
	gpu      graphics.GPU
	clock    *clock.Clock
	reporter *diag.Reporter

	state    State
	ready    *bootstrap.Ready
	assets   Assets
	router   *input.Router
	camera   *camera.Camera
	angle    float32
	rendered uint64
	exitCode int
}

func New(cfg Config, driver graphics.Driver, gpu graphics.GPU, clk *clock.Clock, reporter *diag.Reporter) *Loop {
	if clk == nil {
		clk = clock.New()
	}
	return &Loop{
		cfg:      cfg,
		driver:   driver,
		gpu:      gpu,
		clock:    clk,
		reporter: reporter,
		state:    StateBootstrapping,
		camera:   camera.New(cfg.CameraStart),
	}
}

func (l *Loop) State() State { return l.state }

// Frames is the number of frames rendered so far.
func (l *Loop) Frames() uint64 { return l.rendered }

// ExitCode is the code carried by the quit event.
func (l *Loop) ExitCode() int { return l.exitCode }

func (l *Loop) Camera() *camera.Camera { return l.camera }

func (l *Loop) Router() *input.Router { return l.router }

// Run bootstraps with b, builds the assets with setup and loops until a quit
// is observed. The context and window are released before Run returns.
func (l *Loop) Run(b Bootstrapper, setup SetupFunc) (err error) {
	if l.state != StateBootstrapping {
		return fmt.Errorf("loop is %s", l.state)
	}

	ready, err := b.Initialize()
	if err != nil {
		l.state = StateTerminated
		return err
	}
	l.ready = ready
	defer func() {
		err = multierr.Append(err, ready.Close())
	}()

	l.assets, err = setup(ready)
	if l.assets.Release != nil {
		defer l.assets.Release()
	}
	if err != nil {
		l.state = StateTerminated
		return fmt.Errorf("setup: %w", err)
	}
	if l.assets.Scene == nil || l.assets.Program == nil {
		l.state = StateTerminated
		return errors.New("setup returned no scene or program")
	}

	l.router = input.NewRouter(l.driver, ready.Window, l.camera, l.gpu, l.reporter)
	l.state = StateRunning
	l.clock.Start()
	l.reporter.Info("entering frame loop (%s view)", l.cfg.View)

	for l.state == StateRunning {
		if err := l.iterate(); err != nil {
			l.state = StateTerminated
			return err
		}
	}

	l.reporter.Info("frame loop ended after %d frames, %.1f fps", l.rendered, l.clock.FramesPerSecond())
	return nil
}

// iterate is one pass: drain, then render and present if nothing was pending.
func (l *Loop) iterate() error {
	if l.drain() {
		return nil
	}
	l.render()
	if err := l.present(); err != nil {
		return err
	}
	l.angle += scene.OrbitStep

	if l.cfg.MaxFrames > 0 && l.rendered >= l.cfg.MaxFrames {
		l.reporter.Info("frame limit %d reached, closing window", l.cfg.MaxFrames)
		l.router.Handle(graphics.Event{Kind: graphics.EventClose, Window: l.ready.Window})
		if l.driver.WindowValid(l.ready.Window) {
			// The close was not honored; no quit will follow.
			l.reporter.Error("window survived close after frame limit, stopping")
			l.state = StateTerminated
		}
	}
	return nil
}

// drain handles every pending event and reports whether there were any.
// A quit event terminates the loop once the current iteration completes.
func (l *Loop) drain() bool {
	pending := false
	for {
		ev, ok := l.driver.PollEvent()
		if !ok {
			return pending
		}
		pending = true
		if ev.Kind == graphics.EventQuit {
			l.exitCode = ev.Code
			l.state = StateTerminated
			continue
		}
		l.router.Handle(ev)
	}
}

func (l *Loop) view() mgl32.Mat4 {
	if l.cfg.View == ViewCamera {
		return l.camera.ViewMatrix()
	}
	return scene.OrbitView(l.angle)
}

func (l *Loop) render() {
	l.clock.Tick()
	dt := float32(l.clock.Delta())
	for _, dir := range l.router.TakeMoves() {
		l.camera.ProcessKeyboard(dir, dt)
	}

	view := l.view()
	s := l.assets.Scene

	l.gpu.Clear()
	l.assets.Program.Use()
	l.gpu.BindVertexArray(l.assets.VAO)
	mvps := s.Transforms(view)
	for i, obj := range s.Objects {
		l.assets.Program.SetMat4(UniformModel, obj.Model)
		l.assets.Program.SetMat4(UniformMVP, mvps[i])
		for face := int32(0); face < scene.FacesPerCube; face++ {
			l.gpu.DrawArrays(graphics.TriangleFan, face*scene.VerticesPerFace, scene.VerticesPerFace)
		}
	}
	l.gpu.BindVertexArray(0)
	l.gpu.UseProgram(0)
	l.rendered++
}

// present swaps buffers. A failure on a live window is reported and skipped.
func (l *Loop) present() error {
	err := l.driver.SwapBuffers(l.ready.DeviceContext)
	if err == nil {
		return nil
	}
	if !l.driver.WindowValid(l.ready.Window) {
		l.reporter.Error("present failed on a destroyed window: %v", err)
		return fmt.Errorf("%w: %v", ErrWindowLost, err)
	}
	l.reporter.Error("present failed: %v", err)
	return nil
}
