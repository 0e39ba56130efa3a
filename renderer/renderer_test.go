package renderer

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/goglboot/bootstrap"
	"github.com/richinsley/goglboot/clock"
	"github.com/richinsley/goglboot/diag"
	"github.com/richinsley/goglboot/graphics"
	"github.com/richinsley/goglboot/graphics/graphicstest"
	"github.com/richinsley/goglboot/scene"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fixture struct {
	driver  *graphicstest.Driver
	gpu     *graphicstest.GPU
	program *graphicstest.Program
	scene   *scene.Scene
	boot    *bootstrap.Bootstrapper
	logs    *observer.ObservedLogs
	clock   *clock.Clock
	loop    *Loop
}

// steppedSource advances 16ms on every read.
func steppedSource() clock.Source {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(16 * time.Millisecond)
		return t
	}
}

func newFixture(t *testing.T, cfg Config, positions []mgl32.Vec3) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	reporter := diag.New(zap.New(core))
	f := &fixture{
		driver:  graphicstest.NewDriver(),
		gpu:     &graphicstest.GPU{},
		program: &graphicstest.Program{},
		scene:   scene.New(positions, 45, 1920.0/1080.0, 0.1, 100),
		logs:    logs,
		clock:   clock.NewWithSource(steppedSource()),
	}
	f.boot = bootstrap.New(bootstrap.DefaultConfig(), f.driver, &graphicstest.Loader{Driver: f.driver}, f.gpu, reporter, f.clock)
	f.loop = New(cfg, f.driver, f.gpu, f.clock, reporter)
	return f
}

func (f *fixture) setup(ready *bootstrap.Ready) (Assets, error) {
	f.gpu.Reset()
	return Assets{Program: f.program, VAO: 3, Scene: f.scene}, nil
}

var twoObjects = []mgl32.Vec3{{0, 0, 0}, {2, 5, -15}}

func TestDrawOrderDeterministic(t *testing.T) {
	f := newFixture(t, Config{MaxFrames: 3}, twoObjects)

	if err := f.loop.Run(f.boot, f.setup); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.loop.Frames() != 3 {
		t.Fatalf("rendered %d frames, want 3", f.loop.Frames())
	}
	if f.loop.State() != StateTerminated {
		t.Errorf("state = %s", f.loop.State())
	}

	var frame []string
	frame = append(frame, "Clear", "BindVertexArray(3)")
	for range twoObjects {
		for face := 0; face < 6; face++ {
			frame = append(frame, fmt.Sprintf("DrawArrays(%d,%d,4)", graphics.TriangleFan, face*4))
		}
	}
	frame = append(frame, "BindVertexArray(0)", "UseProgram(0)")

	if len(f.gpu.Calls) != 3*len(frame) {
		t.Fatalf("got %d calls, want %d: %v", len(f.gpu.Calls), 3*len(frame), f.gpu.Calls)
	}
	for i, c := range f.gpu.Calls {
		if want := frame[i%len(frame)]; c != want {
			t.Fatalf("call %d = %s, want %s", i, c, want)
		}
	}

	models := f.program.Named(UniformModel)
	if len(models) != 3*len(twoObjects) {
		t.Fatalf("%d model uploads", len(models))
	}
	for i, m := range models {
		if want := f.scene.Objects[i%len(twoObjects)].Model; m != want {
			t.Errorf("upload %d: model %v, want %v", i, m, want)
		}
	}
	if f.program.Uses != 3 {
		t.Errorf("program used %d times", f.program.Uses)
	}
	if f.driver.Count(graphicstest.OpSwapBuffers) != 3 {
		t.Errorf("%d presents", f.driver.Count(graphicstest.OpSwapBuffers))
	}
}

func TestOrbitAdvancesPerFrame(t *testing.T) {
	f := newFixture(t, Config{MaxFrames: 2}, twoObjects)
	if err := f.loop.Run(f.boot, f.setup); err != nil {
		t.Fatalf("Run: %v", err)
	}

	mvps := f.program.Named(UniformMVP)
	if len(mvps) != 4 {
		t.Fatalf("%d mvp uploads", len(mvps))
	}
	for frame, angle := range []float32{0, scene.OrbitStep} {
		view := scene.OrbitView(angle)
		for i, obj := range f.scene.Objects {
			want := scene.MVP(f.scene.Projection, view, obj.Model)
			if got := mvps[frame*2+i]; got != want {
				t.Errorf("frame %d object %d: mvp %v, want %v", frame, i, got, want)
			}
		}
	}
}

func TestQuitStopsBeforeRendering(t *testing.T) {
	f := newFixture(t, Config{}, twoObjects)
	f.driver.Push(
		graphics.Event{Kind: graphics.EventMouseMove, X: 1, Y: 1},
		graphics.Event{Kind: graphics.EventQuit, Code: 3},
	)

	if err := f.loop.Run(f.boot, f.setup); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.loop.Frames() != 0 {
		t.Errorf("rendered %d frames after quit", f.loop.Frames())
	}
	if f.loop.ExitCode() != 3 {
		t.Errorf("exit code = %d", f.loop.ExitCode())
	}
	if len(f.driver.Live) != 0 {
		t.Error("context not released after the loop")
	}
}

func TestPendingEventsSkipRender(t *testing.T) {
	f := newFixture(t, Config{MaxFrames: 1}, twoObjects)
	f.driver.Push(graphics.Event{Kind: graphics.EventMouseMove, X: 5, Y: 5})

	if err := f.loop.Run(f.boot, f.setup); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.loop.Frames() != 1 {
		t.Errorf("rendered %d frames", f.loop.Frames())
	}
	if f.loop.Router().State.FirstMouse {
		t.Error("mouse event never reached the router")
	}
}

func TestEscapeTerminates(t *testing.T) {
	f := newFixture(t, Config{}, twoObjects)
	f.driver.Push(graphics.Event{Kind: graphics.EventKeyDown, Key: graphics.KeyEscape})

	if err := f.loop.Run(f.boot, f.setup); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.loop.State() != StateTerminated {
		t.Errorf("state = %s", f.loop.State())
	}
	if f.driver.LiveWindows() != 0 {
		t.Error("window still alive")
	}
}

func TestPresentFailureIsRecoverable(t *testing.T) {
	f := newFixture(t, Config{MaxFrames: 3}, twoObjects)
	f.driver.FailAt(graphicstest.OpSwapBuffers, 2, nil)

	if err := f.loop.Run(f.boot, f.setup); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.loop.Frames() != 3 {
		t.Errorf("rendered %d frames, want 3", f.loop.Frames())
	}
	if f.logs.FilterMessageSnippet("present failed").Len() != 1 {
		t.Errorf("present failure not reported once: %v", f.logs.All())
	}
}

func TestPresentOnLostWindow(t *testing.T) {
	f := newFixture(t, Config{}, twoObjects)
	f.driver.Fail(graphicstest.OpSwapBuffers, nil)
	setup := func(ready *bootstrap.Ready) (Assets, error) {
		f.driver.Invalidate(ready.Window)
		return f.setup(ready)
	}

	err := f.loop.Run(f.boot, setup)
	if !errors.Is(err, ErrWindowLost) {
		t.Fatalf("err = %v, want ErrWindowLost", err)
	}
	if f.loop.Frames() != 1 {
		t.Errorf("rendered %d frames", f.loop.Frames())
	}
	if len(f.driver.Live) != 0 {
		t.Error("context not released")
	}
}

func TestBootstrapFailureNeverRuns(t *testing.T) {
	f := newFixture(t, Config{}, twoObjects)
	f.driver.Fail(graphicstest.OpProcAddress, nil)

	setupCalled := false
	err := f.loop.Run(f.boot, func(*bootstrap.Ready) (Assets, error) {
		setupCalled = true
		return Assets{}, nil
	})
	if !errors.Is(err, bootstrap.ErrExtensionEntryPointMissing) {
		t.Fatalf("err = %v", err)
	}
	if setupCalled {
		t.Error("setup ran without a context")
	}
	if f.loop.State() != StateTerminated {
		t.Errorf("state = %s", f.loop.State())
	}
	if err := f.loop.Run(f.boot, f.setup); err == nil {
		t.Error("second Run succeeded")
	}
}

func TestSetupFailureReleasesContext(t *testing.T) {
	f := newFixture(t, Config{}, twoObjects)
	boom := errors.New("shader compile")

	err := f.loop.Run(f.boot, func(*bootstrap.Ready) (Assets, error) { return Assets{}, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if len(f.driver.Live) != 0 || f.driver.LiveWindows() != 0 {
		t.Error("resources leaked after setup failure")
	}
}

func TestCameraMode(t *testing.T) {
	f := newFixture(t, Config{View: ViewCamera, CameraStart: mgl32.Vec3{0, 0, 3}, MaxFrames: 1}, twoObjects)
	f.driver.Push(graphics.Event{Kind: graphics.EventChar, Rune: 'W'})

	if err := f.loop.Run(f.boot, f.setup); err != nil {
		t.Fatalf("Run: %v", err)
	}
	cam := f.loop.Camera()
	if cam.Position[2] >= 3 {
		t.Errorf("camera did not move forward: %v", cam.Position)
	}
	want := scene.MVP(f.scene.Projection, cam.ViewMatrix(), f.scene.Objects[0].Model)
	if got := f.program.Named(UniformMVP)[0]; got != want {
		t.Errorf("mvp = %v, want camera view %v", got, want)
	}
}

func TestParseViewMode(t *testing.T) {
	for in, want := range map[string]ViewMode{"": ViewOrbit, "orbit": ViewOrbit, "camera": ViewCamera} {
		got, err := ParseViewMode(in)
		if err != nil || got != want {
			t.Errorf("ParseViewMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseViewMode("fly"); err == nil {
		t.Error("unknown mode accepted")
	}
}

func TestFrameLimitStopsWhenCloseFails(t *testing.T) {
	f := newFixture(t, Config{MaxFrames: 2}, twoObjects)
	f.driver.Fail(graphicstest.OpDestroyWindow, nil)

	done := make(chan error, 1)
	go func() { done <- f.loop.Run(f.boot, f.setup) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop kept running past the frame limit")
	}

	if f.loop.State() != StateTerminated {
		t.Errorf("state = %s", f.loop.State())
	}
	if f.loop.Frames() != 2 {
		t.Errorf("rendered %d frames, want 2", f.loop.Frames())
	}
	if n := f.logs.FilterMessageSnippet("window survived close").Len(); n != 1 {
		t.Errorf("%d stop reports", n)
	}
}

func TestAssetsReleasedWhileContextCurrent(t *testing.T) {
	f := newFixture(t, Config{MaxFrames: 1}, twoObjects)
	var releases int
	var boundAtRelease graphics.RenderingContext
	setup := func(ready *bootstrap.Ready) (Assets, error) {
		a, err := f.setup(ready)
		a.Release = func() {
			releases++
			boundAtRelease = f.driver.Current
		}
		return a, err
	}

	if err := f.loop.Run(f.boot, setup); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if releases != 1 {
		t.Fatalf("released %d times", releases)
	}
	if boundAtRelease == 0 || boundAtRelease != f.driver.Final {
		t.Errorf("context at release = %#x, want final %#x", boundAtRelease, f.driver.Final)
	}
	if len(f.driver.Live) != 0 {
		t.Error("context leaked")
	}
}

func TestAssetsReleasedOnSetupFailure(t *testing.T) {
	f := newFixture(t, Config{}, twoObjects)
	released := false
	boom := errors.New("mesh upload")

	err := f.loop.Run(f.boot, func(*bootstrap.Ready) (Assets, error) {
		return Assets{Release: func() { released = true }}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if !released {
		t.Error("partial assets were not released")
	}
}
