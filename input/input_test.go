package input

import (
	"testing"

	"github.com/richinsley/goglboot/camera"
	"github.com/richinsley/goglboot/graphics"
	"github.com/richinsley/goglboot/graphics/graphicstest"
)

type rotations struct {
	dx, dy []float32
}

func (r *rotations) ProcessMouseMovement(dx, dy float32) {
	r.dx = append(r.dx, dx)
	r.dy = append(r.dy, dy)
}

func newRouter(t *testing.T) (*Router, *graphicstest.Driver, graphics.Window, *rotations, *graphicstest.GPU) {
	t.Helper()
	d := graphicstest.NewDriver()
	w, err := d.CreateWindow(graphics.WindowConfig{})
	if err != nil {
		t.Fatal(err)
	}
	rot := &rotations{}
	gpu := &graphicstest.GPU{}
	return NewRouter(d, w, rot, gpu, nil), d, w, rot, gpu
}

func mouse(x, y float32) graphics.Event {
	return graphics.Event{Kind: graphics.EventMouseMove, X: x, Y: y}
}

func TestFirstMouseSuppressed(t *testing.T) {
	r, _, _, rot, _ := newRouter(t)

	r.Handle(mouse(400, 300))
	r.Handle(mouse(410, 290))

	if rot.dx[0] != 0 || rot.dy[0] != 0 {
		t.Errorf("first offset = (%g,%g), want zero", rot.dx[0], rot.dy[0])
	}
	if rot.dx[1] != 10 || rot.dy[1] != 10 {
		t.Errorf("second offset = (%g,%g), want (10,10)", rot.dx[1], rot.dy[1])
	}

	r.ResetFirstSample()
	r.Handle(mouse(0, 0))
	r.Handle(mouse(-5, 5))
	if rot.dx[2] != 0 || rot.dy[2] != 0 {
		t.Errorf("offset after reset = (%g,%g), want zero", rot.dx[2], rot.dy[2])
	}
	if rot.dx[3] != -5 || rot.dy[3] != -5 {
		t.Errorf("offset = (%g,%g), want (-5,-5)", rot.dx[3], rot.dy[3])
	}
}

func TestMovementKeys(t *testing.T) {
	r, _, _, _, _ := newRouter(t)
	for _, c := range "wWaAsSdDfx" {
		r.Handle(graphics.Event{Kind: graphics.EventChar, Rune: c})
	}
	want := []camera.Direction{
		camera.Forward, camera.Forward,
		camera.Left, camera.Left,
		camera.Backward, camera.Backward,
		camera.Right, camera.Right,
	}
	got := r.TakeMoves()
	if len(got) != len(want) {
		t.Fatalf("moves = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("move %d = %s, want %s", i, got[i], want[i])
		}
	}
	if len(r.TakeMoves()) != 0 {
		t.Error("moves not cleared")
	}
}

func TestEscapeEndsInQuit(t *testing.T) {
	r, d, w, _, _ := newRouter(t)

	r.Handle(graphics.Event{Kind: graphics.EventKeyDown, Key: graphics.KeyUnknown})
	if d.Count(graphicstest.OpDestroyWindow) != 0 {
		t.Fatal("non-exit key destroyed the window")
	}

	r.Handle(graphics.Event{Kind: graphics.EventKeyDown, Key: graphics.KeyEscape})
	if d.WindowValid(w) {
		t.Fatal("escape did not destroy the window")
	}

	ev, ok := d.PollEvent()
	if !ok || ev.Kind != graphics.EventDestroy {
		t.Fatalf("expected destroy notification, got %v %v", ev.Kind, ok)
	}
	r.Handle(ev)

	ev, ok = d.PollEvent()
	if !ok || ev.Kind != graphics.EventQuit {
		t.Fatalf("expected quit, got %v %v", ev.Kind, ok)
	}
}

func TestCloseDestroys(t *testing.T) {
	r, d, w, _, _ := newRouter(t)
	r.Handle(graphics.Event{Kind: graphics.EventClose})
	if d.WindowValid(w) {
		t.Error("close did not destroy the window")
	}

	// a second close on a dead window is reported, not fatal
	r.Handle(graphics.Event{Kind: graphics.EventClose})
}

func TestOnlyDestroyPostsQuit(t *testing.T) {
	r, d, _, _, _ := newRouter(t)
	for _, ev := range []graphics.Event{
		mouse(1, 1),
		{Kind: graphics.EventChar, Rune: 'w'},
		{Kind: graphics.EventKeyDown, Key: graphics.KeyUnknown},
		{Kind: graphics.EventResize, Width: 10, Height: 10},
		{Kind: graphics.EventNone},
	} {
		r.Handle(ev)
	}
	if d.Pending() != 0 {
		t.Errorf("%d events queued by non-terminal input", d.Pending())
	}
}

func TestResizeSetsViewport(t *testing.T) {
	r, _, _, _, gpu := newRouter(t)
	r.Handle(graphics.Event{Kind: graphics.EventResize, Width: 800, Height: 600})
	if len(gpu.Calls) != 1 || gpu.Calls[0] != "Viewport(0,0,800,600)" {
		t.Errorf("calls = %v", gpu.Calls)
	}
	if r.State.Width != 800 || r.State.Height != 600 {
		t.Errorf("state size = %dx%d", r.State.Width, r.State.Height)
	}
}
