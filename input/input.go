// Package input routes window-system events to camera commands and to the
// quit signal that ends the frame loop.
package input

import (
	"unicode"

	"github.com/richinsley/goglboot/camera"
	"github.com/richinsley/goglboot/diag"
	"github.com/richinsley/goglboot/graphics"
	"go.uber.org/zap"
)

// WindowSystem is the part of graphics.Driver the router needs.
type WindowSystem interface {
	DestroyWindow(w graphics.Window) error
	PostQuit(code int)
}

// Rotator receives cursor offsets.
type Rotator interface {
	ProcessMouseMovement(dx, dy float32)
}

// Viewporter is told the new drawable size on resize.
type Viewporter interface {
	Viewport(x, y, width, height int32)
}

// State is everything the router remembers between events.
type State struct {
	LastX, LastY float32
	// FirstMouse is true until a cursor position has been seen.
	FirstMouse bool
	// Moves are the movement commands received since the last TakeMoves,
	// in arrival order.
	Moves  []camera.Direction
	Width  int
	Height int
}

var movementKeys = map[rune]camera.Direction{
	'w': camera.Forward,
	's': camera.Backward,
	'a': camera.Left,
	'd': camera.Right,
}

type Router struct {
	State State

	ws       WindowSystem
	window   graphics.Window
	rotator  Rotator
	viewport Viewporter
	reporter *diag.Reporter
}

// NewRouter routes events for window. rotator and viewport may be nil.
func NewRouter(ws WindowSystem, window graphics.Window, rotator Rotator, viewport Viewporter, reporter *diag.Reporter) *Router {
	return &Router{
		State:    State{FirstMouse: true},
		ws:       ws,
		window:   window,
		rotator:  rotator,
		viewport: viewport,
		reporter: reporter,
	}
}

// Handle applies one event. Quit events are the loop's business and are
// ignored here.
func (r *Router) Handle(ev graphics.Event) {
	switch ev.Kind {
	case graphics.EventMouseMove:
		dx, dy := r.offset(ev.X, ev.Y)
		if r.rotator != nil {
			r.rotator.ProcessMouseMovement(dx, dy)
		}

	case graphics.EventKeyDown:
		if ev.Key == graphics.KeyEscape {
			r.destroy("escape")
		}

	case graphics.EventChar:
		if dir, ok := movementKeys[unicode.ToLower(ev.Rune)]; ok {
			r.State.Moves = append(r.State.Moves, dir)
		}

	case graphics.EventResize:
		r.State.Width, r.State.Height = ev.Width, ev.Height
		if r.viewport != nil {
			r.viewport.Viewport(0, 0, int32(ev.Width), int32(ev.Height))
		}

	case graphics.EventClose:
		r.destroy("close")

	case graphics.EventDestroy:
		r.reporter.Info("window destroyed, posting quit")
		r.ws.PostQuit(0)
	}
}

// offset returns the cursor movement since the previous sample. Y grows
// downward on screen, so the vertical offset is reversed.
func (r *Router) offset(x, y float32) (float32, float32) {
	s := &r.State
	if s.FirstMouse {
		s.LastX, s.LastY = x, y
		s.FirstMouse = false
	}
	dx, dy := x-s.LastX, s.LastY-y
	s.LastX, s.LastY = x, y
	return dx, dy
}

func (r *Router) destroy(reason string) {
	if err := r.ws.DestroyWindow(r.window); err != nil {
		r.reporter.With(zap.String("reason", reason)).Error("destroy window: %v", err)
	}
}

// TakeMoves returns and clears the pending movement commands.
func (r *Router) TakeMoves() []camera.Direction {
	m := r.State.Moves
	r.State.Moves = nil
	return m
}

// ResetFirstSample makes the next cursor event a new baseline.
func (r *Router) ResetFirstSample() {
	r.State.FirstMouse = true
}
