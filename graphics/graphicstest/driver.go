// Package graphicstest provides in-memory fakes of the graphics interfaces.
// The fake driver records every call in order and can be told to fail any
// operation, which lets tests drive the bootstrap and frame loop without a
// display.
package graphicstest

import (
	"errors"
	"fmt"

	"github.com/richinsley/goglboot/graphics"
)

// Operation names recorded in Driver.Trace.
const (
	OpHostInstance         = "HostInstance"
	OpRegisterWindowClass  = "RegisterWindowClass"
	OpCreateWindow         = "CreateWindow"
	OpShowWindow           = "ShowWindow"
	OpDestroyWindow        = "DestroyWindow"
	OpGetDeviceContext     = "GetDeviceContext"
	OpReleaseDeviceContext = "ReleaseDeviceContext"
	OpChoosePixelFormat    = "ChoosePixelFormat"
	OpSetPixelFormat       = "SetPixelFormat"
	OpCreateContext        = "CreateContext"
	OpMakeCurrent          = "MakeCurrent"
	OpUnbind               = "Unbind"
	OpDeleteContext        = "DeleteContext"
	OpProcAddress          = "ProcAddress"
	OpCreateContextAttribs = "CreateContextAttribs"
	OpSwapBuffers          = "SwapBuffers"
)

// ErrInjected is the default error returned by injected failures.
var ErrInjected = errors.New("injected failure")

type failure struct {
	err  error
	call int // 0 fails every call
}

// Driver is a recording graphics.Driver.
type Driver struct {
	Trace []string

	// Current is the context bound on the (single) thread.
	Current graphics.RenderingContext
	// Live holds every created context that has not been deleted.
	Live map[graphics.RenderingContext]bool
	// Provisional is the first context created with CreateContext.
	Provisional graphics.RenderingContext
	// Final is the context returned by CreateContextAttribs.
	Final graphics.RenderingContext
	// Attribs is the attribute list the final context was requested with.
	Attribs []int32
	// Format is the pixel format applied with SetPixelFormat.
	Format graphics.PixelFormat

	windows  map[graphics.Window]bool
	dcs      map[graphics.DeviceContext]graphics.Window
	failures map[string]failure
	counts   map[string]int
	next     uintptr

	sent   []graphics.Event
	posted []graphics.Event
	quit   bool
}

var _ graphics.Driver = (*Driver)(nil)

func NewDriver() *Driver {
	return &Driver{
		Live:     make(map[graphics.RenderingContext]bool),
		windows:  make(map[graphics.Window]bool),
		dcs:      make(map[graphics.DeviceContext]graphics.Window),
		failures: make(map[string]failure),
		counts:   make(map[string]int),
		next:     0x100,
	}
}

// Fail makes every call of op fail with err (ErrInjected when nil).
func (d *Driver) Fail(op string, err error) {
	d.FailAt(op, 0, err)
}

// FailAt makes only the n-th (1-based) call of op fail.
func (d *Driver) FailAt(op string, n int, err error) {
	if err == nil {
		err = ErrInjected
	}
	d.failures[op] = failure{err: err, call: n}
}

// Index returns the position of the first op in the trace, -1 if absent.
func (d *Driver) Index(op string) int {
	for i, t := range d.Trace {
		if t == op {
			return i
		}
	}
	return -1
}

// Count returns how many times op was recorded.
func (d *Driver) Count(op string) int {
	n := 0
	for _, t := range d.Trace {
		if t == op {
			n++
		}
	}
	return n
}

// LiveWindows returns the number of windows not yet destroyed.
func (d *Driver) LiveWindows() int {
	n := 0
	for _, alive := range d.windows {
		if alive {
			n++
		}
	}
	return n
}

// LiveDeviceContexts returns the number of unreleased device contexts.
func (d *Driver) LiveDeviceContexts() int {
	return len(d.dcs)
}

// Push posts events to the queue as if the window system had produced them.
func (d *Driver) Push(evs ...graphics.Event) {
	d.posted = append(d.posted, evs...)
}

// Pending reports the number of queued events.
func (d *Driver) Pending() int {
	return len(d.sent) + len(d.posted)
}

func (d *Driver) record(op string) error {
	d.Trace = append(d.Trace, op)
	d.counts[op]++
	f, ok := d.failures[op]
	if !ok {
		return nil
	}
	if f.call == 0 || f.call == d.counts[op] {
		return f.err
	}
	return nil
}

func (d *Driver) handle() uintptr {
	d.next++
	return d.next
}

func (d *Driver) HostInstance() graphics.Instance {
	if d.record(OpHostInstance) != nil {
		return 0
	}
	return graphics.Instance(d.handle())
}

func (d *Driver) RegisterWindowClass(cfg graphics.WindowConfig) error {
	return d.record(OpRegisterWindowClass)
}

func (d *Driver) CreateWindow(cfg graphics.WindowConfig) (graphics.Window, error) {
	if err := d.record(OpCreateWindow); err != nil {
		return 0, err
	}
	w := graphics.Window(d.handle())
	d.windows[w] = true
	return w, nil
}

func (d *Driver) ShowWindow(w graphics.Window) {
	d.record(OpShowWindow)
}

// DestroyWindow marks the window dead and delivers EventDestroy ahead of any
// posted events, the way a window system sends its destroy notification.
func (d *Driver) DestroyWindow(w graphics.Window) error {
	if err := d.record(OpDestroyWindow); err != nil {
		return err
	}
	if !d.windows[w] {
		return fmt.Errorf("window %#x not alive", uintptr(w))
	}
	d.windows[w] = false
	d.sent = append(d.sent, graphics.Event{Kind: graphics.EventDestroy, Window: w})
	return nil
}

func (d *Driver) WindowValid(w graphics.Window) bool {
	return d.windows[w]
}

// Invalidate kills a window without any notification.
func (d *Driver) Invalidate(w graphics.Window) {
	d.windows[w] = false
}

func (d *Driver) GetDeviceContext(w graphics.Window) (graphics.DeviceContext, error) {
	if err := d.record(OpGetDeviceContext); err != nil {
		return 0, err
	}
	if !d.windows[w] {
		return 0, fmt.Errorf("window %#x not alive", uintptr(w))
	}
	dc := graphics.DeviceContext(d.handle())
	d.dcs[dc] = w
	return dc, nil
}

func (d *Driver) ReleaseDeviceContext(w graphics.Window, dc graphics.DeviceContext) error {
	if err := d.record(OpReleaseDeviceContext); err != nil {
		return err
	}
	if owner, ok := d.dcs[dc]; !ok || owner != w {
		return fmt.Errorf("device context %#x not owned by window %#x", uintptr(dc), uintptr(w))
	}
	delete(d.dcs, dc)
	return nil
}

func (d *Driver) ChoosePixelFormat(dc graphics.DeviceContext, pf graphics.PixelFormat) (int, error) {
	if err := d.record(OpChoosePixelFormat); err != nil {
		return 0, err
	}
	return 7, nil
}

func (d *Driver) SetPixelFormat(dc graphics.DeviceContext, index int, pf graphics.PixelFormat) error {
	if err := d.record(OpSetPixelFormat); err != nil {
		return err
	}
	d.Format = pf
	return nil
}

func (d *Driver) CreateContext(dc graphics.DeviceContext) (graphics.RenderingContext, error) {
	if err := d.record(OpCreateContext); err != nil {
		return 0, err
	}
	rc := graphics.RenderingContext(d.handle())
	d.Live[rc] = true
	if d.Provisional == 0 {
		d.Provisional = rc
	}
	return rc, nil
}

func (d *Driver) MakeCurrent(dc graphics.DeviceContext, rc graphics.RenderingContext) error {
	op := OpMakeCurrent
	if rc == 0 {
		op = OpUnbind
	}
	if err := d.record(op); err != nil {
		return err
	}
	if rc != 0 && !d.Live[rc] {
		return fmt.Errorf("context %#x not alive", uintptr(rc))
	}
	d.Current = rc
	return nil
}

func (d *Driver) DeleteContext(rc graphics.RenderingContext) error {
	if err := d.record(OpDeleteContext); err != nil {
		return err
	}
	if !d.Live[rc] {
		return fmt.Errorf("context %#x not alive", uintptr(rc))
	}
	delete(d.Live, rc)
	if d.Current == rc {
		d.Current = 0
	}
	return nil
}

func (d *Driver) CreateContextAttribsName() string {
	return "fakeCreateContextAttribsARB"
}

func (d *Driver) ProcAddress(name string) uintptr {
	if d.record(OpProcAddress) != nil || d.Current == 0 {
		return 0
	}
	return 0xC0DE
}

func (d *Driver) CreateContextAttribs(proc uintptr, dc graphics.DeviceContext, share graphics.RenderingContext, attribs graphics.ContextAttribs) (graphics.RenderingContext, error) {
	if err := d.record(OpCreateContextAttribs); err != nil {
		return 0, err
	}
	if proc == 0 {
		return 0, errors.New("nil entry point")
	}
	rc := graphics.RenderingContext(d.handle())
	d.Live[rc] = true
	d.Final = rc
	d.Attribs = attribs.List()
	return rc, nil
}

func (d *Driver) SwapBuffers(dc graphics.DeviceContext) error {
	if err := d.record(OpSwapBuffers); err != nil {
		return err
	}
	if _, ok := d.dcs[dc]; !ok {
		return fmt.Errorf("device context %#x not alive", uintptr(dc))
	}
	return nil
}

func (d *Driver) PollEvent() (graphics.Event, bool) {
	if len(d.sent) > 0 {
		ev := d.sent[0]
		d.sent = d.sent[1:]
		return ev, true
	}
	if len(d.posted) > 0 {
		ev := d.posted[0]
		d.posted = d.posted[1:]
		return ev, true
	}
	return graphics.Event{}, false
}

func (d *Driver) PostQuit(code int) {
	if d.quit {
		return
	}
	d.quit = true
	d.posted = append(d.posted, graphics.Event{Kind: graphics.EventQuit, Code: code})
}

// Loader is a graphics.Loader that requires a current context on its driver.
type Loader struct {
	Driver *Driver
	Err    error
	Calls  int
	// BoundTo is the context that was current when Init succeeded.
	BoundTo graphics.RenderingContext
}

func (l *Loader) Init() error {
	l.Calls++
	if l.Err != nil {
		return l.Err
	}
	if l.Driver != nil && l.Driver.Current == 0 {
		return errors.New("no current context")
	}
	if l.Driver != nil {
		l.BoundTo = l.Driver.Current
	}
	return nil
}
