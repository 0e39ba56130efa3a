//go:build linux

package native

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/richinsley/goglboot/graphics"
)

const (
	glxRGBAType = 0x8014

	glxDoubleBuffer   = 5
	glxRedSize        = 8
	glxGreenSize      = 9
	glxBlueSize       = 10
	glxAlphaSize      = 11
	glxDepthSize      = 12
	glxStencilSize    = 13
	glxXVisualType    = 0x22
	glxTrueColor      = 0x8002
	glxDrawableType   = 0x8010
	glxRenderType     = 0x8011
	glxXRenderable    = 0x8012
	glxVisualID       = 0x800B
	glxWindowBit      = 0x1
	glxRGBABit        = 0x1
	xKeyPressMask     = 1 << 0
	xPointerMotion    = 1 << 6
	xStructureNotify  = 1 << 17
	glxCreateContextX = "GLX_ARB_create_context"
)

var (
	x11Once sync.Once
	x11Err  error

	xOpenDisplay        func(*byte) uintptr
	xCloseDisplay       func(uintptr) int32
	xDefaultScreen      func(uintptr) int32
	xDefaultVisual      func(uintptr, int32) uintptr
	xVisualIDFromVisual func(uintptr) uint64
	xRootWindow         func(uintptr, int32) uintptr
	xBlackPixel         func(uintptr, int32) uint64
	xCreateSimpleWindow func(uintptr, uintptr, int32, int32, uint32, uint32, uint32, uint64, uint64) uintptr
	xDestroyWindow      func(uintptr, uintptr) int32
	xStoreName          func(uintptr, uintptr, *byte) int32
	xSelectInput        func(uintptr, uintptr, int64) int32
	xMapWindow          func(uintptr, uintptr) int32
	xInternAtom         func(uintptr, *byte, int32) uintptr
	xSetWMProtocols     func(uintptr, uintptr, *uintptr, int32) int32
	xPending            func(uintptr) int32
	xNextEvent          func(uintptr, unsafe.Pointer) int32
	xLookupString       func(unsafe.Pointer, *byte, int32, *uint64, uintptr) int32
	xFlush              func(uintptr) int32
	xSync               func(uintptr, int32) int32
	xFree               func(uintptr) int32
	xSetErrorHandler    func(uintptr) uintptr

	// errorHandler records the first X error into trapped instead of letting
	// Xlib's default handler exit the process.
	errorHandler uintptr
	trapped      *xProtocolError

	glXChooseFBConfig        func(uintptr, int32, *int32, *int32) uintptr
	glXGetFBConfigAttrib     func(uintptr, uintptr, int32, *int32) int32
	glXCreateNewContext      func(uintptr, uintptr, int32, uintptr, int32) uintptr
	glXMakeContextCurrent    func(uintptr, uintptr, uintptr, uintptr) int32
	glXDestroyContext        func(uintptr, uintptr)
	glXSwapBuffers           func(uintptr, uintptr)
	glXGetProcAddressARB     func(*byte) uintptr
	glXQueryExtensionsString func(uintptr, int32) uintptr
)

func loadX11() error {
	x11Once.Do(func() {
		x11, err := purego.Dlopen("libX11.so.6", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err != nil {
			x11Err = fmt.Errorf("load libX11: %w", err)
			return
		}
		libGL, err := purego.Dlopen("libGL.so.1", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err != nil {
			x11Err = fmt.Errorf("load libGL: %w", err)
			return
		}

		purego.RegisterLibFunc(&xOpenDisplay, x11, "XOpenDisplay")
		purego.RegisterLibFunc(&xCloseDisplay, x11, "XCloseDisplay")
		purego.RegisterLibFunc(&xDefaultScreen, x11, "XDefaultScreen")
		purego.RegisterLibFunc(&xDefaultVisual, x11, "XDefaultVisual")
		purego.RegisterLibFunc(&xVisualIDFromVisual, x11, "XVisualIDFromVisual")
		purego.RegisterLibFunc(&xRootWindow, x11, "XRootWindow")
		purego.RegisterLibFunc(&xBlackPixel, x11, "XBlackPixel")
		purego.RegisterLibFunc(&xCreateSimpleWindow, x11, "XCreateSimpleWindow")
		purego.RegisterLibFunc(&xDestroyWindow, x11, "XDestroyWindow")
		purego.RegisterLibFunc(&xStoreName, x11, "XStoreName")
		purego.RegisterLibFunc(&xSelectInput, x11, "XSelectInput")
		purego.RegisterLibFunc(&xMapWindow, x11, "XMapWindow")
		purego.RegisterLibFunc(&xInternAtom, x11, "XInternAtom")
		purego.RegisterLibFunc(&xSetWMProtocols, x11, "XSetWMProtocols")
		purego.RegisterLibFunc(&xPending, x11, "XPending")
		purego.RegisterLibFunc(&xNextEvent, x11, "XNextEvent")
		purego.RegisterLibFunc(&xLookupString, x11, "XLookupString")
		purego.RegisterLibFunc(&xFlush, x11, "XFlush")
		purego.RegisterLibFunc(&xSync, x11, "XSync")
		purego.RegisterLibFunc(&xFree, x11, "XFree")
		purego.RegisterLibFunc(&xSetErrorHandler, x11, "XSetErrorHandler")
		errorHandler = purego.NewCallback(func(display, event uintptr) uintptr {
			if trapped == nil {
				trapped = decodeXError(unsafe.Slice((*byte)(unsafe.Pointer(event)), xErrorEventSize))
			}
			return 0
		})

		purego.RegisterLibFunc(&glXChooseFBConfig, libGL, "glXChooseFBConfig")
		purego.RegisterLibFunc(&glXGetFBConfigAttrib, libGL, "glXGetFBConfigAttrib")
		purego.RegisterLibFunc(&glXCreateNewContext, libGL, "glXCreateNewContext")
		purego.RegisterLibFunc(&glXMakeContextCurrent, libGL, "glXMakeContextCurrent")
		purego.RegisterLibFunc(&glXDestroyContext, libGL, "glXDestroyContext")
		purego.RegisterLibFunc(&glXSwapBuffers, libGL, "glXSwapBuffers")
		purego.RegisterLibFunc(&glXGetProcAddressARB, libGL, "glXGetProcAddressARB")
		purego.RegisterLibFunc(&glXQueryExtensionsString, libGL, "glXQueryExtensionsString")
	})
	return x11Err
}

func cString(s string) *byte {
	b := append([]byte(s), 0)
	return &b[0]
}

func goString(p uintptr) string {
	if p == 0 {
		return ""
	}
	var b strings.Builder
	for i := uintptr(0); ; i++ {
		c := *(*byte)(unsafe.Pointer(p + i))
		if c == 0 {
			return b.String()
		}
		b.WriteByte(c)
	}
}

// glxDriver maps the Win32 vocabulary onto X11: the host instance is the
// display connection, the device context is the window drawable and the
// pixel format index selects one of the framebuffer configs matching the
// window's visual.
type glxDriver struct {
	display  uintptr
	screen   int32
	wmDelete uintptr

	windows map[graphics.Window]bool
	configs []uintptr
	applied map[graphics.DeviceContext]uintptr
	queue   []graphics.Event
	quit    bool
}

// New loads libX11 and libGL; the display is opened by HostInstance.
func New() (Driver, error) {
	if err := loadX11(); err != nil {
		return nil, err
	}
	return &glxDriver{
		windows: make(map[graphics.Window]bool),
		applied: make(map[graphics.DeviceContext]uintptr),
	}, nil
}

func (d *glxDriver) Close() error {
	if d.display == 0 {
		return nil
	}
	xCloseDisplay(d.display)
	d.display = 0
	return nil
}

// trapErrors runs fn with X errors captured rather than fatal and returns
// the first one raised by the requests fn issued.
func (d *glxDriver) trapErrors(fn func()) error {
	xSync(d.display, 0)
	trapped = nil
	prev := xSetErrorHandler(errorHandler)
	fn()
	xSync(d.display, 0)
	xSetErrorHandler(prev)
	err := trapped
	trapped = nil
	if err == nil {
		return nil
	}
	return err
}

func (d *glxDriver) HostInstance() graphics.Instance {
	if d.display == 0 {
		d.display = xOpenDisplay(nil)
		if d.display != 0 {
			d.screen = xDefaultScreen(d.display)
		}
	}
	return graphics.Instance(d.display)
}

// RegisterWindowClass has no X11 counterpart beyond the close protocol atom.
func (d *glxDriver) RegisterWindowClass(cfg graphics.WindowConfig) error {
	d.wmDelete = xInternAtom(d.display, cString("WM_DELETE_WINDOW"), 0)
	if d.wmDelete == 0 {
		return errors.New("XInternAtom WM_DELETE_WINDOW failed")
	}
	return nil
}

func (d *glxDriver) CreateWindow(cfg graphics.WindowConfig) (graphics.Window, error) {
	root := xRootWindow(d.display, d.screen)
	black := xBlackPixel(d.display, d.screen)
	w := xCreateSimpleWindow(d.display, root, 0, 0, uint32(cfg.Width), uint32(cfg.Height), 0, black, black)
	if w == 0 {
		return 0, errors.New("XCreateSimpleWindow failed")
	}
	xStoreName(d.display, w, cString(cfg.Title))
	xSelectInput(d.display, w, xKeyPressMask|xPointerMotion|xStructureNotify)
	atom := d.wmDelete
	xSetWMProtocols(d.display, w, &atom, 1)
	d.windows[graphics.Window(w)] = true
	return graphics.Window(w), nil
}

func (d *glxDriver) ShowWindow(w graphics.Window) {
	xMapWindow(d.display, uintptr(w))
	xFlush(d.display)
}

// DestroyWindow destroys w; DestroyNotify arrives through PollEvent.
func (d *glxDriver) DestroyWindow(w graphics.Window) error {
	if !d.windows[w] {
		return fmt.Errorf("window %#x not alive", uintptr(w))
	}
	xDestroyWindow(d.display, uintptr(w))
	xSync(d.display, 0)
	d.windows[w] = false
	return nil
}

func (d *glxDriver) WindowValid(w graphics.Window) bool {
	return d.windows[w]
}

func (d *glxDriver) GetDeviceContext(w graphics.Window) (graphics.DeviceContext, error) {
	if !d.windows[w] {
		return 0, fmt.Errorf("window %#x not alive", uintptr(w))
	}
	return graphics.DeviceContext(w), nil
}

func (d *glxDriver) ReleaseDeviceContext(w graphics.Window, dc graphics.DeviceContext) error {
	delete(d.applied, dc)
	return nil
}

func fbConfigAttribs(pf graphics.PixelFormat, depth uint8) []int32 {
	double := int32(0)
	if pf.DoubleBuffer {
		double = 1
	}
	return []int32{
		glxXRenderable, 1,
		glxDrawableType, glxWindowBit,
		glxRenderType, glxRGBABit,
		glxXVisualType, glxTrueColor,
		glxRedSize, int32(pf.RedBits),
		glxGreenSize, int32(pf.GreenBits),
		glxBlueSize, int32(pf.BlueBits),
		glxAlphaSize, int32(pf.AlphaBits),
		glxDepthSize, int32(depth),
		glxStencilSize, int32(pf.StencilBits),
		glxDoubleBuffer, double,
		0,
	}
}

// ChoosePixelFormat picks the first framebuffer config that satisfies pf and
// shares the window's visual. The depth request is relaxed step by step when
// nothing matches, the way ChoosePixelFormat settles for the closest format.
func (d *glxDriver) ChoosePixelFormat(dc graphics.DeviceContext, pf graphics.PixelFormat) (int, error) {
	visual := xVisualIDFromVisual(xDefaultVisual(d.display, d.screen))
	for _, depth := range depthCandidates(pf.DepthBits) {
		attribs := fbConfigAttribs(pf, depth)
		var n int32
		list := glXChooseFBConfig(d.display, d.screen, &attribs[0], &n)
		if list == 0 || n == 0 {
			continue
		}
		configs := unsafe.Slice((*uintptr)(unsafe.Pointer(list)), int(n))
		for _, cfg := range configs {
			var id int32
			if glXGetFBConfigAttrib(d.display, cfg, glxVisualID, &id) == 0 && uint64(id) == visual {
				d.configs = append(d.configs, cfg)
				xFree(list)
				return len(d.configs), nil
			}
		}
		xFree(list)
	}
	return 0, fmt.Errorf("no framebuffer config for visual %#x", visual)
}

func (d *glxDriver) SetPixelFormat(dc graphics.DeviceContext, index int, pf graphics.PixelFormat) error {
	if index < 1 || index > len(d.configs) {
		return fmt.Errorf("unknown pixel format %d", index)
	}
	if _, ok := d.applied[dc]; ok {
		return errors.New("pixel format already set for this drawable")
	}
	d.applied[dc] = d.configs[index-1]
	return nil
}

func (d *glxDriver) CreateContext(dc graphics.DeviceContext) (graphics.RenderingContext, error) {
	cfg, ok := d.applied[dc]
	if !ok {
		return 0, errors.New("no pixel format set")
	}
	var rc uintptr
	if err := d.trapErrors(func() {
		rc = glXCreateNewContext(d.display, cfg, glxRGBAType, 0, 1)
	}); err != nil {
		if rc != 0 {
			glXDestroyContext(d.display, rc)
		}
		return 0, fmt.Errorf("glXCreateNewContext: %w", err)
	}
	if rc == 0 {
		return 0, errors.New("glXCreateNewContext failed")
	}
	return graphics.RenderingContext(rc), nil
}

func (d *glxDriver) MakeCurrent(dc graphics.DeviceContext, rc graphics.RenderingContext) error {
	if rc == 0 {
		dc = 0
	}
	var ok int32
	if err := d.trapErrors(func() {
		ok = glXMakeContextCurrent(d.display, uintptr(dc), uintptr(dc), uintptr(rc))
	}); err != nil {
		return fmt.Errorf("glXMakeContextCurrent: %w", err)
	}
	if ok == 0 {
		return errors.New("glXMakeContextCurrent failed")
	}
	return nil
}

func (d *glxDriver) DeleteContext(rc graphics.RenderingContext) error {
	glXDestroyContext(d.display, uintptr(rc))
	return nil
}

func (d *glxDriver) CreateContextAttribsName() string {
	return "glXCreateContextAttribsARB"
}

// ProcAddress only trusts glXGetProcAddressARB for advertised extensions; it
// returns a non-NULL stub for any name.
func (d *glxDriver) ProcAddress(name string) uintptr {
	if name == d.CreateContextAttribsName() {
		exts := goString(glXQueryExtensionsString(d.display, d.screen))
		if !strings.Contains(" "+exts+" ", " "+glxCreateContextX+" ") {
			return 0
		}
	}
	return glXGetProcAddressARB(cString(name))
}

// CreateContextAttribs calls glXCreateContextAttribsARB(dpy, config, share,
// direct, attribs).
func (d *glxDriver) CreateContextAttribs(proc uintptr, dc graphics.DeviceContext, share graphics.RenderingContext, attribs graphics.ContextAttribs) (graphics.RenderingContext, error) {
	cfg, ok := d.applied[dc]
	if !ok {
		return 0, errors.New("no pixel format set")
	}
	list := attribs.List()
	var rc uintptr
	err := d.trapErrors(func() {
		rc, _, _ = purego.SyscallN(proc, d.display, cfg, uintptr(share), 1, uintptr(unsafe.Pointer(&list[0])))
	})
	if err != nil {
		if rc != 0 {
			glXDestroyContext(d.display, rc)
		}
		return 0, fmt.Errorf("glXCreateContextAttribsARB %d.%d %s: %w", attribs.Major, attribs.Minor, attribs.Profile, err)
	}
	if rc == 0 {
		return 0, errors.New("glXCreateContextAttribsARB returned no context")
	}
	return graphics.RenderingContext(rc), nil
}

func (d *glxDriver) SwapBuffers(dc graphics.DeviceContext) error {
	if !d.windows[graphics.Window(dc)] {
		return fmt.Errorf("drawable %#x not alive", uintptr(dc))
	}
	glXSwapBuffers(d.display, uintptr(dc))
	return nil
}

func (d *glxDriver) PollEvent() (graphics.Event, bool) {
	for len(d.queue) == 0 {
		if d.display == 0 || xPending(d.display) == 0 {
			return graphics.Event{}, false
		}
		var raw [xEventSize]byte
		xNextEvent(d.display, unsafe.Pointer(&raw[0]))
		evs := decodeXEvent(raw[:], uint64(d.wmDelete), func() (uint64, string) {
			var keysym uint64
			var buf [16]byte
			n := xLookupString(unsafe.Pointer(&raw[0]), &buf[0], int32(len(buf)), &keysym, 0)
			return keysym, string(buf[:n])
		})
		if len(evs) == 0 {
			return graphics.Event{Kind: graphics.EventNone}, true
		}
		for _, ev := range evs {
			if ev.Kind == graphics.EventDestroy {
				d.windows[ev.Window] = false
			}
		}
		d.queue = append(d.queue, evs...)
	}
	ev := d.queue[0]
	d.queue = d.queue[1:]
	return ev, true
}

func (d *glxDriver) PostQuit(code int) {
	if d.quit {
		return
	}
	d.quit = true
	d.queue = append(d.queue, graphics.Event{Kind: graphics.EventQuit, Code: code})
}
