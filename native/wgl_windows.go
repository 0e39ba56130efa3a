//go:build windows

package native

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"github.com/richinsley/goglboot/graphics"
	"golang.org/x/sys/windows"
)

const (
	csOwnDC   = 0x0020
	csHRedraw = 0x0002
	csVRedraw = 0x0001

	wsOverlappedWindow = 0x00CF0000
	wsClipSiblings     = 0x04000000
	wsClipChildren     = 0x02000000
	cwUseDefault       = 0x80000000
	swShow             = 5
	pmRemove           = 0x0001
	idcArrow           = 32512

	pfdTypeRGBA      = 0
	pfdMainPlane     = 0
	pfdDoubleBuffer  = 0x00000001
	pfdDrawToWindow  = 0x00000004
	pfdSupportOpenGL = 0x00000020
)

type msg struct {
	hwnd     windows.Handle
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       struct{ x, y int32 }
	lPrivate uint32
}

type wndClassEx struct {
	cbSize        uint32
	style         uint32
	lpfnWndProc   uintptr
	cbClsExtra    int32
	cbWndExtra    int32
	hInstance     windows.Handle
	hIcon         windows.Handle
	hCursor       windows.Handle
	hbrBackground windows.Handle
	lpszMenuName  *uint16
	lpszClassName *uint16
	hIconSm       windows.Handle
}

// PIXELFORMATDESCRIPTOR, 40 bytes.
type pixelFormatDescriptor struct {
	nSize           uint16
	nVersion        uint16
	dwFlags         uint32
	iPixelType      byte
	cColorBits      byte
	cRedBits        byte
	cRedShift       byte
	cGreenBits      byte
	cGreenShift     byte
	cBlueBits       byte
	cBlueShift      byte
	cAlphaBits      byte
	cAlphaShift     byte
	cAccumBits      byte
	cAccumRedBits   byte
	cAccumGreenBits byte
	cAccumBlueBits  byte
	cAccumAlphaBits byte
	cDepthBits      byte
	cStencilBits    byte
	cAuxBuffers     byte
	iLayerType      byte
	bReserved       byte
	dwLayerMask     uint32
	dwVisibleMask   uint32
	dwDamageMask    uint32
}

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")
	opengl32 = windows.NewLazySystemDLL("opengl32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procRegisterClassEx  = user32.NewProc("RegisterClassExW")
	procUnregisterClass  = user32.NewProc("UnregisterClassW")
	procCreateWindowEx   = user32.NewProc("CreateWindowExW")
	procDefWindowProc    = user32.NewProc("DefWindowProcW")
	procDestroyWindow    = user32.NewProc("DestroyWindow")
	procIsWindow         = user32.NewProc("IsWindow")
	procShowWindow       = user32.NewProc("ShowWindow")
	procUpdateWindow     = user32.NewProc("UpdateWindow")
	procSetForeground    = user32.NewProc("SetForegroundWindow")
	procSetFocus         = user32.NewProc("SetFocus")
	procPeekMessage      = user32.NewProc("PeekMessageW")
	procTranslateMessage = user32.NewProc("TranslateMessage")
	procDispatchMessage  = user32.NewProc("DispatchMessageW")
	procPostQuitMessage  = user32.NewProc("PostQuitMessage")
	procGetDC            = user32.NewProc("GetDC")
	procReleaseDC        = user32.NewProc("ReleaseDC")
	procLoadCursor       = user32.NewProc("LoadCursorW")

	procChoosePixelFormat   = gdi32.NewProc("ChoosePixelFormat")
	procDescribePixelFormat = gdi32.NewProc("DescribePixelFormat")
	procSetPixelFormat      = gdi32.NewProc("SetPixelFormat")
	procSwapBuffers         = gdi32.NewProc("SwapBuffers")

	procWglCreateContext  = opengl32.NewProc("wglCreateContext")
	procWglMakeCurrent    = opengl32.NewProc("wglMakeCurrent")
	procWglDeleteContext  = opengl32.NewProc("wglDeleteContext")
	procWglGetProcAddress = opengl32.NewProc("wglGetProcAddress")

	procGetModuleHandle = kernel32.NewProc("GetModuleHandleW")
)

// current receives messages dispatched to the window procedure.
var (
	current     *wglDriver
	wndProcAddr = windows.NewCallback(wndProc)
)

type wglDriver struct {
	instance windows.Handle
	class    *uint16
	queue    []graphics.Event
}

// New returns the WGL driver. Only one may exist per process.
func New() (Driver, error) {
	for _, p := range []*windows.LazyProc{procRegisterClassEx, procCreateWindowEx, procGetDC, procChoosePixelFormat, procWglCreateContext, procWglGetProcAddress} {
		if err := p.Find(); err != nil {
			return nil, fmt.Errorf("missing procedure %q: %w", p.Name, err)
		}
	}
	if current != nil {
		return nil, errors.New("a WGL driver is already open")
	}
	d := &wglDriver{}
	current = d
	return d, nil
}

func (d *wglDriver) Close() error {
	if current == d {
		current = nil
	}
	if d.class == nil {
		return nil
	}
	r, _, err := procUnregisterClass.Call(uintptr(unsafe.Pointer(d.class)), uintptr(d.instance))
	d.class = nil
	if r == 0 {
		return winErr("UnregisterClassW", err)
	}
	return nil
}

func winErr(op string, err error) error {
	if errno, ok := err.(syscall.Errno); ok && errno != 0 {
		return fmt.Errorf("%s failed: %w", op, errno)
	}
	return fmt.Errorf("%s failed", op)
}

func (d *wglDriver) HostInstance() graphics.Instance {
	h, _, _ := procGetModuleHandle.Call(0)
	d.instance = windows.Handle(h)
	return graphics.Instance(h)
}

func (d *wglDriver) RegisterWindowClass(cfg graphics.WindowConfig) error {
	name, err := windows.UTF16PtrFromString(cfg.ClassName)
	if err != nil {
		return err
	}
	cursor, _, _ := procLoadCursor.Call(0, idcArrow)
	wc := wndClassEx{
		cbSize:        uint32(unsafe.Sizeof(wndClassEx{})),
		style:         csOwnDC | csHRedraw | csVRedraw,
		lpfnWndProc:   wndProcAddr,
		hInstance:     d.instance,
		hCursor:       windows.Handle(cursor),
		lpszClassName: name,
	}
	ret, _, callErr := procRegisterClassEx.Call(uintptr(unsafe.Pointer(&wc)))
	if ret == 0 && callErr != windows.ERROR_CLASS_ALREADY_EXISTS {
		return winErr("RegisterClassExW", callErr)
	}
	d.class = name
	return nil
}

func (d *wglDriver) CreateWindow(cfg graphics.WindowConfig) (graphics.Window, error) {
	title, err := windows.UTF16PtrFromString(cfg.Title)
	if err != nil {
		return 0, err
	}
	hwnd, _, callErr := procCreateWindowEx.Call(
		0,
		uintptr(unsafe.Pointer(d.class)),
		uintptr(unsafe.Pointer(title)),
		wsOverlappedWindow|wsClipSiblings|wsClipChildren,
		cwUseDefault,
		cwUseDefault,
		uintptr(cfg.Width),
		uintptr(cfg.Height),
		0,
		0,
		uintptr(d.instance),
		0,
	)
	if hwnd == 0 {
		return 0, winErr("CreateWindowExW", callErr)
	}
	return graphics.Window(hwnd), nil
}

func (d *wglDriver) ShowWindow(w graphics.Window) {
	procShowWindow.Call(uintptr(w), swShow)
	procUpdateWindow.Call(uintptr(w))
	procSetForeground.Call(uintptr(w))
	procSetFocus.Call(uintptr(w))
}

// DestroyWindow sends WM_DESTROY synchronously; its event is queued before
// DestroyWindow returns.
func (d *wglDriver) DestroyWindow(w graphics.Window) error {
	ret, _, err := procDestroyWindow.Call(uintptr(w))
	if ret == 0 {
		return winErr("DestroyWindow", err)
	}
	return nil
}

func (d *wglDriver) WindowValid(w graphics.Window) bool {
	ret, _, _ := procIsWindow.Call(uintptr(w))
	return ret != 0
}

func (d *wglDriver) GetDeviceContext(w graphics.Window) (graphics.DeviceContext, error) {
	dc, _, err := procGetDC.Call(uintptr(w))
	if dc == 0 {
		return 0, winErr("GetDC", err)
	}
	return graphics.DeviceContext(dc), nil
}

func (d *wglDriver) ReleaseDeviceContext(w graphics.Window, dc graphics.DeviceContext) error {
	ret, _, _ := procReleaseDC.Call(uintptr(w), uintptr(dc))
	if ret == 0 {
		return errors.New("ReleaseDC: device context not released")
	}
	return nil
}

func descriptor(pf graphics.PixelFormat) pixelFormatDescriptor {
	flags := uint32(pfdDrawToWindow | pfdSupportOpenGL)
	if pf.DoubleBuffer {
		flags |= pfdDoubleBuffer
	}
	return pixelFormatDescriptor{
		nSize:        uint16(unsafe.Sizeof(pixelFormatDescriptor{})),
		nVersion:     1,
		dwFlags:      flags,
		iPixelType:   pfdTypeRGBA,
		cColorBits:   pf.ColorBits,
		cRedBits:     pf.RedBits,
		cGreenBits:   pf.GreenBits,
		cBlueBits:    pf.BlueBits,
		cAlphaBits:   pf.AlphaBits,
		cDepthBits:   pf.DepthBits,
		cStencilBits: pf.StencilBits,
		iLayerType:   pfdMainPlane,
	}
}

func (d *wglDriver) ChoosePixelFormat(dc graphics.DeviceContext, pf graphics.PixelFormat) (int, error) {
	pfd := descriptor(pf)
	index, _, err := procChoosePixelFormat.Call(uintptr(dc), uintptr(unsafe.Pointer(&pfd)))
	if index == 0 {
		return 0, winErr("ChoosePixelFormat", err)
	}
	return int(index), nil
}

// SetPixelFormat applies the format as the driver describes it rather than
// the requested descriptor.
func (d *wglDriver) SetPixelFormat(dc graphics.DeviceContext, index int, pf graphics.PixelFormat) error {
	var chosen pixelFormatDescriptor
	ret, _, err := procDescribePixelFormat.Call(uintptr(dc), uintptr(index), unsafe.Sizeof(chosen), uintptr(unsafe.Pointer(&chosen)))
	if ret == 0 {
		return winErr("DescribePixelFormat", err)
	}
	ok, _, err := procSetPixelFormat.Call(uintptr(dc), uintptr(index), uintptr(unsafe.Pointer(&chosen)))
	if ok == 0 {
		return winErr("SetPixelFormat", err)
	}
	return nil
}

func (d *wglDriver) CreateContext(dc graphics.DeviceContext) (graphics.RenderingContext, error) {
	rc, _, err := procWglCreateContext.Call(uintptr(dc))
	if rc == 0 {
		return 0, winErr("wglCreateContext", err)
	}
	return graphics.RenderingContext(rc), nil
}

func (d *wglDriver) MakeCurrent(dc graphics.DeviceContext, rc graphics.RenderingContext) error {
	if rc == 0 {
		dc = 0
	}
	ret, _, err := procWglMakeCurrent.Call(uintptr(dc), uintptr(rc))
	if ret == 0 {
		return winErr("wglMakeCurrent", err)
	}
	return nil
}

func (d *wglDriver) DeleteContext(rc graphics.RenderingContext) error {
	ret, _, err := procWglDeleteContext.Call(uintptr(rc))
	if ret == 0 {
		return winErr("wglDeleteContext", err)
	}
	return nil
}

func (d *wglDriver) CreateContextAttribsName() string {
	return "wglCreateContextAttribsARB"
}

// ProcAddress resolves an extension through the current context. Some
// drivers return small sentinel values instead of NULL on failure.
func (d *wglDriver) ProcAddress(name string) uintptr {
	cname, err := windows.BytePtrFromString(name)
	if err != nil {
		return 0
	}
	addr, _, _ := procWglGetProcAddress.Call(uintptr(unsafe.Pointer(cname)))
	switch int(addr) {
	case 0, 1, 2, 3, -1:
		return 0
	}
	return addr
}

// CreateContextAttribs calls wglCreateContextAttribsARB(hdc, share, attribs).
func (d *wglDriver) CreateContextAttribs(proc uintptr, dc graphics.DeviceContext, share graphics.RenderingContext, attribs graphics.ContextAttribs) (graphics.RenderingContext, error) {
	list := attribs.List()
	rc, _, err := syscall.SyscallN(proc, uintptr(dc), uintptr(share), uintptr(unsafe.Pointer(&list[0])))
	if rc == 0 {
		return 0, winErr("wglCreateContextAttribsARB", err)
	}
	return graphics.RenderingContext(rc), nil
}

func (d *wglDriver) SwapBuffers(dc graphics.DeviceContext) error {
	ret, _, err := procSwapBuffers.Call(uintptr(dc))
	if ret == 0 {
		return winErr("SwapBuffers", err)
	}
	return nil
}

func (d *wglDriver) pop() (graphics.Event, bool) {
	if len(d.queue) == 0 {
		return graphics.Event{}, false
	}
	ev := d.queue[0]
	d.queue = d.queue[1:]
	return ev, true
}

// PollEvent removes at most one message from the thread queue. Messages the
// window procedure does not translate come back as EventNone.
func (d *wglDriver) PollEvent() (graphics.Event, bool) {
	if ev, ok := d.pop(); ok {
		return ev, true
	}
	var m msg
	ret, _, _ := procPeekMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmRemove)
	if ret == 0 {
		return graphics.Event{}, false
	}
	if m.message == wmQuit {
		return graphics.Event{Kind: graphics.EventQuit, Code: int(m.wParam)}, true
	}
	procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
	procDispatchMessage.Call(uintptr(unsafe.Pointer(&m)))
	if ev, ok := d.pop(); ok {
		return ev, true
	}
	return graphics.Event{Kind: graphics.EventNone}, true
}

func (d *wglDriver) PostQuit(code int) {
	procPostQuitMessage.Call(uintptr(code))
}

func wndProc(hwnd, message, wParam, lParam uintptr) uintptr {
	ev, handled := translateWin32(uint32(message), wParam, lParam)
	if ev.Kind != graphics.EventNone && current != nil {
		ev.Window = graphics.Window(hwnd)
		current.queue = append(current.queue, ev)
	}
	if handled {
		return 0
	}
	ret, _, _ := procDefWindowProc.Call(hwnd, message, wParam, lParam)
	return ret
}
