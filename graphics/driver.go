package graphics

// Handle types owned by the bootstrapper. The zero value is always invalid.
type (
	Instance         uintptr
	Window           uintptr
	DeviceContext    uintptr
	RenderingContext uintptr
)

// WindowConfig describes the single native window the application creates.
type WindowConfig struct {
	ClassName string
	Title     string
	Width     int
	Height    int
}

// Driver is the windowing system and graphics driver surface consumed by the
// bootstrapper and the frame loop. Every call is synchronous and must be
// made from the thread that created the window.
type Driver interface {
	// HostInstance returns the process/display handle windows are created
	// against, or 0 when the host is unusable.
	HostInstance() Instance

	RegisterWindowClass(cfg WindowConfig) error
	CreateWindow(cfg WindowConfig) (Window, error)
	ShowWindow(w Window)
	DestroyWindow(w Window) error
	WindowValid(w Window) bool

	GetDeviceContext(w Window) (DeviceContext, error)
	ReleaseDeviceContext(w Window, dc DeviceContext) error

	// ChoosePixelFormat returns the index of the closest supported format,
	// 0 when none matches.
	ChoosePixelFormat(dc DeviceContext, pf PixelFormat) (int, error)
	SetPixelFormat(dc DeviceContext, index int, pf PixelFormat) error

	CreateContext(dc DeviceContext) (RenderingContext, error)
	// MakeCurrent binds rc to dc on the calling thread. A zero rc unbinds.
	MakeCurrent(dc DeviceContext, rc RenderingContext) error
	DeleteContext(rc RenderingContext) error

	// CreateContextAttribsName is the platform entry point used to request a
	// versioned context, e.g. wglCreateContextAttribsARB.
	CreateContextAttribsName() string
	// ProcAddress resolves an extension entry point against the current
	// context. It returns 0 when the entry point is unavailable.
	ProcAddress(name string) uintptr
	CreateContextAttribs(proc uintptr, dc DeviceContext, share RenderingContext, attribs ContextAttribs) (RenderingContext, error)

	SwapBuffers(dc DeviceContext) error

	// PollEvent returns the next pending event without blocking. ok is false
	// when the queue is empty.
	PollEvent() (ev Event, ok bool)
	// PostQuit queues an EventQuit that a later PollEvent returns.
	PostQuit(code int)
}

// Loader initializes the graphics API function pointers for the context
// that is current on the calling thread.
type Loader interface {
	Init() error
}
