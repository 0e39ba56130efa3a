// Package native provides the real graphics.Driver for the host platform:
// WGL on Windows and GLX (loaded at runtime through purego) on Linux.
//
// A driver is bound to the thread that created it. Callers must lock the OS
// thread before New and make every call from it.
package native

import (
	"errors"
	"io"

	"github.com/richinsley/goglboot/graphics"
)

// ErrUnsupported is returned by New on platforms without a driver.
var ErrUnsupported = errors.New("no native graphics driver for this platform")

// Driver is a graphics.Driver holding a connection to the window system
// that must be closed after the bootstrapper has shut down.
type Driver interface {
	graphics.Driver
	io.Closer
}
