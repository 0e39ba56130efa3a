package native

import "github.com/richinsley/goglboot/graphics"

// Window messages translated into events.
const (
	wmDestroy    = 0x0002
	wmSize       = 0x0005
	wmClose      = 0x0010
	wmQuit       = 0x0012
	wmEraseBkgnd = 0x0014
	wmKeyDown    = 0x0100
	wmChar       = 0x0102
	wmMouseMove  = 0x0200

	vkEscape = 0x1B
)

// translateWin32 maps a window message to an event. handled reports that the
// window procedure must return 0 instead of calling DefWindowProc; close is
// left to the application so it can decide when to destroy the window.
func translateWin32(msg uint32, wParam, lParam uintptr) (ev graphics.Event, handled bool) {
	switch msg {
	case wmMouseMove:
		// GET_X_LPARAM / GET_Y_LPARAM: signed low and high words
		ev = graphics.Event{
			Kind: graphics.EventMouseMove,
			X:    float32(int16(lParam & 0xFFFF)),
			Y:    float32(int16((lParam >> 16) & 0xFFFF)),
		}
	case wmKeyDown:
		ev = graphics.Event{Kind: graphics.EventKeyDown, Key: graphics.KeyUnknown}
		if wParam&0xFFFF == vkEscape {
			ev.Key = graphics.KeyEscape
		}
	case wmChar:
		ev = graphics.Event{Kind: graphics.EventChar, Rune: rune(wParam & 0xFFFF)}
	case wmSize:
		ev = graphics.Event{
			Kind:   graphics.EventResize,
			Width:  int(lParam & 0xFFFF),
			Height: int((lParam >> 16) & 0xFFFF),
		}
	case wmClose:
		return graphics.Event{Kind: graphics.EventClose}, true
	case wmDestroy:
		return graphics.Event{Kind: graphics.EventDestroy}, true
	case wmEraseBkgnd:
		return graphics.Event{}, true
	}
	return ev, false
}
