package graphics

import "fmt"

// EventKind identifies a window-system event.
type EventKind uint8

const (
	// EventNone is a message that was pumped but carries nothing the
	// application reacts to.
	EventNone EventKind = iota
	EventMouseMove
	EventKeyDown
	EventChar
	EventResize
	EventClose
	EventDestroy
	EventQuit
)

func (k EventKind) String() string {
	switch k {
	case EventNone:
		return "None"
	case EventMouseMove:
		return "MouseMove"
	case EventKeyDown:
		return "KeyDown"
	case EventChar:
		return "Char"
	case EventResize:
		return "Resize"
	case EventClose:
		return "Close"
	case EventDestroy:
		return "Destroy"
	case EventQuit:
		return "Quit"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Key is a virtual key reported with EventKeyDown.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
)

// Event is a single window-system event.
//
// X/Y are meaningful for MouseMove, Key for KeyDown, Rune for Char,
// Width/Height for Resize and Code for Quit.
type Event struct {
	Kind   EventKind
	Window Window
	X, Y   float32
	Key    Key
	Rune   rune
	Width  int
	Height int
	Code   int
}
