package native

import (
	"encoding/binary"
	"fmt"

	"github.com/richinsley/goglboot/graphics"
)

// X11 event types.
const (
	xKeyPress        = 2
	xMotionNotify    = 6
	xDestroyNotify   = 17
	xConfigureNotify = 22
	xClientMessage   = 33

	xkEscape = 0xFF1B

	// xEventSize is sizeof(XEvent) on LP64.
	xEventSize = 192
)

// Field offsets inside an XEvent on LP64.
const (
	offType       = 0
	offWindow     = 32
	offPointerX   = 64 // XKeyEvent and XMotionEvent
	offPointerY   = 68
	offConfWidth  = 56
	offConfHeight = 60
	offClientData = 56
	offDestroyWin = 40
)

// keyLookup resolves the keysym and text of the key event being decoded.
type keyLookup func() (keysym uint64, text string)

// decodeXEvent turns one raw XEvent into zero or more events. A key press
// yields a key-down followed by one char event per rune it produced.
func decodeXEvent(raw []byte, wmDelete uint64, lookup keyLookup) []graphics.Event {
	if len(raw) < xEventSize {
		return nil
	}
	ne := binary.NativeEndian
	win := graphics.Window(ne.Uint64(raw[offWindow:]))

	switch int32(ne.Uint32(raw[offType:])) {
	case xMotionNotify:
		return []graphics.Event{{
			Kind:   graphics.EventMouseMove,
			Window: win,
			X:      float32(int32(ne.Uint32(raw[offPointerX:]))),
			Y:      float32(int32(ne.Uint32(raw[offPointerY:]))),
		}}

	case xKeyPress:
		var keysym uint64
		var text string
		if lookup != nil {
			keysym, text = lookup()
		}
		evs := []graphics.Event{{Kind: graphics.EventKeyDown, Window: win, Key: graphics.KeyUnknown}}
		if keysym == xkEscape {
			evs[0].Key = graphics.KeyEscape
		}
		for _, r := range text {
			if r >= 0x20 && r != 0x7F {
				evs = append(evs, graphics.Event{Kind: graphics.EventChar, Window: win, Rune: r})
			}
		}
		return evs

	case xConfigureNotify:
		return []graphics.Event{{
			Kind:   graphics.EventResize,
			Window: win,
			Width:  int(int32(ne.Uint32(raw[offConfWidth:]))),
			Height: int(int32(ne.Uint32(raw[offConfHeight:]))),
		}}

	case xClientMessage:
		if ne.Uint64(raw[offClientData:]) == wmDelete {
			return []graphics.Event{{Kind: graphics.EventClose, Window: win}}
		}

	case xDestroyNotify:
		return []graphics.Event{{Kind: graphics.EventDestroy, Window: graphics.Window(ne.Uint64(raw[offDestroyWin:]))}}
	}
	return nil
}

// XErrorEvent layout on LP64: type, display, resourceid and serial precede
// the three code bytes.
const (
	xErrorEventSize = 40
	offErrorCode    = 32
	offRequestCode  = 33
	offMinorCode    = 34
)

// xProtocolError is an X error trapped while a GLX request was in flight.
type xProtocolError struct {
	Code    uint8
	Request uint8
	Minor   uint8
}

func (e *xProtocolError) Error() string {
	return fmt.Sprintf("X protocol error %d on request %d.%d", e.Code, e.Request, e.Minor)
}

func decodeXError(raw []byte) *xProtocolError {
	if len(raw) < xErrorEventSize {
		return nil
	}
	return &xProtocolError{
		Code:    raw[offErrorCode],
		Request: raw[offRequestCode],
		Minor:   raw[offMinorCode],
	}
}

// depthCandidates lists the depth buffer sizes to try, largest first,
// never exceeding the request.
func depthCandidates(requested uint8) []uint8 {
	out := []uint8{requested}
	for _, d := range []uint8{24, 16} {
		if d < requested {
			out = append(out, d)
		}
	}
	return out
}
