package graphics

// PixelFormat is the surface format requested from the driver.
type PixelFormat struct {
	DoubleBuffer bool
	ColorBits    uint8
	RedBits      uint8
	GreenBits    uint8
	BlueBits     uint8
	AlphaBits    uint8
	DepthBits    uint8
	StencilBits  uint8
}

// DefaultPixelFormat is double-buffered RGBA8 with 32 bit color, 32 bit depth
// and 8 bit stencil.
func DefaultPixelFormat() PixelFormat {
	return PixelFormat{
		DoubleBuffer: true,
		ColorBits:    32,
		RedBits:      8,
		GreenBits:    8,
		BlueBits:     8,
		AlphaBits:    8,
		DepthBits:    32,
		StencilBits:  8,
	}
}

// Profile selects the context profile for a versioned context.
type Profile int

const (
	ProfileCore Profile = iota
	ProfileCompatibility
)

func (p Profile) String() string {
	switch p {
	case ProfileCore:
		return "core"
	case ProfileCompatibility:
		return "compatibility"
	default:
		return "unknown"
	}
}

// ARB_create_context attribute names. WGL and GLX share the same values.
const (
	contextMajorVersionArb         = 0x2091
	contextMinorVersionArb         = 0x2092
	contextFlagsArb                = 0x2094
	contextProfileMaskArb          = 0x9126
	contextCoreProfileBitArb       = 0x00000001
	contextCompatProfileBitArb     = 0x00000002
	contextForwardCompatibleBitArb = 0x00000002
	contextDebugBitArb             = 0x00000001
)

// ContextAttribs is the version and profile requested for the final context.
type ContextAttribs struct {
	Major             int
	Minor             int
	Profile           Profile
	ForwardCompatible bool
	Debug             bool
}

// List encodes the attributes as a zero-terminated ARB attribute list.
func (a ContextAttribs) List() []int32 {
	profile := int32(contextCoreProfileBitArb)
	if a.Profile == ProfileCompatibility {
		profile = contextCompatProfileBitArb
	}
	var flags int32
	if a.ForwardCompatible {
		flags |= contextForwardCompatibleBitArb
	}
	if a.Debug {
		flags |= contextDebugBitArb
	}
	return []int32{
		contextMajorVersionArb, int32(a.Major),
		contextMinorVersionArb, int32(a.Minor),
		contextProfileMaskArb, profile,
		contextFlagsArb, flags,
		0,
	}
}
