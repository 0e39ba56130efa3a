package bootstrap

import (
	"errors"
	"fmt"
)

// Step identifies one stage of the bootstrap sequence.
type Step int

const (
	StepValidateHost Step = iota + 1
	StepCreateWindow
	StepAcquireDeviceContext
	StepChoosePixelFormat
	StepApplyPixelFormat
	StepCreateLegacyContext
	StepBindLegacyContext
	StepResolveEntryPoint
	StepCreateVersionedContext
	StepReleaseLegacyContext
	StepBindFinalContext
	StepInitLoader
	StepApplyBaseline
)

var stepNames = map[Step]string{
	StepValidateHost:           "ValidateHost",
	StepCreateWindow:           "CreateWindow",
	StepAcquireDeviceContext:   "AcquireDeviceContext",
	StepChoosePixelFormat:      "ChoosePixelFormat",
	StepApplyPixelFormat:       "ApplyPixelFormat",
	StepCreateLegacyContext:    "CreateLegacyContext",
	StepBindLegacyContext:      "BindLegacyContext",
	StepResolveEntryPoint:      "ResolveEntryPoint",
	StepCreateVersionedContext: "CreateVersionedContext",
	StepReleaseLegacyContext:   "ReleaseLegacyContext",
	StepBindFinalContext:       "BindFinalContext",
	StepInitLoader:             "InitLoader",
	StepApplyBaseline:          "ApplyBaseline",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// Kind separates failures by remediation.
type Kind int

const (
	// KindResource is an OS or driver resource that could not be acquired.
	KindResource Kind = iota
	// KindCapability is a driver capability the hardware or driver lacks.
	KindCapability
)

func (k Kind) String() string {
	if k == KindCapability {
		return "capability unavailable"
	}
	return "resource acquisition"
}

var (
	ErrInvalidHostContext             = errors.New("invalid host context")
	ErrWindowCreationFailed           = errors.New("window creation failed")
	ErrDeviceContextUnavailable       = errors.New("device context unavailable")
	ErrNoMatchingPixelFormat          = errors.New("no matching pixel format")
	ErrPixelFormatApplyFailed         = errors.New("pixel format apply failed")
	ErrLegacyContextCreationFailed    = errors.New("legacy context creation failed")
	ErrContextBindFailed              = errors.New("context bind failed")
	ErrExtensionEntryPointMissing     = errors.New("extension entry point missing")
	ErrVersionedContextCreationFailed = errors.New("versioned context creation failed")
	ErrFinalContextBindFailed         = errors.New("final context bind failed")
	ErrFunctionLoaderInitFailed       = errors.New("function loader init failed")

	// ErrAlreadyInitialized is returned by a second call to Initialize.
	ErrAlreadyInitialized = errors.New("bootstrap already attempted")
)

// Error is a failed bootstrap step. errors.Is matches both the step
// sentinel and the underlying cause.
type Error struct {
	Step  Step
	Kind  Kind
	Err   error
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bootstrap %s: %v: %v", e.Step, e.Err, e.Cause)
	}
	return fmt.Sprintf("bootstrap %s: %v", e.Step, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func kindOf(sentinel error) Kind {
	switch sentinel {
	case ErrExtensionEntryPointMissing, ErrFunctionLoaderInitFailed:
		return KindCapability
	default:
		return KindResource
	}
}
