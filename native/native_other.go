//go:build !windows && !linux

package native

func New() (Driver, error) {
	return nil, ErrUnsupported
}
