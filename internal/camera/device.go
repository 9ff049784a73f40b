package camera

import (
	"context"
	"errors"
	"image"
)

// Frame is one captured sample. Width/Height are 0 while the device is
// still warming up; consumers skip such frames without treating that as
// an error.
type Frame struct {
	Image  image.Image
	Width  int
	Height int
}

// Stream is an open capture stream. Close is idempotent and releases the
// underlying device synchronously; after Close the frame channel is
// closed. The channel also closes if the OS revokes the device grant.
type Stream interface {
	Frames() <-chan Frame
	Close() error
}

// Device abstracts the platform camera. Open acquires exclusive access,
// preferring the rear-facing device where the platform distinguishes.
// Acquisition failures are returned as one of the classified sentinel
// errors below.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Classified acquisition failures. None of these are retried
// automatically; the operator must re-invoke start after acting on the
// advisory.
var (
	ErrPermissionDenied       = errors.New("camera permission denied")
	ErrNoDevice               = errors.New("no camera device found")
	ErrDeviceBusy             = errors.New("camera device busy")
	ErrInsecureContext        = errors.New("camera requires a secure context")
	ErrUnsupportedConstraints = errors.New("camera constraints unsupported")
)

// AdvisoryFor maps a classified acquisition failure to the operator-facing
// advisory for that class.
func AdvisoryFor(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Camera access was denied. Grant camera permission to this terminal, then start scanning again."
	case errors.Is(err, ErrNoDevice):
		return "No camera was found on this terminal. Use manual code entry instead."
	case errors.Is(err, ErrDeviceBusy):
		return "The camera is in use by another application. Close it and start scanning again."
	case errors.Is(err, ErrInsecureContext):
		return "Camera access requires a secure connection to the terminal."
	case errors.Is(err, ErrUnsupportedConstraints):
		return "This camera does not support the required capture settings. Use manual code entry instead."
	default:
		return "The camera could not be started. Use manual code entry instead."
	}
}
