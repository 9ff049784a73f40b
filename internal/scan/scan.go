// Package scan runs the frame-sampling loop of an active camera session.
// Sampling is driven by frame delivery, never by a free-running timer, so
// the loop yields between samples and dies with its session.
package scan

import (
	"context"
	"errors"

	"venuepoint-terminal/internal/camera"
	"venuepoint-terminal/internal/decode"
)

var (
	// ErrUnsupported means no decoding capability exists on this terminal.
	// Reported once at session start; the caller falls back to manual entry.
	ErrUnsupported = errors.New("code decoding is not supported on this terminal")

	// ErrStopped means the session ended before a code was decoded.
	ErrStopped = errors.New("scan stopped before a code was decoded")
)

// Run samples frames until one decodes, the session stops (frame channel
// closes), or ctx is cancelled. It reports at most one identifier. The
// caller stops the session afterwards; ownership of the camera stays with
// the session manager.
func Run(ctx context.Context, frames <-chan camera.Frame, decoder decode.Decoder) (string, error) {
	if decoder == nil {
		return "", ErrUnsupported
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return "", ErrStopped
			}
			if id, ok := decoder.Attempt(frame); ok {
				return id, nil
			}
		}
	}
}
