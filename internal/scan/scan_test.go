package scan

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuepoint-terminal/internal/camera"
)

// scriptedDecoder succeeds on the frame whose Width matches hitWidth,
// letting tests control which frame decodes.
type scriptedDecoder struct {
	hitWidth int
	attempts int
}

func (d *scriptedDecoder) Attempt(frame camera.Frame) (string, bool) {
	d.attempts++
	if frame.Width == d.hitWidth {
		return fmt.Sprintf("code-%d", frame.Width), true
	}
	return "", false
}

func TestRun_NilDecoderIsUnsupported(t *testing.T) {
	frames := make(chan camera.Frame)

	_, err := Run(context.Background(), frames, nil)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestRun_DecodesOnNthFrame(t *testing.T) {
	frames := make(chan camera.Frame, 4)
	for _, w := range []int{1, 2, 3, 4} {
		frames <- camera.Frame{Width: w, Height: 1}
	}

	decoder := &scriptedDecoder{hitWidth: 3}
	code, err := Run(context.Background(), frames, decoder)

	require.NoError(t, err)
	assert.Equal(t, "code-3", code)
	assert.Equal(t, 3, decoder.attempts, "sampling stops at the first decode")
}

func TestRun_ChannelCloseMeansStopped(t *testing.T) {
	frames := make(chan camera.Frame, 2)
	frames <- camera.Frame{Width: 1, Height: 1}
	frames <- camera.Frame{Width: 2, Height: 1}
	close(frames)

	decoder := &scriptedDecoder{hitWidth: -1}
	_, err := Run(context.Background(), frames, decoder)

	assert.ErrorIs(t, err, ErrStopped)
	assert.Equal(t, 2, decoder.attempts, "queued frames are still attempted")
}

func TestRun_ContextCancelEndsLoop(t *testing.T) {
	frames := make(chan camera.Frame)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := Run(ctx, frames, &scriptedDecoder{hitWidth: -1})
		errCh <- err
	}()

	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("run did not return after cancel")
	}
}
