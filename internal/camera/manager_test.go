package camera

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStream counts releases so tests can assert the one-release-per-start
// invariant.
type fakeStream struct {
	frames chan Frame

	mu     sync.Mutex
	closed int
}

func newFakeStream() *fakeStream {
	return &fakeStream{frames: make(chan Frame)}
}

func (s *fakeStream) Frames() <-chan Frame {
	return s.frames
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	if s.closed == 1 {
		close(s.frames)
	}
	return nil
}

func (s *fakeStream) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeDevice struct {
	openErr error

	mu      sync.Mutex
	opened  int
	streams []*fakeStream
}

func (d *fakeDevice) Open(ctx context.Context) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened++
	if d.openErr != nil {
		return nil, d.openErr
	}
	s := newFakeStream()
	d.streams = append(d.streams, s)
	return s, nil
}

func TestManager_StartStop_ReleasesExactlyOnce(t *testing.T) {
	device := &fakeDevice{}
	m := NewManager(device)

	session, err := m.Start(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)

	m.Stop(session)
	m.Stop(session) // idempotent
	m.Stop(session)

	assert.Equal(t, 1, device.streams[0].closeCount(), "exactly one release per start")
	assert.Nil(t, m.Active())
}

func TestManager_StartWhileActive_ReturnsExistingSession(t *testing.T) {
	device := &fakeDevice{}
	m := NewManager(device)

	first, err := m.Start(context.Background())
	require.NoError(t, err)

	second, err := m.Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.ID(), second.ID(), "start while active is a no-op")
	assert.Equal(t, 1, device.opened, "the device is acquired once")
}

func TestManager_AcquisitionFailure_LeavesNoSession(t *testing.T) {
	device := &fakeDevice{openErr: ErrDeviceBusy}
	m := NewManager(device)

	session, err := m.Start(context.Background())
	assert.Nil(t, session)
	require.ErrorIs(t, err, ErrDeviceBusy, "failure keeps its classification")
	assert.Nil(t, m.Active(), "a failed acquisition never becomes active")

	// The device stays usable: a later start succeeds.
	device.openErr = nil
	session, err = m.Start(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)
	m.Stop(session)
}

func TestManager_Shutdown_ReleasesActiveSession(t *testing.T) {
	device := &fakeDevice{}
	m := NewManager(device)

	_, err := m.Start(context.Background())
	require.NoError(t, err)

	m.Shutdown()
	m.Shutdown() // safe with nothing active

	assert.Equal(t, 1, device.streams[0].closeCount())
	assert.Nil(t, m.Active())
}

func TestManager_NilDevice_ReportsNoDevice(t *testing.T) {
	m := NewManager(nil)

	_, err := m.Start(context.Background())
	assert.ErrorIs(t, err, ErrNoDevice)
}

func TestManager_StopAfterRestart_DoesNotReleaseNewSession(t *testing.T) {
	device := &fakeDevice{}
	m := NewManager(device)

	first, err := m.Start(context.Background())
	require.NoError(t, err)
	m.Stop(first)

	second, err := m.Start(context.Background())
	require.NoError(t, err)

	// Stopping the stale handle again must not tear down the new session.
	m.Stop(first)
	assert.NotNil(t, m.Active())
	assert.Equal(t, second.ID(), m.Active().ID())

	m.Stop(second)
}

func TestAdvisoryFor_DistinctPerClass(t *testing.T) {
	errs := []error{
		ErrPermissionDenied,
		ErrNoDevice,
		ErrDeviceBusy,
		ErrInsecureContext,
		ErrUnsupportedConstraints,
	}

	seen := map[string]bool{}
	for _, err := range errs {
		advisory := AdvisoryFor(err)
		require.NotEmpty(t, advisory)
		assert.False(t, seen[advisory], "each failure class gets its own advisory: %s", advisory)
		seen[advisory] = true
	}
}
