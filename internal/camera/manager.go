package camera

import (
	"context"
	"log"
	"sync"

	"venuepoint-terminal/pkg/uid"
)

// Session is the lifetime of one camera acquisition. It is created by an
// explicit operator action and destroyed on stop, on successful decode,
// on shutdown, or on acquisition failure. Stop is idempotent.
type Session struct {
	id       string
	stream   Stream
	stopOnce sync.Once
	done     chan struct{}
}

// ID identifies the session; the manager's single-session guard compares
// by identity, not by queueing.
func (s *Session) ID() string {
	return s.id
}

// Frames exposes the capture stream's frame channel. The channel closes
// when the session stops or the device grant is revoked.
func (s *Session) Frames() <-chan Frame {
	return s.stream.Frames()
}

// Done is closed once the session's device has been released.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Manager owns the terminal's single exclusive camera resource. At most
// one Session exists at a time; every acquisition path has a matching
// release path.
type Manager struct {
	device Device

	mu     sync.Mutex
	active *Session
}

// NewManager creates a manager over the given device. A nil device means
// this terminal has no camera; Start reports ErrNoDevice.
func NewManager(device Device) *Manager {
	return &Manager{device: device}
}

// Start acquires the camera and returns the active session. If a session
// is already active it is returned as-is (no-op, no queue). Acquisition
// failures are returned classified and leave no session behind.
func (m *Manager) Start(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return m.active, nil
	}

	if m.device == nil {
		return nil, ErrNoDevice
	}

	stream, err := m.device.Open(ctx)
	if err != nil {
		return nil, err
	}

	session := &Session{
		id:     uid.New(),
		stream: stream,
		done:   make(chan struct{}),
	}
	m.active = session

	log.Printf("[Camera] session %s started", session.id)
	return session, nil
}

// Stop releases the session's device synchronously. Safe to call on every
// exit path and any number of times; only the first call releases.
func (m *Manager) Stop(session *Session) {
	if session == nil {
		return
	}

	session.stopOnce.Do(func() {
		if err := session.stream.Close(); err != nil {
			log.Printf("[Camera] session %s release error: %v", session.id, err)
		} else {
			log.Printf("[Camera] session %s stopped", session.id)
		}
		close(session.done)

		m.mu.Lock()
		if m.active != nil && m.active.id == session.id {
			m.active = nil
		}
		m.mu.Unlock()
	})
}

// Active returns the current session, or nil.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Shutdown stops any active session. Called when the terminal navigates
// away from the transaction screen or the process exits.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	session := m.active
	m.mu.Unlock()
	m.Stop(session)
}
