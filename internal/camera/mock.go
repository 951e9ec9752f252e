package camera

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/abhisek/signiz/internal/recorder"
)

// syntheticClip starts with the EBML magic so it sniffs as WebM.
var syntheticClip = append([]byte{0x1a, 0x45, 0xdf, 0xa3}, []byte("signiz synthetic clip")...)

// MockCamera is a scripted camera for tests and demo mode.
type MockCamera struct {
	// Errs are returned by successive Open calls; nil entries succeed.
	Errs []error
	// Data is what Stop returns. Empty means a small synthetic clip.
	Data []byte
	// Delay before Open answers, like a permission prompt.
	Delay time.Duration

	mu       sync.Mutex
	opens    int
	releases int
	active   int
	last     recorder.Constraints
}

// NewMockCamera returns a camera that always grants access.
func NewMockCamera() *MockCamera {
	return &MockCamera{}
}

func (m *MockCamera) Open(ctx context.Context, c recorder.Constraints) (recorder.Stream, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.opens++
	m.last = c
	if len(m.Errs) > 0 {
		err := m.Errs[0]
		m.Errs = m.Errs[1:]
		if err != nil {
			return nil, err
		}
	}
	m.active++
	return &mockStream{cam: m}, nil
}

// Opens is how many times Open was called.
func (m *MockCamera) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

// Releases is how many streams have been closed.
func (m *MockCamera) Releases() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releases
}

// Active is how many streams are open right now.
func (m *MockCamera) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// LastConstraints returns what the most recent Open asked for.
func (m *MockCamera) LastConstraints() recorder.Constraints {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *MockCamera) release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releases++
	m.active--
}

func (m *MockCamera) clip() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Data) == 0 {
		return append([]byte(nil), syntheticClip...)
	}
	return append([]byte(nil), m.Data...)
}

type mockStream struct {
	cam       *MockCamera
	capturing bool
	closed    bool
}

func (s *mockStream) MIMEType() string { return webmMIME }

func (s *mockStream) Start() error {
	if s.closed {
		return recorder.ErrDeviceUnavailable
	}
	s.capturing = true
	return nil
}

func (s *mockStream) Stop() ([]byte, error) {
	if !s.capturing {
		return nil, errors.New("capture not running")
	}
	s.capturing = false
	return s.cam.clip(), nil
}

func (s *mockStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.capturing = false
	s.cam.release()
	return nil
}
