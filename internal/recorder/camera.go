package recorder

import "context"

// Constraints describe the capture a session needs.
type Constraints struct {
	Resolution Resolution
	Facing     Facing
	Device     string
}

// Camera grants exclusive access to a capture device.
type Camera interface {
	// Open acquires the device. Failures wrap ErrPermissionDenied or
	// ErrDeviceUnavailable.
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is an acquired device.
type Stream interface {
	// Start begins buffering video.
	Start() error
	// Stop ends buffering and returns the encoded clip.
	Stop() ([]byte, error)
	// Close releases the device. It is safe to call more than once.
	Close() error
	// MIMEType of the bytes Stop returns.
	MIMEType() string
}
