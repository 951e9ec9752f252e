package camera

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/signiz/internal/recorder"
)

func TestDeviceFor(t *testing.T) {
	tests := []struct {
		goos string
		cons recorder.Constraints
		want string
	}{
		{"linux", recorder.Constraints{}, "/dev/video0"},
		{"linux", recorder.Constraints{Facing: recorder.FacingBack}, "/dev/video1"},
		{"darwin", recorder.Constraints{}, "0"},
		{"darwin", recorder.Constraints{Facing: recorder.FacingBack}, "1"},
		{"linux", recorder.Constraints{Device: "/dev/video4"}, "/dev/video4"},
	}
	for _, tt := range tests {
		if got := deviceFor(tt.goos, tt.cons); got != tt.want {
			t.Fatalf("deviceFor(%s, %+v) = %q, want %q", tt.goos, tt.cons, got, tt.want)
		}
	}
}

func TestCaptureArgs(t *testing.T) {
	cons := recorder.Constraints{Resolution: recorder.Resolution{Width: 640, Height: 480}}

	linux := captureArgs("linux", "/dev/video0", cons, 30, "/tmp/out.webm")
	assert.Subset(t, linux, []string{"v4l2", "640x480", "/dev/video0", "libvpx", "webm"})
	assert.Equal(t, "/tmp/out.webm", linux[len(linux)-1])

	mac := captureArgs("darwin", "0", cons, 30, "/tmp/out.webm")
	assert.Contains(t, mac, "avfoundation")
	assert.Contains(t, mac, "0:none")
}

func TestClassifyFFmpegError(t *testing.T) {
	tests := []struct {
		stderr string
		want   error
	}{
		{"/dev/video0: Permission denied", recorder.ErrPermissionDenied},
		{"Failed to create AV capture input device: not authorized to capture video", recorder.ErrPermissionDenied},
		{"/dev/video0: No such file or directory", recorder.ErrDeviceUnavailable},
		{"", recorder.ErrDeviceUnavailable},
	}
	for _, tt := range tests {
		err := classifyFFmpegError(tt.stderr, errors.New("exit status 1"))
		if !errors.Is(err, tt.want) {
			t.Fatalf("classifyFFmpegError(%q) = %v, want %v", tt.stderr, err, tt.want)
		}
	}
}

func TestLockName(t *testing.T) {
	assert.Equal(t, "camera_dev_video0.lock", lockName("/dev/video0"))
	assert.Equal(t, "camera1.lock", lockName("1"))
}

func TestFFmpegCameraMissingBinary(t *testing.T) {
	cam := NewFFmpegCamera(t.TempDir(), nil)
	cam.Binary = "signiz-no-such-ffmpeg"

	_, err := cam.Open(context.Background(), recorder.Constraints{})
	assert.ErrorIs(t, err, recorder.ErrDeviceUnavailable)
}

// fakeFFmpeg writes a script that behaves like ffmpeg: it writes a clip to
// its last argument and exits when "q" arrives on stdin.
func fakeFFmpeg(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a unix shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\nfor last; do :; done\nprintf 'fake-webm' > \"$last\"\nread line\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func testCamera(t *testing.T) (*FFmpegCamera, recorder.Constraints) {
	t.Helper()
	device := filepath.Join(t.TempDir(), "video0")
	require.NoError(t, os.WriteFile(device, nil, 0o644))

	cam := NewFFmpegCamera(t.TempDir(), nil)
	cam.Binary = fakeFFmpeg(t)
	cam.goos = "linux"
	return cam, recorder.Constraints{Device: device, Resolution: recorder.Resolution{Width: 640, Height: 480}}
}

func TestFFmpegCameraCapture(t *testing.T) {
	cam, cons := testCamera(t)

	stream, err := cam.Open(context.Background(), cons)
	require.NoError(t, err)
	assert.Equal(t, "video/webm", stream.MIMEType())

	require.NoError(t, stream.Start())
	data, err := stream.Stop()
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-webm"), data)

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close())
}

func TestFFmpegCameraExclusiveLock(t *testing.T) {
	cam, cons := testCamera(t)

	first, err := cam.Open(context.Background(), cons)
	require.NoError(t, err)

	_, err = cam.Open(context.Background(), cons)
	require.ErrorIs(t, err, recorder.ErrDeviceUnavailable)

	require.NoError(t, first.Close())
	second, err := cam.Open(context.Background(), cons)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

// cancelAfterFirstCheck reports cancellation from its second Err call on,
// i.e. once Open has passed its entry check.
type cancelAfterFirstCheck struct {
	context.Context
	checks int
}

func (c *cancelAfterFirstCheck) Err() error {
	c.checks++
	if c.checks > 1 {
		return context.Canceled
	}
	return nil
}

func TestFFmpegCameraCanceledWhileLockingReleasesDevice(t *testing.T) {
	cam, cons := testCamera(t)

	ctx := &cancelAfterFirstCheck{Context: context.Background()}
	stream, err := cam.Open(ctx, cons)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, stream)

	again, err := cam.Open(context.Background(), cons)
	require.NoError(t, err, "device must not stay locked after a canceled open")
	require.NoError(t, again.Close())
}

func TestFFmpegCameraMissingDevice(t *testing.T) {
	cam, _ := testCamera(t)
	_, err := cam.Open(context.Background(), recorder.Constraints{Device: filepath.Join(t.TempDir(), "nope")})
	assert.ErrorIs(t, err, recorder.ErrDeviceUnavailable)
}

func TestFFmpegCameraCloseWhileCapturing(t *testing.T) {
	cam, cons := testCamera(t)
	stream, err := cam.Open(context.Background(), cons)
	require.NoError(t, err)
	require.NoError(t, stream.Start())
	require.NoError(t, stream.Close())

	_, err = stream.Stop()
	assert.Error(t, err)
}

func TestMockCamera(t *testing.T) {
	cam := NewMockCamera()
	cam.Errs = []error{recorder.ErrPermissionDenied, nil}

	_, err := cam.Open(context.Background(), recorder.Constraints{})
	require.ErrorIs(t, err, recorder.ErrPermissionDenied)
	assert.Equal(t, 0, cam.Active())

	stream, err := cam.Open(context.Background(), recorder.Constraints{Facing: recorder.FacingBack})
	require.NoError(t, err)
	assert.Equal(t, 2, cam.Opens())
	assert.Equal(t, recorder.FacingBack, cam.LastConstraints().Facing)
	assert.Equal(t, 1, cam.Active())

	_, err = stream.Stop()
	assert.Error(t, err)

	require.NoError(t, stream.Start())
	data, err := stream.Stop()
	require.NoError(t, err)
	assert.Equal(t, syntheticClip, data)

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close())
	assert.Equal(t, 1, cam.Releases())
	assert.Equal(t, 0, cam.Active())
}

func TestMockCameraDelayHonorsContext(t *testing.T) {
	cam := &MockCamera{Delay: time.Minute}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := cam.Open(ctx, recorder.Constraints{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSessionReleasesMockCamera(t *testing.T) {
	cam := NewMockCamera()
	s := recorder.New(recorder.DefaultConfig(), cam, nil)
	require.NoError(t, s.RequestCamera(context.Background()))
	tick, err := s.StartCountdown()
	require.NoError(t, err)
	for s.State() == recorder.Countdown {
		tick, _ = s.HandleTick(tick)
	}
	require.NoError(t, s.Stop())
	assert.Equal(t, recorder.Recorded, s.State())

	s.Skip()
	s.Close()
	assert.Equal(t, 1, cam.Releases())
	assert.Equal(t, 0, cam.Active())
}
