// Package camera provides capture devices for the recorder: an ffmpeg
// backed webcam and a scripted mock.
package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/abhisek/signiz/internal/recorder"
)

const (
	webmMIME = "video/webm"
	// stopGrace is how long ffmpeg gets to finalize the file after "q".
	stopGrace = 5 * time.Second
	// stderrLimit caps how much ffmpeg diagnostic output is kept.
	stderrLimit = 16 << 10
)

// FFmpegCamera captures from a local webcam through an ffmpeg subprocess
// that encodes VP8 WebM.
type FFmpegCamera struct {
	// Binary is the ffmpeg executable. Defaults to "ffmpeg".
	Binary string
	// LockDir holds per-device lock files.
	LockDir   string
	Framerate int

	goos   string
	logger *zap.Logger
}

// NewFFmpegCamera creates a camera that keeps its device locks in lockDir.
func NewFFmpegCamera(lockDir string, logger *zap.Logger) *FFmpegCamera {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpegCamera{
		Binary:    "ffmpeg",
		LockDir:   lockDir,
		Framerate: 30,
		goos:      runtime.GOOS,
		logger:    logger,
	}
}

// CheckFFmpeg reports whether the ffmpeg binary can be found.
func (c *FFmpegCamera) CheckFFmpeg() error {
	if _, err := exec.LookPath(c.binary()); err != nil {
		return fmt.Errorf("%w: ffmpeg not found, install it to use the camera", recorder.ErrDeviceUnavailable)
	}
	return nil
}

func (c *FFmpegCamera) binary() string {
	if c.Binary == "" {
		return "ffmpeg"
	}
	return c.Binary
}

// Open checks the device and takes an exclusive lock on it. Capture does
// not begin until Start.
func (c *FFmpegCamera) Open(ctx context.Context, cons recorder.Constraints) (recorder.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.CheckFFmpeg(); err != nil {
		return nil, err
	}

	device := deviceFor(c.goos, cons)
	if c.goos == "linux" {
		if err := probeDevice(device); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(c.LockDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating lock dir: %w", err)
	}
	lock := flock.New(filepath.Join(c.LockDir, lockName(device)))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: acquire lock: %v", recorder.ErrDeviceUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is in use by another program", recorder.ErrDeviceUnavailable, device)
	}
	if err := ctx.Err(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	c.logger.Debug("camera opened", zap.String("device", device))
	return &ffmpegStream{
		cam:    c,
		device: device,
		cons:   cons,
		lock:   lock,
	}, nil
}

// deviceFor picks the capture device. Front facing is the first device.
func deviceFor(goos string, cons recorder.Constraints) string {
	if cons.Device != "" {
		return cons.Device
	}
	idx := 0
	if cons.Facing == recorder.FacingBack {
		idx = 1
	}
	if goos == "darwin" {
		return strconv.Itoa(idx)
	}
	return "/dev/video" + strconv.Itoa(idx)
}

func probeDevice(device string) error {
	f, err := os.Open(device)
	switch {
	case err == nil:
		return f.Close()
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", recorder.ErrPermissionDenied, err)
	default:
		return fmt.Errorf("%w: %v", recorder.ErrDeviceUnavailable, err)
	}
}

func lockName(device string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_")
	return "camera" + r.Replace(device) + ".lock"
}

// captureArgs builds the ffmpeg command line that records device into out.
func captureArgs(goos, device string, cons recorder.Constraints, framerate int, out string) []string {
	size := fmt.Sprintf("%dx%d", cons.Resolution.Width, cons.Resolution.Height)
	var input []string
	switch goos {
	case "darwin":
		input = []string{"-f", "avfoundation", "-framerate", strconv.Itoa(framerate), "-video_size", size, "-i", device + ":none"}
	default:
		input = []string{"-f", "v4l2", "-framerate", strconv.Itoa(framerate), "-video_size", size, "-i", device}
	}
	args := []string{"-hide_banner", "-loglevel", "error"}
	args = append(args, input...)
	return append(args,
		"-an",
		"-c:v", "libvpx",
		"-deadline", "realtime",
		"-b:v", "1M",
		"-f", "webm",
		"-y",
		out,
	)
}

// classifyFFmpegError maps ffmpeg diagnostics to recorder errors.
func classifyFFmpegError(stderr string, err error) error {
	msg := strings.TrimSpace(stderr)
	if msg == "" && err != nil {
		msg = err.Error()
	}
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "permission denied"),
		strings.Contains(lower, "operation not permitted"),
		strings.Contains(lower, "not authorized"):
		return fmt.Errorf("%w: %s", recorder.ErrPermissionDenied, msg)
	default:
		return fmt.Errorf("%w: %s", recorder.ErrDeviceUnavailable, msg)
	}
}

type ffmpegStream struct {
	cam    *FFmpegCamera
	device string
	cons   recorder.Constraints
	lock   *flock.Flock

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *limitedBuffer
	done   chan error
	out    string
	closed bool
}

func (s *ffmpegStream) MIMEType() string { return webmMIME }

func (s *ffmpegStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%w: stream closed", recorder.ErrDeviceUnavailable)
	}
	if s.cmd != nil {
		return errors.New("capture already running")
	}

	tmp, err := os.CreateTemp("", "signiz-clip-*.webm")
	if err != nil {
		return fmt.Errorf("creating clip file: %w", err)
	}
	s.out = tmp.Name()
	tmp.Close()

	args := captureArgs(s.cam.goos, s.device, s.cons, s.cam.Framerate, s.out)
	cmd := exec.Command(s.cam.binary(), args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdin: %w", err)
	}
	s.stderr = &limitedBuffer{max: stderrLimit}
	cmd.Stderr = s.stderr

	if err := cmd.Start(); err != nil {
		os.Remove(s.out)
		return classifyFFmpegError("", err)
	}
	s.cmd, s.stdin = cmd, stdin
	s.done = make(chan error, 1)
	go func() { s.done <- cmd.Wait() }()

	s.cam.logger.Debug("capture started", zap.String("device", s.device), zap.Strings("args", args))
	return nil
}

// Stop asks ffmpeg to finish the file and returns its contents.
func (s *ffmpegStream) Stop() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil {
		return nil, errors.New("capture not running")
	}
	waitErr := s.finish()
	defer s.reset()

	data, readErr := os.ReadFile(s.out)
	if len(data) == 0 {
		if waitErr != nil {
			return nil, classifyFFmpegError(s.stderr.String(), waitErr)
		}
		if readErr != nil {
			return nil, fmt.Errorf("%w: reading clip: %v", recorder.ErrDeviceUnavailable, readErr)
		}
	}
	if waitErr != nil {
		s.cam.logger.Warn("ffmpeg exited with error", zap.Error(waitErr), zap.String("stderr", s.stderr.String()))
	}
	return data, nil
}

// finish sends "q" and waits, killing ffmpeg if it does not exit in time.
func (s *ffmpegStream) finish() error {
	_, _ = io.WriteString(s.stdin, "q\n")
	_ = s.stdin.Close()
	select {
	case err := <-s.done:
		return err
	case <-time.After(stopGrace):
		_ = s.cmd.Process.Kill()
		return <-s.done
	}
}

func (s *ffmpegStream) reset() {
	if s.out != "" {
		os.Remove(s.out)
	}
	s.cmd, s.stdin, s.done, s.out = nil, nil, nil, ""
}

// Close stops any running capture and releases the device lock.
func (s *ffmpegStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.cmd != nil {
		_ = s.cmd.Process.Kill()
		<-s.done
		s.reset()
	}
	if err := s.lock.Unlock(); err != nil {
		return fmt.Errorf("release %s: %w", s.device, err)
	}
	s.cam.logger.Debug("camera released", zap.String("device", s.device))
	return nil
}

// limitedBuffer keeps the first max bytes written to it.
type limitedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
