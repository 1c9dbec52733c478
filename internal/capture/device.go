package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/photo-booth/internal/constants"
)

// Errors returned by devices and streams.
var (
	ErrStreamStopped = errors.New("camera stream stopped")
	ErrNoFrame       = errors.New("no frame available")
)

// Device is a camera that can be opened into a live stream.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is a live camera stream. Frame renders the current frame to a still
// photo; Stop releases the camera and is safe to call more than once.
type Stream interface {
	Frame(ctx context.Context) (*Photo, error)
	Stop() error
}

// frameExtensions lists the files a spool directory may contain.
var frameExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".webp": true,
}

// SpoolDevice reads frames that an external camera daemon (gphoto2, ffmpeg,
// a webcam snapshot loop) keeps writing into a directory. The newest file is
// the current frame.
type SpoolDevice struct {
	Dir          string
	MaxFrameSize int
	Now          func() time.Time
}

// NewSpoolDevice creates a spool-directory camera.
func NewSpoolDevice(dir string, maxFrameSize int) *SpoolDevice {
	if maxFrameSize <= 0 {
		maxFrameSize = constants.MaxFrameSize
	}
	return &SpoolDevice{Dir: dir, MaxFrameSize: maxFrameSize, Now: time.Now}
}

// Open checks that the spool directory is readable and returns a stream on it.
func (d *SpoolDevice) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Dir == "" {
		return nil, errors.New("capture spool directory is not configured")
	}
	info, err := os.Stat(d.Dir)
	if err != nil {
		return nil, fmt.Errorf("could not open capture spool: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("capture spool %s is not a directory", d.Dir)
	}
	return &spoolStream{device: d}, nil
}

type spoolStream struct {
	device  *SpoolDevice
	mu      sync.Mutex
	stopped bool
}

// newestFrame returns the path of the most recently modified frame file.
func newestFrame(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("could not read capture spool: %w", err)
	}

	var newest string
	var newestTime time.Time
	for _, e := range entries {
		if e.IsDir() || !frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = filepath.Join(dir, e.Name())
			newestTime = info.ModTime()
		}
	}
	if newest == "" {
		return "", ErrNoFrame
	}
	return newest, nil
}

func (s *spoolStream) Frame(ctx context.Context) (*Photo, error) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return nil, ErrStreamStopped
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := newestFrame(s.device.Dir)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the configured spool directory
	if err != nil {
		return nil, fmt.Errorf("could not read frame: %w", err)
	}
	return DecodePhoto(data, s.device.MaxFrameSize, constants.JPEGQuality, s.device.Now())
}

func (s *spoolStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}
