package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image, mtime time.Time) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatalf("failed to write frame: %v", err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("failed to set mtime: %v", err)
	}
}

func TestFitImage(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		maxSize       int
		wantW, wantH  int
	}{
		{"landscape downscale", 4000, 2000, 1920, 1920, 960},
		{"portrait downscale", 1000, 3000, 1500, 500, 1500},
		{"already fits", 640, 480, 1920, 640, 480},
		{"no limit", 5000, 100, 0, 5000, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, tt.width, tt.height))
			got := FitImage(img, tt.maxSize).Bounds()
			if got.Dx() != tt.wantW || got.Dy() != tt.wantH {
				t.Errorf("expected %dx%d, got %dx%d", tt.wantW, tt.wantH, got.Dx(), got.Dy())
			}
		})
	}
}

func TestPhoto_DataURL(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	photo, err := NewPhoto(solidImage(8, 8, color.White), 1920, 90, at)
	if err != nil {
		t.Fatalf("NewPhoto failed: %v", err)
	}

	url := photo.DataURL()
	if !strings.HasPrefix(url, "data:image/jpeg;base64,") {
		t.Fatalf("unexpected data URL prefix: %.40s", url)
	}

	data, mime, err := DecodeDataURL(url)
	if err != nil {
		t.Fatalf("DecodeDataURL failed: %v", err)
	}
	if mime != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", mime)
	}
	if !bytes.Equal(data, photo.Data) {
		t.Error("decoded payload differs from photo data")
	}
	if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("payload is not a valid JPEG: %v", err)
	}
	if !photo.CapturedAt.Equal(at) {
		t.Errorf("expected captured at %v, got %v", at, photo.CapturedAt)
	}
}

func TestDecodeDataURL_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not a data URL", "https://example.com/qr.png"},
		{"missing comma", "data:image/png;base64"},
		{"missing mime", "data:;base64,AAAA"},
		{"not base64 encoded", "data:image/png,rawbytes"},
		{"bad payload", "data:image/png;base64,@@@"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeDataURL(tt.input)
			if !errors.Is(err, ErrInvalidDataURL) {
				t.Errorf("expected ErrInvalidDataURL, got %v", err)
			}
		})
	}
}

func TestSpoolDevice_NewestFrame(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	writePNG(t, filepath.Join(dir, "old.png"), solidImage(4, 4, color.Black), now.Add(-time.Minute))
	writePNG(t, filepath.Join(dir, "new.png"), solidImage(6, 3, color.White), now)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0600); err != nil {
		t.Fatal(err)
	}

	device := NewSpoolDevice(dir, 1920)
	stream, err := device.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer stream.Stop()

	photo, err := stream.Frame(context.Background())
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(photo.Data))
	if err != nil {
		t.Fatalf("frame is not JPEG: %v", err)
	}
	if img.Bounds().Dx() != 6 || img.Bounds().Dy() != 3 {
		t.Errorf("expected newest 6x3 frame, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestSpoolDevice_EmptySpool(t *testing.T) {
	stream, err := NewSpoolDevice(t.TempDir(), 0).Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := stream.Frame(context.Background()); !errors.Is(err, ErrNoFrame) {
		t.Errorf("expected ErrNoFrame, got %v", err)
	}
}

func TestSpoolDevice_OpenMissingDir(t *testing.T) {
	device := NewSpoolDevice(filepath.Join(t.TempDir(), "missing"), 0)
	if _, err := device.Open(context.Background()); err == nil {
		t.Error("expected error for missing spool directory")
	}

	if _, err := NewSpoolDevice("", 0).Open(context.Background()); err == nil {
		t.Error("expected error for unconfigured spool directory")
	}
}

func TestSpoolStream_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "frame.png"), solidImage(2, 2, color.White), time.Now())

	stream, err := NewSpoolDevice(dir, 0).Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := stream.Stop(); err != nil {
		t.Fatalf("first Stop failed: %v", err)
	}
	if err := stream.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
	if _, err := stream.Frame(context.Background()); !errors.Is(err, ErrStreamStopped) {
		t.Errorf("expected ErrStreamStopped after Stop, got %v", err)
	}
}
