package kiosk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/photo-booth/internal/apperr"
	"github.com/kozaktomas/photo-booth/internal/boothapi"
	"github.com/kozaktomas/photo-booth/internal/capture"
	"github.com/kozaktomas/photo-booth/internal/config"
	"github.com/kozaktomas/photo-booth/internal/workflow"
)

type fakeSwapClient struct {
	got  boothapi.SwapRequest
	resp *boothapi.SwapResponse
	err  error
}

func (f *fakeSwapClient) Swap(ctx context.Context, req boothapi.SwapRequest) (*boothapi.SwapResponse, error) {
	f.got = req
	return f.resp, f.err
}

func TestAPISwapper(t *testing.T) {
	client := &fakeSwapClient{resp: &boothapi.SwapResponse{
		SwappedImageURL: "https://cdn/r.jpg",
		QRCode:          "data:image/png;base64,AA",
		ModelUsed:       "headswap",
	}}
	swapper := NewAPISwapper(client)

	result, err := swapper.Swap(context.Background(), workflow.SwapRequest{
		TemplateImage: "https://cdn/t.jpg",
		Photo:         &capture.Photo{Data: []byte("jpeg"), ContentType: "image/jpeg"},
		Mode:          "landscape",
		Model:         "headswap",
	})
	if err != nil {
		t.Fatalf("Swap failed: %v", err)
	}
	if result.ResultImageURL != "https://cdn/r.jpg" || result.ShareCode == "" || result.Model != "headswap" {
		t.Errorf("unexpected result %+v", result)
	}
	if client.got.TemplateURL != "https://cdn/t.jpg" || string(client.got.Photo) != "jpeg" || client.got.Mode != "landscape" {
		t.Errorf("unexpected request %+v", client.got)
	}
}

func TestAPISwapper_Errors(t *testing.T) {
	swapper := NewAPISwapper(&fakeSwapClient{err: apperr.TransportMessage("swap", "Invalid token")})

	_, err := swapper.Swap(context.Background(), workflow.SwapRequest{TemplateImage: "t.jpg"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error without photo, got %v", err)
	}

	_, err = swapper.Swap(context.Background(), workflow.SwapRequest{TemplateImage: "t.jpg", Photo: &capture.Photo{Data: []byte("x")}})
	if !apperr.Is(err, apperr.KindTransport) {
		t.Errorf("expected transport error passed through, got %v", err)
	}
}

func testConfig(t *testing.T, apiURL string) *config.Config {
	t.Helper()
	return &config.Config{
		API:         config.APIConfig{URL: apiURL, Timeout: 5 * time.Second},
		Capture:     config.CaptureConfig{SpoolDir: t.TempDir(), MaxFrameSize: 640},
		Credentials: config.CredentialsConfig{Dir: t.TempDir(), LoginDurationMonths: 1},
		Catalog:     config.LoadCatalog(),
	}
}

func TestNew_RefreshAndAuthenticate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/images":
			w.Write([]byte(`{"structure":{"men":{"classic":["a.jpg","b.jpg"]}},"user_tempelets_count":5}`))
		case "/api/autologin":
			w.Write([]byte(`{"message":"ok","token":"device-token","email":"a@b.c","name":"Booth"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	cfg.API.DeviceKey = "kiosk-1"

	k, err := New(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer k.Close()

	if k.Swaps != nil {
		t.Error("expected swap history disabled without DATABASE_URL")
	}

	if err := k.StartGalleryRefresh(context.Background()); err != nil {
		t.Fatalf("StartGalleryRefresh failed: %v", err)
	}
	if got := k.Gallery.RemainingUploads(); got != 25 {
		t.Errorf("expected 25 remaining uploads, got %d", got)
	}

	if err := k.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if k.Client.Token() != "device-token" {
		t.Errorf("expected device token, got %q", k.Client.Token())
	}
}

func TestAuthenticate_StaticToken(t *testing.T) {
	cfg := testConfig(t, "http://booth.invalid")
	cfg.API.Token = "static"

	k, err := New(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer k.Close()

	if err := k.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if k.Client.Token() != "static" {
		t.Errorf("expected static token, got %q", k.Client.Token())
	}
}

func TestAuthenticate_LoginRequired(t *testing.T) {
	k, err := New(context.Background(), testConfig(t, "http://booth.invalid"), Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer k.Close()

	if err := k.Authenticate(context.Background()); !apperr.Is(err, apperr.KindAuth) {
		t.Errorf("expected auth error, got %v", err)
	}
}

func TestStartGalleryRefresh_InvalidSchedule(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	cfg.Gallery.RefreshSchedule = "every now and then"

	k, err := New(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer k.Close()

	err = k.StartGalleryRefresh(context.Background())
	if err == nil {
		t.Fatal("expected schedule error")
	}
	if errors.Is(err, context.Canceled) {
		t.Errorf("unexpected cancellation %v", err)
	}
	if got := k.Gallery.RemainingUploads(); got != 30 {
		t.Errorf("expected full quota after failed fetch, got %d", got)
	}
}
