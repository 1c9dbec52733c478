package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/kozaktomas/photo-booth/internal/boothapi"
	"github.com/kozaktomas/photo-booth/internal/config"
	"github.com/kozaktomas/photo-booth/internal/gallery"
	"github.com/kozaktomas/photo-booth/internal/workflow"
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			URL: "http://localhost:8000",
		},
		Catalog: config.LoadCatalog(),
	}
}

// fakeSession records dispatched commands and answers with a fixed view or error.
type fakeSession struct {
	mu     sync.Mutex
	cmds   []workflow.Command
	view   workflow.View
	err    error
	events workflow.Broadcaster
}

func (s *fakeSession) Dispatch(cmd workflow.Command) (workflow.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmds = append(s.cmds, cmd)
	return s.view, s.err
}

func (s *fakeSession) View() workflow.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *fakeSession) Events() *workflow.Broadcaster {
	return &s.events
}

func (s *fakeSession) commands() []workflow.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]workflow.Command(nil), s.cmds...)
}

// fakeGallery is an in-memory gallery.
type fakeGallery struct {
	gender     string
	category   string
	templates  map[string]gallery.Template
	remaining  int
	refreshErr error
	refreshes  int
}

func newFakeGallery() *fakeGallery {
	return &fakeGallery{
		gender:   "men",
		category: "classic",
		templates: map[string]gallery.Template{
			"men-classic-0": {ID: "men-classic-0", Image: "https://cdn/upload/v1/men/classic/a.jpg", Gender: "men", Category: "classic"},
		},
		remaining: 25,
	}
}

func (g *fakeGallery) Refresh(ctx context.Context) error {
	g.refreshes++
	return g.refreshErr
}

func (g *fakeGallery) SetFilter(gender, category string) {
	if gender != "" {
		g.gender = gender
	}
	if category != "" {
		g.category = category
	}
}

func (g *fakeGallery) Filter() (string, string) { return g.gender, g.category }

func (g *fakeGallery) Snapshot() gallery.Snapshot {
	snap := gallery.Snapshot{
		Gender:           g.gender,
		Category:         g.category,
		RemainingUploads: g.remaining,
	}
	for _, tmpl := range g.templates {
		if tmpl.Gender == g.gender && tmpl.Category == g.category {
			snap.Templates = append(snap.Templates, tmpl)
		}
	}
	if g.refreshErr != nil {
		snap.Error = g.refreshErr.Error()
	}
	return snap
}

func (g *fakeGallery) RemainingUploads() int { return g.remaining }

func (g *fakeGallery) Lookup(id string) (gallery.Template, bool) {
	tmpl, ok := g.templates[id]
	return tmpl, ok
}

// fakeTemplateStore records uploads and deletes.
type fakeTemplateStore struct {
	uploadedName     string
	uploadedBody     string
	uploadedGender   string
	uploadedCategory string
	deleted          string
	err              error
}

func (s *fakeTemplateStore) UploadTemplate(ctx context.Context, filename string, r io.Reader, gender, category string) (*boothapi.UploadResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s.uploadedName = filename
	s.uploadedBody = string(body)
	s.uploadedGender = gender
	s.uploadedCategory = category
	return &boothapi.UploadResponse{
		Message:   "File uploaded successfully",
		SecureURL: "https://cdn/upload/v9/" + boothapi.TemplateFolder(gender, category) + "/" + filename,
	}, nil
}

func (s *fakeTemplateStore) DeleteTemplate(ctx context.Context, imageURL string) (*boothapi.DeleteResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.deleted = imageURL
	return &boothapi.DeleteResponse{Message: "Image deleted successfully"}, nil
}

var errBoom = errors.New("boom")

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
