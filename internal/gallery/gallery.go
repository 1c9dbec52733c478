// Package gallery keeps the most recently fetched template gallery and the
// active gender/category filter.
package gallery

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/photo-booth/internal/boothapi"
	"github.com/kozaktomas/photo-booth/internal/constants"
	"github.com/kozaktomas/photo-booth/internal/metrics"
)

// Fetcher fetches the template gallery.
type Fetcher interface {
	Images(ctx context.Context) (*boothapi.ImagesResponse, error)
}

// Template is a selectable template image.
type Template struct {
	ID       string `json:"id"`
	Image    string `json:"image"`
	Gender   string `json:"gender"`
	Category string `json:"category"`
	Index    int    `json:"index"`
}

// Snapshot is a read-only copy of the gallery state.
type Snapshot struct {
	Gender             string                  `json:"gender"`
	Category           string                  `json:"category"`
	Templates          []Template              `json:"templates"`
	Structure          boothapi.ImageStructure `json:"structure"`
	UserTemplatesCount int                     `json:"user_templates_count"`
	RemainingUploads   int                     `json:"remaining_uploads"`
	FetchedAt          time.Time               `json:"fetched_at"`
	Error              string                  `json:"error,omitempty"`
}

// Gallery holds the latest fetched structure. Fetches are unordered: the
// last one to complete wins.
type Gallery struct {
	fetcher Fetcher

	mu        sync.RWMutex
	structure boothapi.ImageStructure
	userCount int
	gender    string
	category  string
	fetchedAt time.Time
	lastErr   error
}

// New creates a gallery filtered to the default gender and category.
func New(fetcher Fetcher) *Gallery {
	return &Gallery{
		fetcher:   fetcher,
		structure: boothapi.ImageStructure{},
		gender:    constants.DefaultGender,
		category:  constants.DefaultCategory,
	}
}

// Refresh fetches the gallery. On failure the structure is replaced by an
// empty one and the user template count is reset to zero.
func (g *Gallery) Refresh(ctx context.Context) error {
	resp, err := g.fetcher.Images(ctx)
	metrics.RecordGalleryFetch(err == nil)

	g.mu.Lock()
	defer g.mu.Unlock()

	g.fetchedAt = time.Now()
	if err != nil {
		g.structure = boothapi.ImageStructure{}
		g.userCount = 0
		g.lastErr = err
		log.WithError(err).Warn("Gallery fetch failed")
		return fmt.Errorf("error fetching images: %w", err)
	}

	g.structure = resp.Structure
	g.userCount = resp.UserTemplatesCount
	g.lastErr = nil
	log.WithFields(log.Fields{
		"genders":        len(resp.Structure),
		"user_templates": resp.UserTemplatesCount,
	}).Debug("Gallery refreshed")
	return nil
}

// SetFilter changes the active gender and category. Empty values keep the
// current setting.
func (g *Gallery) SetFilter(gender, category string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gender != "" {
		g.gender = gender
	}
	if category != "" {
		g.category = category
	}
}

// Filter returns the active gender and category.
func (g *Gallery) Filter() (string, string) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.gender, g.category
}

// Templates returns the templates under the active filter.
func (g *Gallery) Templates() []Template {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.templatesLocked(g.gender, g.category)
}

// TemplatesFor returns the templates of a gender and category.
func (g *Gallery) TemplatesFor(gender, category string) []Template {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.templatesLocked(gender, category)
}

func (g *Gallery) templatesLocked(gender, category string) []Template {
	images := g.structure[gender][category]
	templates := make([]Template, 0, len(images))
	for i, image := range images {
		templates = append(templates, Template{
			ID:       TemplateID(gender, category, i),
			Image:    image,
			Gender:   gender,
			Category: category,
			Index:    i,
		})
	}
	return templates
}

// Lookup finds a template by its id.
func (g *Gallery) Lookup(id string) (Template, bool) {
	gender, category, index, ok := ParseTemplateID(id)
	if !ok {
		return Template{}, false
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	images := g.structure[gender][category]
	if index >= len(images) {
		return Template{}, false
	}
	return Template{ID: id, Image: images[index], Gender: gender, Category: category, Index: index}, true
}

// Contains reports whether image is one of the fetched template images.
func (g *Gallery) Contains(image string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, categories := range g.structure {
		for _, images := range categories {
			if slices.Contains(images, image) {
				return true
			}
		}
	}
	return false
}

// UserTemplatesCount returns the number of user templates from the last fetch.
func (g *Gallery) UserTemplatesCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.userCount
}

// RemainingUploads returns how many more user templates may be uploaded.
func (g *Gallery) RemainingUploads() int {
	return RemainingUploads(g.UserTemplatesCount())
}

// Snapshot returns a copy of the gallery state under the active filter.
func (g *Gallery) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	structure := make(boothapi.ImageStructure, len(g.structure))
	for gender, categories := range g.structure {
		structure[gender] = make(map[string][]string, len(categories))
		for category, images := range categories {
			structure[gender][category] = slices.Clone(images)
		}
	}

	snap := Snapshot{
		Gender:             g.gender,
		Category:           g.category,
		Templates:          g.templatesLocked(g.gender, g.category),
		Structure:          structure,
		UserTemplatesCount: g.userCount,
		RemainingUploads:   RemainingUploads(g.userCount),
		FetchedAt:          g.fetchedAt,
	}
	if g.lastErr != nil {
		snap.Error = g.lastErr.Error()
	}
	return snap
}

// RemainingUploads computes the remaining upload quota for a template count.
func RemainingUploads(count int) int {
	return max(constants.UploadQuota-count, 0)
}

// TemplateID builds the opaque template id "<gender>-<category>-<index>".
func TemplateID(gender, category string, index int) string {
	return gender + "-" + category + "-" + strconv.Itoa(index)
}

// ParseTemplateID splits a template id built by TemplateID.
func ParseTemplateID(id string) (gender, category string, index int, ok bool) {
	rest, indexPart, found := cutLast(id, "-")
	if !found {
		return "", "", 0, false
	}
	gender, category, found = strings.Cut(rest, "-")
	if !found || gender == "" || category == "" {
		return "", "", 0, false
	}
	index, err := strconv.Atoi(indexPart)
	if err != nil || index < 0 {
		return "", "", 0, false
	}
	return gender, category, index, true
}

func cutLast(s, sep string) (string, string, bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}
