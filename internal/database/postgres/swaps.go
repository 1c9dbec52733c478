package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/photo-booth/internal/workflow"
)

// SwapEntry is a stored swap.
type SwapEntry struct {
	ID                string        `json:"id"`
	SessionGeneration uint64        `json:"session_generation"`
	TemplateID        string        `json:"template_id"`
	TemplateURL       string        `json:"template_url"`
	Mode              string        `json:"mode"`
	Model             string        `json:"model"`
	ImageURL          string        `json:"image_url"`
	Duration          time.Duration `json:"duration"`
	CreatedAt         time.Time     `json:"created_at"`
}

// SwapRepository provides PostgreSQL-backed swap history.
type SwapRepository struct {
	pool  *Pool
	newID func() string
}

// NewSwapRepository creates a new swap history repository.
func NewSwapRepository(pool *Pool) *SwapRepository {
	return &SwapRepository{pool: pool, newID: uuid.NewString}
}

// RecordSwap stores a completed swap (implements workflow.Recorder).
func (r *SwapRepository) RecordSwap(ctx context.Context, rec workflow.SwapRecord) error {
	_, err := r.Save(ctx, rec)
	return err
}

// Save stores a completed swap and returns its id.
func (r *SwapRepository) Save(ctx context.Context, rec workflow.SwapRecord) (string, error) {
	query := `
		INSERT INTO swap_history (id, session_generation, template_id, template_url, mode, model, image_url, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	id := r.newID()
	_, err := r.pool.Exec(ctx, query,
		id,
		int64(rec.Generation), //nolint:gosec // generations are small counters
		rec.TemplateID,
		rec.TemplateImage,
		rec.Mode,
		rec.Model,
		rec.ResultImageURL,
		rec.Duration.Milliseconds(),
		createdAt,
	)
	if err != nil {
		return "", fmt.Errorf("save swap: %w", err)
	}
	return id, nil
}

// List returns the most recent swaps, newest first. An empty model lists all models.
func (r *SwapRepository) List(ctx context.Context, model string, limit int) ([]SwapEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, session_generation, template_id, template_url, mode, model, image_url, duration_ms, created_at
		FROM swap_history
		WHERE ($1 = '' OR model = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, model, limit)
	if err != nil {
		return nil, fmt.Errorf("list swaps: %w", err)
	}
	defer rows.Close()

	var entries []SwapEntry
	for rows.Next() {
		var e SwapEntry
		var generation, durationMS int64
		if err := rows.Scan(&e.ID, &generation, &e.TemplateID, &e.TemplateURL, &e.Mode, &e.Model, &e.ImageURL, &durationMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan swap: %w", err)
		}
		e.SessionGeneration = uint64(generation) //nolint:gosec // stored from a uint64
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swaps: %w", err)
	}
	return entries, nil
}

// CountByModel returns the number of stored swaps per model.
func (r *SwapRepository) CountByModel(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, "SELECT model, COUNT(*) FROM swap_history GROUP BY model")
	if err != nil {
		return nil, fmt.Errorf("count swaps: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var model string
		var n int
		if err := rows.Scan(&model, &n); err != nil {
			return nil, fmt.Errorf("scan swap count: %w", err)
		}
		counts[model] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap counts: %w", err)
	}
	return counts, nil
}
