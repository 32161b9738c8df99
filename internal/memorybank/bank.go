package memorybank

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nofuss/sitecoach/internal/errs"
	"github.com/nofuss/sitecoach/internal/store"
)

// Bank persists and queries the memory view layer.
type Bank struct {
	ds     *store.Store
	logger zerolog.Logger
}

// NewBank creates a memory bank over the shared store.
func NewBank(ds *store.Store, logger zerolog.Logger) *Bank {
	return &Bank{
		ds:     ds,
		logger: logger.With().Str("component", "memorybank").Logger(),
	}
}

// Save inserts a memory, allocating id and timestamp when absent.
func (b *Bank) Save(ctx context.Context, m *Memory) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = time.Now().UnixMilli()
	}
	content, err := json.Marshal(m.Content)
	if err != nil {
		return fmt.Errorf("failed to marshal memory content: %w", err)
	}

	_, err = b.ds.DB().ExecContext(ctx,
		`INSERT INTO memories (id, project_id, title, content, memory_type, stage, tags, is_pinned, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ProjectID, m.Title, string(content), string(m.Type), m.Stage,
		strings.Join(m.Tags, ","), m.IsPinned, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save memory: %w", err)
	}
	return nil
}

// List returns memories matching the filter, newest first. Type, stage, tag
// and search filters are conjunctive; search is a case-insensitive
// substring match over title, rendered content and tags.
func (b *Bank) List(ctx context.Context, f Filter) ([]*Memory, error) {
	if f.ProjectID == "" {
		return nil, fmt.Errorf("%w: project id is required", errs.ErrInvalidInput)
	}

	query := `SELECT id, project_id, title, content, memory_type, stage, tags, is_pinned, created_at
	          FROM memories WHERE project_id = ?`
	args := []any{f.ProjectID}
	if f.Type != "" {
		query += ` AND memory_type = ?`
		args = append(args, string(f.Type))
	}
	if f.Stage != "" {
		query += ` AND stage = ?`
		args = append(args, f.Stage)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := b.ds.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	defer rows.Close()

	var memories []*Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		if f.Tag != "" && !m.HasTag(f.Tag) {
			continue
		}
		if f.Search != "" && !matchesSearch(m, f.Search) {
			continue
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

func matchesSearch(m *Memory, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(m.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(m.Content.Render()), q) {
		return true
	}
	for _, tag := range m.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Get returns a single memory scoped to a project.
func (b *Bank) Get(ctx context.Context, id, projectID string) (*Memory, error) {
	row := b.ds.DB().QueryRowContext(ctx,
		`SELECT id, project_id, title, content, memory_type, stage, tags, is_pinned, created_at
		 FROM memories WHERE id = ? AND project_id = ?`, id, projectID)
	m, err := scanMemory(row)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// TogglePin sets the pinned flag. Pinning is a view-layer annotation only.
func (b *Bank) TogglePin(ctx context.Context, id, projectID string, pinned bool) error {
	res, err := b.ds.DB().ExecContext(ctx,
		`UPDATE memories SET is_pinned = ? WHERE id = ? AND project_id = ?`, pinned, id, projectID)
	if err != nil {
		return fmt.Errorf("failed to update pin: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes a memory. The history events it was derived from are
// untouched — audit is the source of truth, memories are annotations.
func (b *Bank) Delete(ctx context.Context, id, projectID string) error {
	if _, err := b.ds.DB().ExecContext(ctx,
		`DELETE FROM memory_collection_items WHERE memory_id = ?`, id); err != nil {
		return fmt.Errorf("failed to unlink memory from collections: %w", err)
	}
	res, err := b.ds.DB().ExecContext(ctx,
		`DELETE FROM memories WHERE id = ? AND project_id = ?`, id, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (*Memory, error) {
	m := &Memory{}
	var content, tags, memType string
	err := row.Scan(&m.ID, &m.ProjectID, &m.Title, &content, &memType, &m.Stage, &tags, &m.IsPinned, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan memory: %w", err)
	}
	m.Type = MemoryType(memType)
	if err := json.Unmarshal([]byte(content), &m.Content); err != nil {
		return nil, fmt.Errorf("failed to decode memory content: %w", err)
	}
	if tags != "" {
		m.Tags = strings.Split(tags, ",")
	}
	return m, nil
}
