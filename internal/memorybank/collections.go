package memorybank

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nofuss/sitecoach/internal/errs"
)

// CreateCollection creates a named, initially empty grouping of memories.
func (b *Bank) CreateCollection(ctx context.Context, projectID, name, description string) (*Collection, error) {
	if projectID == "" || name == "" {
		return nil, fmt.Errorf("%w: project id and name are required", errs.ErrInvalidInput)
	}
	c := &Collection{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		Name:        name,
		Description: description,
		MemoryIDs:   []string{},
		CreatedAt:   time.Now().UnixMilli(),
	}
	_, err := b.ds.DB().ExecContext(ctx,
		`INSERT INTO memory_collections (id, project_id, name, description, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.ProjectID, c.Name, c.Description, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return c, nil
}

// ListCollections returns a project's collections with their member ids in
// insertion order.
func (b *Bank) ListCollections(ctx context.Context, projectID string) ([]*Collection, error) {
	rows, err := b.ds.DB().QueryContext(ctx,
		`SELECT id, project_id, name, description, created_at
		 FROM memory_collections WHERE project_id = ? ORDER BY created_at ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	collections := []*Collection{}
	for rows.Next() {
		c := &Collection{MemoryIDs: []string{}}
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, c := range collections {
		ids, err := b.collectionMemberIDs(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.MemoryIDs = ids
	}
	return collections, nil
}

func (b *Bank) collectionMemberIDs(ctx context.Context, collectionID string) ([]string, error) {
	rows, err := b.ds.DB().QueryContext(ctx,
		`SELECT memory_id FROM memory_collection_items WHERE collection_id = ? ORDER BY added_at ASC, memory_id ASC`,
		collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collection members: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan collection member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddToCollection links a memory into a collection. Both must belong to the
// same project; re-adding an existing member is a no-op.
func (b *Bank) AddToCollection(ctx context.Context, collectionID, memoryID, projectID string) error {
	var owner string
	err := b.ds.DB().QueryRowContext(ctx,
		`SELECT project_id FROM memory_collections WHERE id = ?`, collectionID).Scan(&owner)
	if err == sql.ErrNoRows {
		return errs.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up collection: %w", err)
	}
	if owner != projectID {
		return errs.ErrNotFound
	}
	if _, err := b.Get(ctx, memoryID, projectID); err != nil {
		return err
	}

	_, err = b.ds.DB().ExecContext(ctx,
		`INSERT OR IGNORE INTO memory_collection_items (collection_id, memory_id, added_at)
		 VALUES (?, ?, ?)`,
		collectionID, memoryID, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to add memory to collection: %w", err)
	}
	return nil
}
