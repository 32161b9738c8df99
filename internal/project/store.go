package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nofuss/sitecoach/internal/errs"
	"github.com/nofuss/sitecoach/internal/idea"
	"github.com/nofuss/sitecoach/internal/store"
)

// MemoryRecorder receives history events and specification snapshots to
// materialize the memory view layer. Appends are best-effort: failures are
// logged and swallowed, never surfaced to the primary mutation.
type MemoryRecorder interface {
	RecordEvent(ctx context.Context, evt *HistoryEvent) error
	RecordSpecification(ctx context.Context, projectID string, spec *idea.Specification) error
}

// FailureCounter counts swallowed best-effort failures. Satisfied by
// prometheus.Counter.
type FailureCounter interface {
	Inc()
}

// Store handles project persistence. Every read and write is scoped to an
// owner; a row that exists under another owner behaves exactly like a
// missing row.
type Store struct {
	ds              *store.Store
	recorder        MemoryRecorder
	historyFailures FailureCounter
	logger          zerolog.Logger
}

// NewStore creates a project store.
func NewStore(ds *store.Store, logger zerolog.Logger) *Store {
	return &Store{
		ds:     ds,
		logger: logger.With().Str("component", "project.store").Logger(),
	}
}

// SetRecorder attaches the memory recorder. Optional; wired in main.
func (s *Store) SetRecorder(r MemoryRecorder) { s.recorder = r }

// SetHistoryFailureCounter attaches the counter for swallowed history
// appends. Optional; wired in main.
func (s *Store) SetHistoryFailureCounter(c FailureCounter) { s.historyFailures = c }

const projectColumns = `id, owner_id, name, description, build_handle, specification, deployment_status, deployment_url, created_at, updated_at`

// Create inserts a new project with a freshly provisioned build handle.
func (s *Store) Create(ctx context.Context, owner, name, description, buildHandle string) (*Project, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", errs.ErrInvalidInput)
	}
	if buildHandle == "" {
		return nil, fmt.Errorf("%w: build handle is required", errs.ErrInvalidInput)
	}

	now := time.Now().UnixMilli()
	p := &Project{
		ID:               uuid.New().String(),
		OwnerID:          owner,
		Name:             name,
		Description:      description,
		BuildHandle:      buildHandle,
		DeploymentStatus: StatusNotDeployed,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	_, err := s.ds.DB().ExecContext(ctx, `
	INSERT INTO projects (id, owner_id, name, description, build_handle, deployment_status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Name, p.Description, p.BuildHandle, string(p.DeploymentStatus), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

// Get retrieves a project by id, scoped to owner. A mismatch is
// errs.ErrNotFound — existence is never leaked across owners.
func (s *Store) Get(ctx context.Context, id, owner string) (*Project, error) {
	row := s.ds.DB().QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ? AND owner_id = ?`, id, owner)
	return scanProject(row)
}

// List returns the owner's projects ordered by created_at descending.
func (s *Store) List(ctx context.Context, owner string) ([]*Project, error) {
	rows, err := s.ds.DB().QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE owner_id = ? ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []*Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Update applies a partial metadata update and bumps updated_at. The
// owner-guarded conditional UPDATE is the per-row serialization point.
func (s *Store) Update(ctx context.Context, id, owner string, input UpdateInput) (*Project, error) {
	p, err := s.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, fmt.Errorf("%w: project name is required", errs.ErrInvalidInput)
		}
		p.Name = *input.Name
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	p.UpdatedAt = time.Now().UnixMilli()

	res, err := s.ds.DB().ExecContext(ctx,
		`UPDATE projects SET name = ?, description = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		p.Name, p.Description, p.UpdatedAt, id, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errs.ErrNotFound
	}
	return p, nil
}

// SetSpecification stores a complete specification, replacing any previous
// one. Partial structures never reach this method: callers validate first.
func (s *Store) SetSpecification(ctx context.Context, id, owner string, spec *idea.Specification) error {
	if spec == nil {
		return fmt.Errorf("%w: specification is required", errs.ErrInvalidInput)
	}
	if err := spec.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("failed to marshal specification: %w", err)
	}

	now := time.Now().UnixMilli()
	res, err := s.ds.DB().ExecContext(ctx,
		`UPDATE projects SET specification = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		string(raw), now, id, owner)
	if err != nil {
		return fmt.Errorf("failed to store specification: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Touch bumps updated_at, owner-guarded.
func (s *Store) Touch(ctx context.Context, id, owner string) error {
	res, err := s.ds.DB().ExecContext(ctx,
		`UPDATE projects SET updated_at = ? WHERE id = ? AND owner_id = ?`,
		time.Now().UnixMilli(), id, owner)
	if err != nil {
		return fmt.Errorf("failed to touch project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// AppendHistory appends an audit record and feeds the memory recorder.
// Callers on the mutation path treat the returned error as advisory via
// LogHistory; the stage transition marker is the one append whose failure
// is surfaced.
func (s *Store) AppendHistory(ctx context.Context, projectID, action string, metadata any) (*HistoryEvent, error) {
	evt := &HistoryEvent{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Action:    action,
		CreatedAt: time.Now().UnixMilli(),
	}
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal history metadata: %w", err)
		}
		evt.Metadata = raw
	}

	_, err := s.ds.DB().ExecContext(ctx,
		`INSERT INTO project_history (id, project_id, action, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		evt.ID, evt.ProjectID, evt.Action,
		sql.NullString{String: string(evt.Metadata), Valid: len(evt.Metadata) > 0},
		evt.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append history: %w", err)
	}

	if s.recorder != nil {
		if rerr := s.recorder.RecordEvent(ctx, evt); rerr != nil {
			s.logger.Warn().Err(rerr).Str("action", action).Msg("memory record failed (ignored)")
		}
	}
	return evt, nil
}

// LogHistory is the best-effort variant of AppendHistory: the append is
// attempted synchronously, failures are logged and swallowed. The audit
// trail is advisory, not part of the transactional contract.
func (s *Store) LogHistory(ctx context.Context, projectID, action string, metadata any) {
	if _, err := s.AppendHistory(ctx, projectID, action, metadata); err != nil {
		if s.historyFailures != nil {
			s.historyFailures.Inc()
		}
		s.logger.Warn().Err(err).
			Str("project_id", projectID).
			Str("action", action).
			Msg("history append failed (ignored)")
	}
}

// ListHistory returns a project's history in chronological order.
func (s *Store) ListHistory(ctx context.Context, projectID string) ([]*HistoryEvent, error) {
	rows, err := s.ds.DB().QueryContext(ctx,
		`SELECT id, project_id, action, metadata, created_at FROM project_history WHERE project_id = ? ORDER BY seq ASC`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var events []*HistoryEvent
	for rows.Next() {
		e := &HistoryEvent{}
		var metadata sql.NullString
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Action, &metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history event: %w", err)
		}
		if metadata.Valid {
			e.Metadata = json.RawMessage(metadata.String)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	p := &Project{}
	var specJSON, deployURL sql.NullString
	var status string

	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.BuildHandle,
		&specJSON, &status, &deployURL, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	p.DeploymentStatus = DeploymentStatus(status)
	if deployURL.Valid {
		p.DeploymentURL = deployURL.String
	}
	if specJSON.Valid && specJSON.String != "" {
		var spec idea.Specification
		if err := json.Unmarshal([]byte(specJSON.String), &spec); err != nil {
			return nil, fmt.Errorf("failed to decode stored specification: %w", err)
		}
		p.Specification = &spec
	}
	return p, nil
}
