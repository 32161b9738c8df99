package store

import (
	"fmt"
)

func (s *Store) migrate() error {
	if err := s.migrateV1(); err != nil {
		return err
	}
	if err := s.migrateV2(); err != nil {
		return err
	}
	return s.migrateV3()
}

func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id                TEXT PRIMARY KEY,
		owner_id          TEXT NOT NULL,
		name              TEXT NOT NULL,
		description       TEXT NOT NULL DEFAULT '',
		build_handle      TEXT NOT NULL,
		specification     TEXT,
		deployment_status TEXT NOT NULL DEFAULT 'not_deployed',
		deployment_url    TEXT,
		created_at        INTEGER NOT NULL,
		updated_at        INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner_id, created_at);

	CREATE TABLE IF NOT EXISTS project_history (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id),
		action     TEXT NOT NULL,
		metadata   TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_project ON project_history(project_id, created_at);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO meta(key, value) VALUES ('schema_version', '1');
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v1: %w", err)
	}

	return nil
}

func (s *Store) migrateV2() error {
	// Check current version
	var version string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	if err != nil || version >= "2" {
		return nil // already at v2+
	}

	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id          TEXT PRIMARY KEY,
		project_id  TEXT NOT NULL REFERENCES projects(id),
		title       TEXT NOT NULL,
		content     TEXT NOT NULL,
		memory_type TEXT NOT NULL,
		stage       TEXT NOT NULL,
		tags        TEXT NOT NULL DEFAULT '',
		is_pinned   INTEGER NOT NULL DEFAULT 0,
		created_at  INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_memories_project ON memories(project_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_memories_type ON memories(project_id, memory_type);

	CREATE TABLE IF NOT EXISTS memory_collections (
		id          TEXT PRIMARY KEY,
		project_id  TEXT NOT NULL REFERENCES projects(id),
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at  INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS memory_collection_items (
		collection_id TEXT NOT NULL REFERENCES memory_collections(id),
		memory_id     TEXT NOT NULL REFERENCES memories(id),
		added_at      INTEGER NOT NULL,
		PRIMARY KEY (collection_id, memory_id)
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v2: %w", err)
	}

	if _, err := s.db.Exec(`INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', '2')`); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	return nil
}

// migrateV3 rebuilds project_history around a monotonic sequence column.
// Millisecond timestamps collide for appends in the same tick, and the
// audit trail must read back in exact append order.
func (s *Store) migrateV3() error {
	var version string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	if err != nil || version >= "3" {
		return nil // already at v3+
	}

	schema := `
	CREATE TABLE project_history_v3 (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		project_id TEXT NOT NULL REFERENCES projects(id),
		action     TEXT NOT NULL,
		metadata   TEXT,
		created_at INTEGER NOT NULL
	);

	INSERT INTO project_history_v3 (id, project_id, action, metadata, created_at)
		SELECT id, project_id, action, metadata, created_at
		FROM project_history ORDER BY created_at ASC, id ASC;

	DROP TABLE project_history;
	ALTER TABLE project_history_v3 RENAME TO project_history;

	CREATE INDEX IF NOT EXISTS idx_history_project ON project_history(project_id, seq);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v3: %w", err)
	}

	if _, err := s.db.Exec(`INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', '3')`); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	return nil
}
