package store

// Uses ncruces/go-sqlite3/driver which provides a database/sql interface.

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQLiteStore is the relational backend.
// Thread-safe; writes are serialized by the store mutex.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// schema defines every table. Enum columns hold names, optional columns
// are nullable and JSON columns hold compact JSON text.
// Note: No foreign keys - referential integrity managed at application level
const schema = `
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL,
    status TEXT NOT NULL,
    phase TEXT NOT NULL,
    priority TEXT NOT NULL,
    owner_id TEXT,
    tags TEXT NOT NULL DEFAULT '[]',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS stories (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    script_id TEXT NOT NULL,
    title TEXT NOT NULL,
    logline TEXT NOT NULL DEFAULT '',
    synopsis TEXT NOT NULL DEFAULT '',
    genre TEXT NOT NULL,
    themes TEXT NOT NULL DEFAULT '[]',
    status TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stories_project ON stories(project_id);

CREATE TABLE IF NOT EXISTS scripts (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    story_id TEXT NOT NULL,
    title TEXT NOT NULL,
    format TEXT NOT NULL,
    version INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scripts_project ON scripts(project_id);

CREATE TABLE IF NOT EXISTS acts (
    id TEXT PRIMARY KEY,
    script_id TEXT NOT NULL,
    act_number INTEGER NOT NULL,
    title TEXT NOT NULL,
    summary TEXT
);
CREATE INDEX IF NOT EXISTS idx_acts_script ON acts(script_id, act_number);

CREATE TABLE IF NOT EXISTS scene_scripts (
    id TEXT PRIMARY KEY,
    script_id TEXT NOT NULL,
    act_id TEXT,
    scene_number INTEGER NOT NULL,
    heading TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    time_of_day TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    character_ids TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_scene_scripts_script ON scene_scripts(script_id, scene_number);

CREATE TABLE IF NOT EXISTS dialogue_lines (
    id TEXT PRIMARY KEY,
    scene_id TEXT NOT NULL,
    character_id TEXT NOT NULL,
    character_name TEXT NOT NULL DEFAULT '',
    text TEXT NOT NULL,
    parenthetical TEXT,
    emotion TEXT,
    line_order INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dialogue_lines_scene ON dialogue_lines(scene_id, line_order);

CREATE TABLE IF NOT EXISTS characters (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    name TEXT NOT NULL,
    role TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    backstory TEXT,
    avatar_id TEXT,
    traits TEXT NOT NULL DEFAULT '[]',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_characters_project ON characters(project_id);

CREATE TABLE IF NOT EXISTS character_relationships (
    id TEXT PRIMARY KEY,
    character_id TEXT NOT NULL,
    target_character_id TEXT NOT NULL,
    relationship_type TEXT NOT NULL,
    strength REAL NOT NULL DEFAULT 0,
    description TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_relationships_character ON character_relationships(character_id);

CREATE TABLE IF NOT EXISTS storyboards (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    story_id TEXT NOT NULL,
    script_id TEXT NOT NULL,
    title TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_storyboards_project ON storyboards(project_id);

CREATE TABLE IF NOT EXISTS storyboard_scenes (
    id TEXT PRIMARY KEY,
    storyboard_id TEXT NOT NULL,
    scene_number INTEGER NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    script_scene_id TEXT
);
CREATE INDEX IF NOT EXISTS idx_storyboard_scenes_board ON storyboard_scenes(storyboard_id, scene_number);

CREATE TABLE IF NOT EXISTS frames (
    id TEXT PRIMARY KEY,
    scene_id TEXT NOT NULL,
    frame_number INTEGER NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    shot_type TEXT NOT NULL,
    camera_movement TEXT NOT NULL,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    image_url TEXT,
    dialogue_line_id TEXT,
    notes TEXT
);
CREATE INDEX IF NOT EXISTS idx_frames_scene ON frames(scene_id, frame_number);

CREATE TABLE IF NOT EXISTS contents (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    type TEXT NOT NULL,
    title TEXT NOT NULL,
    body TEXT NOT NULL DEFAULT '',
    url TEXT,
    metadata TEXT NOT NULL DEFAULT '{}',
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_contents_project ON contents(project_id);

CREATE TABLE IF NOT EXISTS deliverables (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    due_date INTEGER,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_deliverables_project ON deliverables(project_id);

CREATE TABLE IF NOT EXISTS publishing_projects (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    platform TEXT NOT NULL,
    status TEXT NOT NULL,
    channels TEXT NOT NULL DEFAULT '[]',
    scheduled_at INTEGER,
    published_at INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_publishing_project ON publishing_projects(project_id);

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL,
    display_name TEXT NOT NULL DEFAULT '',
    tier TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS avatars (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    character_id TEXT,
    name TEXT NOT NULL,
    image_url TEXT NOT NULL DEFAULT '',
    style TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_avatars_user ON avatars(user_id);

-- Factories are stored as one marker row plus one row per component so
-- no single row has to carry a whole project.
CREATE TABLE IF NOT EXISTS factories (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    schema_version INTEGER NOT NULL,
    is_template INTEGER NOT NULL DEFAULT 0,
    is_sample INTEGER NOT NULL DEFAULT 0,
    total_entities INTEGER NOT NULL DEFAULT 0,
    components TEXT NOT NULL DEFAULT '[]',
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS factory_components (
    id TEXT PRIMARY KEY,
    factory_id TEXT NOT NULL,
    name TEXT NOT NULL,
    payload TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_factory_components_factory ON factory_components(factory_id);
`

// NewSQLiteStore creates a new in-memory SQLite store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: an in-memory database exists per connection, and
	// a single writer is what the store guarantees anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put upserts a row.
func (s *SQLiteStore) Put(ctx context.Context, t *Table, row Row) error {
	args, err := argValues(t.Fields(row))
	if err != nil {
		return fmt.Errorf("%s: %w", t.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, upsertSQL(t), args...); err != nil {
		return fmt.Errorf("failed to upsert %s %q: %w", t.Name, row.RowID(), err)
	}
	return nil
}

// Get retrieves a row by ID.
func (s *SQLiteStore) Get(ctx context.Context, t *Table, id string) (Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := t.New()
	err := s.db.QueryRowContext(ctx, selectSQL(t)+" WHERE id = ?", id).Scan(t.Fields(row)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %q: %w", t.Name, id, err)
	}
	return row, nil
}

// List returns rows owned by parentID, or all rows when parentID is "".
func (s *SQLiteStore) List(ctx context.Context, t *Table, parentID string) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows *sql.Rows
	var err error

	order := fmt.Sprintf(" ORDER BY %s, id", t.OrderColumn)
	if parentID != "" && t.ParentColumn != "" {
		rows, err = s.db.QueryContext(ctx, selectSQL(t)+" WHERE "+t.ParentColumn+" = ?"+order, parentID)
	} else {
		rows, err = s.db.QueryContext(ctx, selectSQL(t)+order)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.Name, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		row := t.New()
		if err := rows.Scan(t.Fields(row)...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.Name, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Delete removes a row by ID.
func (s *SQLiteStore) Delete(ctx context.Context, t *Table, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM "+t.Name+" WHERE id = ?", id)
	return err
}

// DeleteAll empties a table.
func (s *SQLiteStore) DeleteAll(ctx context.Context, t *Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM "+t.Name)
	return err
}

// Count returns the number of rows in a table.
func (s *SQLiteStore) Count(ctx context.Context, t *Table) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.Name).Scan(&count)
	return count, err
}

// =============================================================================
// Helpers
// =============================================================================

func selectSQL(t *Table) string {
	return "SELECT " + strings.Join(t.Columns, ", ") + " FROM " + t.Name
}

func upsertSQL(t *Table) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ")
	updates := make([]string, 0, len(t.Columns)-1)
	for _, col := range t.Columns[1:] {
		updates = append(updates, col+" = excluded."+col)
	}
	return "INSERT INTO " + t.Name + " (" + strings.Join(t.Columns, ", ") + ") VALUES (" + placeholders +
		") ON CONFLICT(id) DO UPDATE SET " + strings.Join(updates, ", ")
}

// argValues turns the field pointers of a row into statement arguments.
func argValues(fields []any) ([]any, error) {
	args := make([]any, len(fields))
	for i, f := range fields {
		switch v := f.(type) {
		case driver.Valuer:
			val, err := v.Value()
			if err != nil {
				return nil, err
			}
			args[i] = val
		case *string:
			args[i] = *v
		case *int:
			args[i] = int64(*v)
		case *int64:
			args[i] = *v
		case *float64:
			args[i] = *v
		default:
			return nil, fmt.Errorf("unsupported field type %T", f)
		}
	}
	return args, nil
}

// Compile-time interface check
var _ Backend = (*SQLiteStore)(nil)
