package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/studiocore/internal/domain"
)

// =============================================================================
// SQLite-specific behaviour
// =============================================================================

func newSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteAbsentOptionalsAreNull(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	p := fixtureProject("P1")
	p.OwnerID = nil
	require.NoError(t, s.Put(ctx, TableProjects, toProjectRow(p)))

	empty := ""
	withEmpty := fixtureProject("P2")
	withEmpty.OwnerID = &empty
	require.NoError(t, s.Put(ctx, TableProjects, toProjectRow(withEmpty)))

	owned := fixtureProject("P3")
	require.NoError(t, s.Put(ctx, TableProjects, toProjectRow(owned)))

	var nulls int
	err := s.db.QueryRow("SELECT COUNT(*) FROM projects WHERE owner_id IS NULL").Scan(&nulls)
	require.NoError(t, err)
	assert.Equal(t, 2, nulls, "nil and empty owners are both stored as NULL")

	row, err := s.Get(ctx, TableProjects, "P2")
	require.NoError(t, err)
	assert.Nil(t, projectFromRow(row.(*ProjectRow)).OwnerID)
}

func TestSQLiteNullableTimes(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	d := domain.Deliverable{ID: "DL1", ProjectID: "P1", Name: "Cut", Status: domain.DeliverablePending, CreatedAt: t0}
	require.NoError(t, s.Put(ctx, TableDeliverables, toDeliverableRow(d)))

	var isNull bool
	require.NoError(t, s.db.QueryRow("SELECT due_date IS NULL FROM deliverables WHERE id = ?", "DL1").Scan(&isNull))
	assert.True(t, isNull)

	row, err := s.Get(ctx, TableDeliverables, "DL1")
	require.NoError(t, err)
	assert.Equal(t, d, deliverableFromRow(row.(*DeliverableRow)))
}

func TestSQLiteLegacyOrdinalEnums(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	// Rows written by older installs carry enum ordinals.
	_, err := s.db.Exec(`INSERT INTO projects (id, title, type, status, phase, priority, created_at, updated_at)
		VALUES ('old', 'Old project', '2', '1', '4', '3', 1000, 2000)`)
	require.NoError(t, err)

	repos := NewRepositories(s)
	p, err := repos.Projects.Get(ctx, "old")
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, domain.ProjectTypeShort, p.Type)
	assert.Equal(t, domain.ProjectStatusInProgress, p.Status)
	assert.Equal(t, domain.PhaseDistribution, p.Phase)
	assert.Equal(t, domain.PriorityUrgent, p.Priority)
	assert.Nil(t, p.Tags)
	assert.Equal(t, int64(1000), p.CreatedAt.UnixMilli())
}

func TestSQLiteUpsertReplacesRow(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	p := fixtureProject("P1")
	require.NoError(t, s.Put(ctx, TableProjects, toProjectRow(p)))
	p.Title = "Second"
	p.Tags = nil
	require.NoError(t, s.Put(ctx, TableProjects, toProjectRow(p)))

	n, err := s.Count(ctx, TableProjects)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	row, err := s.Get(ctx, TableProjects, "P1")
	require.NoError(t, err)
	assert.Equal(t, p, projectFromRow(row.(*ProjectRow)))
}

func TestSQLitePersistsToFile(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "studio.db")

	s, err := NewSQLiteStoreWithDSN(dsn)
	require.NoError(t, err)
	p := fixtureProject("P1")
	require.NoError(t, s.Put(ctx, TableProjects, toProjectRow(p)))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStoreWithDSN(dsn)
	require.NoError(t, err)
	defer reopened.Close()

	row, err := reopened.Get(ctx, TableProjects, "P1")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, p, projectFromRow(row.(*ProjectRow)))
}

func TestUpsertSQL(t *testing.T) {
	got := upsertSQL(TableUsers)
	assert.Equal(t,
		"INSERT INTO users (id, email, display_name, tier, created_at) VALUES (?, ?, ?, ?, ?) "+
			"ON CONFLICT(id) DO UPDATE SET email = excluded.email, display_name = excluded.display_name, "+
			"tier = excluded.tier, created_at = excluded.created_at",
		got)
}
