package initializer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hack-pad/hackpadfs/mem"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/studiocore/internal/config"
	"github.com/kittclouds/studiocore/internal/domain"
	"github.com/kittclouds/studiocore/internal/factory"
	"github.com/kittclouds/studiocore/internal/logging"
	"github.com/kittclouds/studiocore/internal/store"
)

// hookBackend counts writes and lets a test intercept them.
type hookBackend struct {
	store.Backend

	mu       sync.Mutex
	writes   int
	afterPut func(t *store.Table, row store.Row)
	countErr error
}

func (h *hookBackend) Put(ctx context.Context, t *store.Table, row store.Row) error {
	if err := h.Backend.Put(ctx, t, row); err != nil {
		return err
	}
	h.mu.Lock()
	h.writes++
	h.mu.Unlock()
	if h.afterPut != nil {
		h.afterPut(t, row)
	}
	return nil
}

func (h *hookBackend) Delete(ctx context.Context, t *store.Table, id string) error {
	h.mu.Lock()
	h.writes++
	h.mu.Unlock()
	return h.Backend.Delete(ctx, t, id)
}

func (h *hookBackend) DeleteAll(ctx context.Context, t *store.Table) error {
	h.mu.Lock()
	h.writes++
	h.mu.Unlock()
	return h.Backend.DeleteAll(ctx, t)
}

func (h *hookBackend) Count(ctx context.Context, t *store.Table) (int, error) {
	if h.countErr != nil {
		return 0, h.countErr
	}
	return h.Backend.Count(ctx, t)
}

func (h *hookBackend) Writes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.writes
}

func newSQLiteStore(t *testing.T) (*store.Store, *hookBackend) {
	t.Helper()
	b, err := store.NewSQLiteStore()
	require.NoError(t, err)
	h := &hookBackend{Backend: b}
	s := store.New(h, store.KindSQLite, logging.Discard())
	t.Cleanup(func() { s.Close() })
	return s, h
}

func newBoxStore(t *testing.T) *store.Store {
	t.Helper()
	fs, err := mem.NewFS()
	require.NoError(t, err)
	b, err := store.NewBoxStore(fs, "boxes")
	require.NoError(t, err)
	return store.New(b, store.KindBox, logging.Discard())
}

func samples(t *testing.T) []*factory.ProjectFactory {
	t.Helper()
	out, err := factory.Samples()
	require.NoError(t, err)
	return out
}

func states(hook *test.Hook) []string {
	var out []string
	for _, e := range hook.AllEntries() {
		if s, ok := e.Data["state"].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func TestPopulatesEmptyStore(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLiteStore(t)
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	ini := New(s, config.Flags{UseSQLite: true}, log)
	report, err := ini.Run(ctx)
	require.NoError(t, err)

	want := 0
	var ids []string
	for _, f := range samples(t) {
		want += f.TotalEntities()
		ids = append(ids, f.ProjectID())
	}
	assert.Equal(t, ids, report.Succeeded)
	assert.Empty(t, report.Failures)
	assert.Equal(t, want, report.EntitiesWritten)
	assert.Zero(t, report.Existing)
	assert.True(t, report.Populated())
	assert.Equal(t, StateReady, ini.State())
	assert.Equal(t, []string{"checking_emptiness", "populating", "ready"}, states(hook))

	n, err := s.CountFactories(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(ids), n)
}

func TestSecondRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	s, h := newSQLiteStore(t)

	_, err := New(s, config.Flags{}, logging.Discard()).Run(ctx)
	require.NoError(t, err)
	before := h.Writes()
	require.Positive(t, before)

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	ini := New(s, config.Flags{}, log)
	report, err := ini.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, before, h.Writes(), "no writes on an already populated store")
	assert.Equal(t, len(samples(t)), report.Existing)
	assert.False(t, report.Populated())
	assert.Equal(t, StateReady, ini.State())
	assert.Equal(t, []string{"checking_emptiness", "already_populated", "ready"}, states(hook))
}

func TestFailedFactoryDoesNotStopOthers(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLiteStore(t)

	all := samples(t)
	broken := factory.CreateEmpty(domain.Project{ID: "broken", Title: "Broken"})
	broken.Stories = []domain.Story{{ID: "ST1", ProjectID: "broken"}} // no script
	source := []*factory.ProjectFactory{all[0], broken, all[1], all[2]}

	ini := New(s, config.Flags{}, logging.Discard(), WithSource(func() ([]*factory.ProjectFactory, error) {
		return source, nil
	}))
	report, err := ini.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{all[0].ProjectID(), all[1].ProjectID(), all[2].ProjectID()}, report.Succeeded)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "broken", report.Failures[0].ID)
	assert.Equal(t, "Broken", report.Failures[0].Title)
	assert.ErrorIs(t, report.Failures[0], domain.ErrInvalid)
	assert.Equal(t, StateReady, ini.State())

	n, err := s.CountFactories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestClearDatabaseOnLaunch(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLiteStore(t)

	stale := factory.CreateEmpty(domain.Project{ID: "stale", Title: "Stale"})
	require.NoError(t, s.SaveFactory(ctx, stale))
	user := domain.User{ID: "U1", Email: "a@b.c", Tier: domain.TierPro}
	require.NoError(t, s.Users.Save(ctx, &user))

	ini := New(s, config.Flags{ClearDatabaseOnLaunch: true}, logging.Discard())
	report, err := ini.Run(ctx)
	require.NoError(t, err)
	assert.True(t, report.Cleared)
	assert.Len(t, report.Succeeded, len(samples(t)))

	has, err := s.HasFactory(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, has)
	u, err := s.Users.Get(ctx, "U1")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUnreachableStoreFails(t *testing.T) {
	s, h := newSQLiteStore(t)
	h.countErr = errors.New("disk gone")

	ini := New(s, config.Flags{}, logging.Discard())
	_, err := ini.Run(context.Background())
	assert.EqualError(t, err, "disk gone")
	assert.Equal(t, StateFailed, ini.State())
}

func TestSourceErrorFails(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ini := New(s, config.Flags{}, logging.Discard(), WithSource(func() ([]*factory.ProjectFactory, error) {
		return nil, errors.New("no samples")
	}))
	_, err := ini.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateFailed, ini.State())
}

func TestStartAndWait(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ini := New(s, config.Flags{}, logging.Discard())

	_, err := ini.Wait()
	assert.ErrorIs(t, err, ErrNotStarted)

	ini.Start(context.Background())
	ini.Start(context.Background()) // no second run

	report, err := ini.Wait()
	require.NoError(t, err)
	assert.Len(t, report.Succeeded, len(samples(t)))
	assert.Equal(t, StateReady, ini.State())
}

func TestCancelStopsBetweenFactories(t *testing.T) {
	s, h := newSQLiteStore(t)
	ini := New(s, config.Flags{}, logging.Discard())

	// Cancel as soon as the first factory is committed.
	var once sync.Once
	h.afterPut = func(tbl *store.Table, _ store.Row) {
		if tbl == store.TableFactories {
			once.Do(ini.Cancel)
		}
	}

	ini.Start(context.Background())
	report, err := ini.Wait()
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Len(t, report.Succeeded, 1)
	assert.Equal(t, StateFailed, ini.State())

	n, cerr := s.CountFactories(context.Background())
	require.NoError(t, cerr)
	assert.Equal(t, 1, n)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "already_populated", StateAlreadyPopulated.String())
	assert.Equal(t, "state(42)", State(42).String())
}

func TestInitializerMigratesLegacyFirst(t *testing.T) {
	ctx := context.Background()
	legacy := newBoxStore(t)
	first := samples(t)[0]
	require.NoError(t, legacy.SaveFactory(ctx, first))

	s, _ := newSQLiteStore(t)
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	ini := New(s, config.Flags{UseSQLite: true, UseBoxStore: true}, log, WithLegacy(legacy))
	report, err := ini.Run(ctx)
	require.NoError(t, err)

	require.NotNil(t, report.Migration)
	assert.Equal(t, []string{first.ProjectID()}, report.Migration.Migrated)
	assert.Equal(t, 1, report.Existing)
	assert.False(t, report.Populated(), "migrated data counts as populated")
	assert.Equal(t, []string{"migrating", "checking_emptiness", "already_populated", "ready"}, states(hook))
}

func TestClearOnLaunchSkipsMigration(t *testing.T) {
	ctx := context.Background()
	legacy := newBoxStore(t)
	require.NoError(t, legacy.SaveFactory(ctx, samples(t)[0]))
	stale := factory.CreateEmpty(domain.Project{ID: "stale", Title: "Stale"})
	require.NoError(t, legacy.SaveFactory(ctx, stale))

	s, _ := newSQLiteStore(t)
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	flags := config.Flags{UseSQLite: true, UseBoxStore: true, ClearDatabaseOnLaunch: true}
	report, err := New(s, flags, log, WithLegacy(legacy)).Run(ctx)
	require.NoError(t, err)

	assert.Nil(t, report.Migration)
	assert.True(t, report.Cleared)
	assert.Len(t, report.Succeeded, len(samples(t)))
	assert.Equal(t, []string{"clearing", "populating", "ready"}, states(hook))

	var want int
	for _, f := range samples(t) {
		want += f.TotalEntities()
	}
	assert.Equal(t, want, report.EntitiesWritten)

	has, err := s.HasFactory(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, has, "legacy data is not copied")
	stillThere, err := legacy.HasFactory(ctx, "stale")
	require.NoError(t, err)
	assert.True(t, stillThere, "the legacy store is left alone")
}
