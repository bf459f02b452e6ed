package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kittclouds/studiocore/internal/config"
	"github.com/kittclouds/studiocore/internal/factory"
)

// Backend kinds.
const (
	KindSQLite = "sqlite"
	KindBox    = "box"
)

// Store is a backend plus the repositories over it. Callers never need to
// know which engine runs underneath.
type Store struct {
	*Repositories

	backend Backend
	kind    string
	log     logrus.FieldLogger
}

// New wraps a backend.
func New(b Backend, kind string, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{
		Repositories: NewRepositories(b),
		backend:      b,
		kind:         kind,
		log:          log.WithField("store", kind),
	}
}

// Open opens the primary store the flags select. The relational store
// wins when both engines are enabled; the box store is then only read by
// migration.
func Open(cfg *config.Config, log logrus.FieldLogger) (*Store, error) {
	if cfg.Flags.UseSQLite {
		return OpenSQLite(cfg, log)
	}
	return OpenBox(cfg, log)
}

// OpenSQLite opens the relational store at the configured path.
func OpenSQLite(cfg *config.Config, log logrus.FieldLogger) (*Store, error) {
	dsn := cfg.SQLiteDSN()
	if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}
	b, err := NewSQLiteStoreWithDSN(dsn)
	if err != nil {
		return nil, err
	}
	return New(b, KindSQLite, log), nil
}

// OpenBox opens the legacy box store at the configured directory.
func OpenBox(cfg *config.Config, log logrus.FieldLogger) (*Store, error) {
	b, err := NewBoxStoreAt(cfg.BoxPath())
	if err != nil {
		return nil, err
	}
	s := New(b, KindBox, log)
	if corrupt := b.Corrupt(); len(corrupt) > 0 {
		s.log.WithField("files", corrupt).Warn("skipped undecodable objects")
	}
	return s, nil
}

// Kind returns KindSQLite or KindBox.
func (s *Store) Kind() string { return s.kind }

// Backend exposes the row engine.
func (s *Store) Backend() Backend { return s.backend }

// Close closes the backend.
func (s *Store) Close() error { return s.backend.Close() }

// =============================================================================
// Bulk operations
// =============================================================================

// ClearAllData empties every table, innermost first.
func (s *Store) ClearAllData(ctx context.Context) error {
	for _, t := range deletionOrder {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.backend.DeleteAll(ctx, t); err != nil {
			return fmt.Errorf("failed to clear %s: %w", t.Name, err)
		}
	}
	s.log.Debug("cleared all data")
	return nil
}

// DeleteProject removes a project and everything it owns, including its
// stored factory.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return deleteTree(ctx, s.backend, TableProjects, id)
}

// Stats returns the row count of every table.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int, len(Tables))
	for _, t := range Tables {
		n, err := s.backend.Count(ctx, t)
		if err != nil {
			return nil, err
		}
		out[t.Name] = n
	}
	return out, nil
}

// Orphan is a row whose owner or referenced row is missing.
type Orphan struct {
	Table   string
	ID      string
	Column  string
	Missing string
}

func (o Orphan) String() string {
	return fmt.Sprintf("%s %s: %s %q does not exist", o.Table, o.ID, o.Column, o.Missing)
}

// CheckIntegrity lists every orphan row.
func (s *Store) CheckIntegrity(ctx context.Context) ([]Orphan, error) {
	ids := make(map[string]map[string]bool, len(Tables))
	idsOf := func(name string) (map[string]bool, error) {
		if set, ok := ids[name]; ok {
			return set, nil
		}
		rows, err := s.backend.List(ctx, tableByName[name], "")
		if err != nil {
			return nil, err
		}
		set := make(map[string]bool, len(rows))
		for _, r := range rows {
			set[r.RowID()] = true
		}
		ids[name] = set
		return set, nil
	}

	type link struct {
		column, parent string
	}
	links := make(map[string][]link)
	for _, t := range Tables {
		if t.ParentTable != "" && t.ParentColumn != "id" {
			links[t.Name] = append(links[t.Name], link{t.ParentColumn, t.ParentTable})
		}
	}
	for _, ref := range references {
		links[ref.table] = append(links[ref.table], link{ref.column, ref.parent})
	}

	var orphans []Orphan
	for _, t := range Tables {
		if len(links[t.Name]) == 0 {
			continue
		}
		rows, err := s.backend.List(ctx, t, "")
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			for _, l := range links[t.Name] {
				value := columnValue(t, row, l.column)
				if value == "" {
					continue
				}
				parents, err := idsOf(l.parent)
				if err != nil {
					return nil, err
				}
				if !parents[value] {
					orphans = append(orphans, Orphan{Table: t.Name, ID: row.RowID(), Column: l.column, Missing: value})
				}
			}
		}
	}

	// A factory row is keyed by its project.
	factories, err := idsOf(TableFactories.Name)
	if err != nil {
		return nil, err
	}
	projects, err := idsOf(TableProjects.Name)
	if err != nil {
		return nil, err
	}
	for _, id := range sortedSet(factories) {
		if !projects[id] {
			orphans = append(orphans, Orphan{Table: TableFactories.Name, ID: id, Column: "id", Missing: id})
		}
	}
	return orphans, nil
}

var tableByName = func() map[string]*Table {
	m := make(map[string]*Table, len(Tables))
	for _, t := range Tables {
		m[t.Name] = t
	}
	return m
}()

// columnValue reads a string column of a row; absent optionals read as "".
func columnValue(t *Table, row Row, column string) string {
	for i, c := range t.Columns {
		if c != column {
			continue
		}
		switch v := t.Fields(row)[i].(type) {
		case *string:
			return *v
		case *Opt[string]:
			if v.Valid {
				return v.V
			}
		}
	}
	return ""
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// Factories
// =============================================================================

// SaveFactory stores every entity of f through the repositories, then its
// components, then the factory row. The factory row is written last, so a
// factory only counts once it is complete. Like every save this is a
// sequence of independent writes.
func (s *Store) SaveFactory(ctx context.Context, f *factory.ProjectFactory) error {
	if err := f.Validate(); err != nil {
		return err
	}
	components, err := factory.SerializeComponents(f)
	if err != nil {
		return err
	}
	log := s.log.WithField("factory", f.ProjectID())

	project := f.Project
	if err := s.Projects.Save(ctx, &project); err != nil {
		return fmt.Errorf("project: %w", err)
	}
	// Characters go first: scripts are checked against the cast.
	for i := range f.Characters {
		if err := s.Characters.Save(ctx, &f.Characters[i]); err != nil {
			return fmt.Errorf("character %s: %w", f.Characters[i].ID, err)
		}
	}
	for i := range f.Stories {
		if err := s.Stories.Save(ctx, &f.Stories[i]); err != nil {
			return fmt.Errorf("story %s: %w", f.Stories[i].ID, err)
		}
	}
	for i := range f.Scripts {
		if err := s.Scripts.Save(ctx, &f.Scripts[i]); err != nil {
			return fmt.Errorf("script %s: %w", f.Scripts[i].ID, err)
		}
	}
	for i := range f.Storyboards {
		if err := s.Storyboards.Save(ctx, &f.Storyboards[i]); err != nil {
			return fmt.Errorf("storyboard %s: %w", f.Storyboards[i].ID, err)
		}
	}
	for i := range f.Contents {
		if err := s.Contents.Save(ctx, &f.Contents[i]); err != nil {
			return fmt.Errorf("content %s: %w", f.Contents[i].ID, err)
		}
	}
	for i := range f.Deliverables {
		if err := s.Deliverables.Save(ctx, &f.Deliverables[i]); err != nil {
			return fmt.Errorf("deliverable %s: %w", f.Deliverables[i].ID, err)
		}
	}
	if f.Publishing != nil {
		if err := s.Publishing.Save(ctx, f.Publishing); err != nil {
			return fmt.Errorf("publishing %s: %w", f.Publishing.ID, err)
		}
	}

	if err := s.writeComponents(ctx, f.ProjectID(), components); err != nil {
		return err
	}

	names := make([]string, 0, len(components))
	for _, name := range factory.ComponentNames {
		if _, ok := components[name]; ok {
			names = append(names, name)
		}
	}
	nameJSON, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("component names: %w", err)
	}
	row := &FactoryRow{
		ID:            f.ProjectID(),
		Title:         f.Project.Title,
		SchemaVersion: f.Metadata.SchemaVersion,
		IsTemplate:    boolToInt(f.Metadata.IsTemplate),
		IsSample:      boolToInt(f.Metadata.IsSample),
		TotalEntities: f.TotalEntities(),
		Components:    string(nameJSON),
		UpdatedAt:     time.Now().UnixMilli(),
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.backend.Put(ctx, TableFactories, row); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"entities": row.TotalEntities,
		"bytes":    components.Size(),
	}).Debug("saved factory")
	return nil
}

// writeComponents replaces the stored components of a factory.
func (s *Store) writeComponents(ctx context.Context, factoryID string, components factory.Components) error {
	existing, err := listRows[*ComponentRow](ctx, s.backend, TableComponents, factoryID)
	if err != nil {
		return err
	}
	now := time.Now().UnixMilli()
	for _, name := range factory.ComponentNames {
		payload, ok := components[name]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		row := &ComponentRow{
			ID:        factoryID + "/" + name,
			FactoryID: factoryID,
			Name:      name,
			Payload:   payload,
			UpdatedAt: now,
		}
		if err := s.backend.Put(ctx, TableComponents, row); err != nil {
			return fmt.Errorf("component %s: %w", name, err)
		}
	}
	for _, old := range existing {
		if _, ok := components[old.Name]; !ok {
			if err := s.backend.Delete(ctx, TableComponents, old.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetFactory rebuilds a stored factory from its components. It returns
// nil, nil when no complete factory exists for projectID.
func (s *Store) GetFactory(ctx context.Context, projectID string) (*factory.ProjectFactory, error) {
	_, ok, err := getRow[*FactoryRow](ctx, s.backend, TableFactories, projectID)
	if err != nil || !ok {
		return nil, err
	}
	rows, err := listRows[*ComponentRow](ctx, s.backend, TableComponents, projectID)
	if err != nil {
		return nil, err
	}
	components := make(factory.Components, len(rows))
	for _, r := range rows {
		components[r.Name] = r.Payload
	}
	f, fallbacks, err := factory.DeserializeFromComponents(components)
	if err != nil {
		return nil, fmt.Errorf("factory %s: %w", projectID, err)
	}
	if len(fallbacks) > 0 {
		s.log.WithFields(logrus.Fields{
			"factory":    projectID,
			"components": fallbacks,
		}).Warn("corrupt factory components replaced by defaults")
	}
	return f, nil
}

// AssembleFactory builds a factory from the current entity rows of a
// project rather than from stored components. It returns nil, nil when the
// project does not exist.
func (s *Store) AssembleFactory(ctx context.Context, projectID string) (*factory.ProjectFactory, error) {
	project, err := s.Projects.Get(ctx, projectID)
	if err != nil || project == nil {
		return nil, err
	}
	f := factory.CreateEmpty(*project)

	if f.Characters, err = values(s.Characters.List(ctx, projectID)); err != nil {
		return nil, err
	}
	if f.Stories, err = values(s.Stories.List(ctx, projectID)); err != nil {
		return nil, err
	}
	if f.Scripts, err = values(s.Scripts.List(ctx, projectID)); err != nil {
		return nil, err
	}
	if f.Storyboards, err = values(s.Storyboards.List(ctx, projectID)); err != nil {
		return nil, err
	}
	if f.Contents, err = values(s.Contents.List(ctx, projectID)); err != nil {
		return nil, err
	}
	if f.Deliverables, err = values(s.Deliverables.List(ctx, projectID)); err != nil {
		return nil, err
	}
	publishing, err := s.Publishing.List(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(publishing) > 0 {
		f.Publishing = publishing[0]
	}

	// Keep what only lives in the stored factory.
	stored, err := s.GetFactory(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		f.Bible = stored.Bible
		f.Metadata = stored.Metadata
	}
	return f, nil
}

func values[T any](ptrs []*T, err error) ([]T, error) {
	if err != nil || len(ptrs) == 0 {
		return nil, err
	}
	out := make([]T, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p
	}
	return out, nil
}

// ListFactoryIDs returns the ids of every complete factory.
func (s *Store) ListFactoryIDs(ctx context.Context) ([]string, error) {
	rows, err := s.backend.List(ctx, TableFactories, "")
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.RowID()
	}
	sort.Strings(ids)
	return ids, nil
}

// CountFactories counts complete factories. Zero means the store has never
// been populated.
func (s *Store) CountFactories(ctx context.Context) (int, error) {
	return s.backend.Count(ctx, TableFactories)
}

// HasFactory reports whether a complete factory exists for projectID.
func (s *Store) HasFactory(ctx context.Context, projectID string) (bool, error) {
	return exists(ctx, s.backend, TableFactories, projectID)
}

// DeleteFactory removes a factory together with its project.
func (s *Store) DeleteFactory(ctx context.Context, projectID string) error {
	return s.DeleteProject(ctx, projectID)
}

// ReplaceFactory swaps the stored factory of f's project for f. f is
// checked before anything is deleted, and the previous factory is written
// back when saving f fails.
func (s *Store) ReplaceFactory(ctx context.Context, f *factory.ProjectFactory) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if _, err := factory.SerializeComponents(f); err != nil {
		return err
	}
	previous, err := s.GetFactory(ctx, f.ProjectID())
	if err != nil {
		return err
	}
	if previous != nil {
		if err := s.DeleteFactory(ctx, f.ProjectID()); err != nil {
			return err
		}
	}
	err = s.SaveFactory(ctx, f)
	if err == nil || previous == nil {
		return err
	}

	s.log.WithError(err).WithField("factory", f.ProjectID()).Warn("replacement failed, restoring previous factory")
	restoreCtx := context.WithoutCancel(ctx)
	rerr := s.DeleteFactory(restoreCtx, f.ProjectID())
	if rerr == nil {
		rerr = s.SaveFactory(restoreCtx, previous)
	}
	if rerr != nil {
		return fmt.Errorf("%w (restore failed: %v)", err, rerr)
	}
	return err
}

// FactorySummary is the stored header of a factory.
type FactorySummary struct {
	ID            string
	Title         string
	SchemaVersion int
	IsTemplate    bool
	IsSample      bool
	TotalEntities int
	UpdatedAt     time.Time
}

// ListFactories returns the header of every complete factory.
func (s *Store) ListFactories(ctx context.Context) ([]FactorySummary, error) {
	rows, err := listRows[*FactoryRow](ctx, s.backend, TableFactories, "")
	if err != nil {
		return nil, err
	}
	out := make([]FactorySummary, len(rows))
	for i, r := range rows {
		out[i] = FactorySummary{
			ID:            r.ID,
			Title:         r.Title,
			SchemaVersion: r.SchemaVersion,
			IsTemplate:    r.IsTemplate != 0,
			IsSample:      r.IsSample != 0,
			TotalEntities: r.TotalEntities,
			UpdatedAt:     fromMillis(r.UpdatedAt),
		}
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
