package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hack-pad/hackpadfs"
	osfs "github.com/hack-pad/hackpadfs/os"
)

// BoxStore is the legacy key-object engine. Every table is a box: a
// directory holding one JSON object per row. The whole store is indexed
// in memory on open and written through on every Put.
//
// Optional columns have no null here; Opt writes its zero value instead.
type BoxStore struct {
	fs    hackpadfs.FS
	root  string
	boxes map[string]*box

	// corrupt lists object files that could not be decoded on open.
	corrupt []string
}

type box struct {
	mu   sync.RWMutex
	dir  string
	rows map[string][]byte
}

// NewBoxStore opens (or creates) a box store under root on fs.
func NewBoxStore(fs hackpadfs.FS, root string) (*BoxStore, error) {
	if root == "" {
		root = "."
	}
	s := &BoxStore{
		fs:    fs,
		root:  root,
		boxes: make(map[string]*box, len(Tables)),
	}
	for _, t := range Tables {
		b := &box{
			dir:  path.Join(root, t.Name),
			rows: make(map[string][]byte),
		}
		if err := s.load(b); err != nil {
			return nil, fmt.Errorf("failed to load box %s: %w", t.Name, err)
		}
		s.boxes[t.Name] = b
	}
	return s, nil
}

// NewBoxStoreAt opens a box store in a directory of the host filesystem.
func NewBoxStoreAt(dir string) (*BoxStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	fs := osfs.NewFS()
	p, err := fs.FromOSPath(abs)
	if err != nil {
		return nil, fmt.Errorf("invalid box store path %q: %w", dir, err)
	}
	if err := hackpadfs.MkdirAll(fs, p, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create box store dir: %w", err)
	}
	sub, err := fs.Sub(p)
	if err != nil {
		return nil, err
	}
	return NewBoxStore(sub, ".")
}

func (s *BoxStore) load(b *box) error {
	if err := hackpadfs.MkdirAll(s.fs, b.dir, 0o755); err != nil {
		return err
	}
	entries, err := hackpadfs.ReadDir(s.fs, b.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := hackpadfs.ReadFile(s.fs, path.Join(b.dir, name))
		if err != nil {
			return err
		}
		var head struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &head); err != nil || head.ID == "" {
			s.corrupt = append(s.corrupt, path.Join(b.dir, name))
			continue
		}
		b.rows[head.ID] = data
	}
	return nil
}

// Corrupt returns the object files skipped on open.
func (s *BoxStore) Corrupt() []string {
	return append([]string(nil), s.corrupt...)
}

func (s *BoxStore) boxFor(t *Table) (*box, error) {
	b, ok := s.boxes[t.Name]
	if !ok {
		return nil, fmt.Errorf("unknown box %q", t.Name)
	}
	return b, nil
}

func objectName(id string) string {
	return url.PathEscape(id) + ".json"
}

// Close is a no-op; every write is already on the filesystem.
func (s *BoxStore) Close() error {
	return nil
}

// Put writes the object file and then updates the index.
func (s *BoxStore) Put(ctx context.Context, t *Table, row Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := s.boxFor(t)
	if err != nil {
		return err
	}
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode %s %q: %w", t.Name, row.RowID(), err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := hackpadfs.WriteFullFile(s.fs, path.Join(b.dir, objectName(row.RowID())), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s %q: %w", t.Name, row.RowID(), err)
	}
	b.rows[row.RowID()] = data
	return nil
}

// Get decodes a fresh copy of the row.
func (s *BoxStore) Get(ctx context.Context, t *Table, id string) (Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := s.boxFor(t)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	data, ok := b.rows[id]
	b.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	row := t.New()
	if err := json.Unmarshal(data, row); err != nil {
		return nil, fmt.Errorf("failed to decode %s %q: %w", t.Name, id, err)
	}
	return row, nil
}

func (s *BoxStore) List(ctx context.Context, t *Table, parentID string) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := s.boxFor(t)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []Row
	for id, data := range b.rows {
		row := t.New()
		if err := json.Unmarshal(data, row); err != nil {
			return nil, fmt.Errorf("failed to decode %s %q: %w", t.Name, id, err)
		}
		if parentID == "" || row.RowParent() == parentID {
			result = append(result, row)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].RowOrder() != result[j].RowOrder() {
			return result[i].RowOrder() < result[j].RowOrder()
		}
		return result[i].RowID() < result[j].RowID()
	})
	return result, nil
}

func (s *BoxStore) Delete(ctx context.Context, t *Table, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := s.boxFor(t)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.rows[id]; !ok {
		return nil
	}
	err = hackpadfs.Remove(s.fs, path.Join(b.dir, objectName(id)))
	if err != nil && !errors.Is(err, hackpadfs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s %q: %w", t.Name, id, err)
	}
	delete(b.rows, id)
	return nil
}

func (s *BoxStore) DeleteAll(ctx context.Context, t *Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := s.boxFor(t)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := hackpadfs.RemoveAll(s.fs, b.dir); err != nil {
		return fmt.Errorf("failed to clear box %s: %w", t.Name, err)
	}
	if err := hackpadfs.MkdirAll(s.fs, b.dir, 0o755); err != nil {
		return err
	}
	b.rows = make(map[string][]byte)
	return nil
}

func (s *BoxStore) Count(ctx context.Context, t *Table) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b, err := s.boxFor(t)
	if err != nil {
		return 0, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rows), nil
}

// Compile-time interface check
var _ Backend = (*BoxStore)(nil)
