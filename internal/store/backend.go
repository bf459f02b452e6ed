package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrMissingParent is returned when a row is saved before its owner.
	ErrMissingParent = errors.New("parent does not exist")
	// ErrUnknownCharacter is returned when a scene or line references a
	// character outside the scene's project.
	ErrUnknownCharacter = errors.New("character not in project")
	// ErrNotFound is returned by lookups that require a row to exist.
	ErrNotFound = errors.New("not found")
)

// Backend is a storage engine that keeps rows per table. Implementations
// must be safe for concurrent use. Nothing here is transactional: every
// call is an independent write.
type Backend interface {
	// Put inserts or replaces a row.
	Put(ctx context.Context, t *Table, row Row) error
	// Get returns nil, nil when the row does not exist.
	Get(ctx context.Context, t *Table, id string) (Row, error)
	// List returns the rows owned by parentID sorted by the table's order
	// column, or every row when parentID is "".
	List(ctx context.Context, t *Table, parentID string) ([]Row, error)
	Delete(ctx context.Context, t *Table, id string) error
	DeleteAll(ctx context.Context, t *Table) error
	Count(ctx context.Context, t *Table) (int, error)
	Close() error
}

// getRow reports false when the row does not exist.
func getRow[P Row](ctx context.Context, b Backend, t *Table, id string) (P, bool, error) {
	var zero P
	row, err := b.Get(ctx, t, id)
	if err != nil || row == nil {
		return zero, false, err
	}
	typed, ok := row.(P)
	if !ok {
		return zero, false, fmt.Errorf("store: %s row has type %T", t.Name, row)
	}
	return typed, true, nil
}

func listRows[P Row](ctx context.Context, b Backend, t *Table, parentID string) ([]P, error) {
	rows, err := b.List(ctx, t, parentID)
	if err != nil {
		return nil, err
	}
	out := make([]P, 0, len(rows))
	for _, row := range rows {
		typed, ok := row.(P)
		if !ok {
			return nil, fmt.Errorf("store: %s row has type %T", t.Name, row)
		}
		out = append(out, typed)
	}
	return out, nil
}

func exists(ctx context.Context, b Backend, t *Table, id string) (bool, error) {
	row, err := b.Get(ctx, t, id)
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

// requireParent fails with ErrMissingParent when parentID is not a row of t.
func requireParent(ctx context.Context, b Backend, t *Table, parentID string) error {
	ok, err := exists(ctx, b, t, parentID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s %q", ErrMissingParent, t.Name, parentID)
	}
	return nil
}
