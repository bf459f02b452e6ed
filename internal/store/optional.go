package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Opt is an optional column value and the one place the "zero means
// absent" convention lives.
//
// SQLite stores an absent Opt as NULL. The legacy box store has no null,
// so an absent Opt is written as the zero value ("" or 0) and any zero
// value read back is treated as absent. Present zero values are therefore
// normalized to absent on the way in, so both backends agree.
type Opt[T string | int64] struct {
	V     T
	Valid bool
}

// Some returns a present Opt unless v is the zero value.
func Some[T string | int64](v T) Opt[T] {
	var zero T
	return Opt[T]{V: v, Valid: v != zero}
}

// OptFrom converts a domain pointer.
func OptFrom[T string | int64](p *T) Opt[T] {
	if p == nil {
		return Opt[T]{}
	}
	return Some(*p)
}

// Ptr converts back to a domain pointer.
func (o Opt[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}
	v := o.V
	return &v
}

// MarshalJSON writes the zero value for an absent Opt.
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		var zero T
		return json.Marshal(zero)
	}
	return json.Marshal(o.V)
}

// UnmarshalJSON reads the zero value (or null) as absent.
func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	var v *T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*o = Opt[T]{}
		return nil
	}
	*o = Some(*v)
	return nil
}

// Value implements driver.Valuer.
func (o Opt[T]) Value() (driver.Value, error) {
	if !o.Valid {
		return nil, nil
	}
	return any(o.V), nil
}

// Scan implements sql.Scanner.
func (o *Opt[T]) Scan(src any) error {
	if src == nil {
		*o = Opt[T]{}
		return nil
	}
	var v T
	switch dst := any(&v).(type) {
	case *string:
		switch s := src.(type) {
		case string:
			*dst = s
		case []byte:
			*dst = string(s)
		default:
			*dst = fmt.Sprint(s)
		}
	case *int64:
		switch n := src.(type) {
		case int64:
			*dst = n
		case float64:
			*dst = int64(n)
		default:
			return fmt.Errorf("store: cannot scan %T into Opt[int64]", src)
		}
	}
	*o = Some(v)
	return nil
}

// OptTime stores an optional time as unix milliseconds.
func OptTime(t *time.Time) Opt[int64] {
	if t == nil {
		return Opt[int64]{}
	}
	return Some(t.UnixMilli())
}

// TimePtr converts an optional millisecond column back to a time.
func (o Opt[T]) TimePtr() *time.Time {
	ms, ok := any(o.V).(int64)
	if !o.Valid || !ok {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}
