// Package entityid converts database row identifiers into stable string keys.
package entityid

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

var (
	// ErrEmpty is returned for nil, blank, or zero-value identifiers.
	ErrEmpty = errors.New("empty identifier")
	// ErrUnsupported is returned for identifier types with no stable string form.
	ErrUnsupported = errors.New("unsupported identifier type")
)

// Key returns the stable string form of id.
//
// UUIDs (typed or textual) are rendered in canonical lower-case form so the
// same row produces the same key whether it was read as uuid or as text.
// Integers are rendered in base 10.
func Key(id any) (string, error) {
	switch v := id.(type) {
	case nil:
		return "", ErrEmpty
	case string:
		return fromString(v)
	case *string:
		if v == nil {
			return "", ErrEmpty
		}
		return fromString(*v)
	case []byte:
		return fromString(string(v))
	case int:
		return strconv.FormatInt(int64(v), 10), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case uuid.UUID:
		if v == uuid.Nil {
			return "", ErrEmpty
		}
		return v.String(), nil
	case pgtype.UUID:
		if !v.Valid {
			return "", ErrEmpty
		}
		return uuid.UUID(v.Bytes).String(), nil
	case pgtype.Int8:
		if !v.Valid {
			return "", ErrEmpty
		}
		return strconv.FormatInt(v.Int64, 10), nil
	case pgtype.Int4:
		if !v.Valid {
			return "", ErrEmpty
		}
		return strconv.FormatInt(int64(v.Int32), 10), nil
	case pgtype.Int2:
		if !v.Valid {
			return "", ErrEmpty
		}
		return strconv.FormatInt(int64(v.Int16), 10), nil
	case pgtype.Text:
		if !v.Valid {
			return "", ErrEmpty
		}
		return fromString(v.String)
	case fmt.Stringer:
		// A typed nil pointer (e.g. a nil *uuid.UUID) panics in String.
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return "", ErrEmpty
		}
		return fromString(v.String())
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupported, id)
	}
}

func fromString(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmpty
	}
	// Only dashed 36-char forms are canonicalized; other strings are keys as-is.
	if len(s) == 36 && strings.Count(s, "-") == 4 {
		if u, err := uuid.Parse(s); err == nil {
			return u.String(), nil
		}
	}
	return s, nil
}
