// Package mediapath deterministically maps entities (users, posts) to files in
// a local media pool.
//
// The same identifier against the same candidate list always selects the same
// file, so a batch can be re-run without any persisted state.
package mediapath

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"thirdcoast.systems/mediapaths/internal/entityid"
)

// ErrInvalidIdentifier is returned when an entity identifier is missing or
// has no stable string form. Callers skip the entity and count it.
var ErrInvalidIdentifier = errors.New("mediapath: invalid entity identifier")

// CategoryIndex maps a lower-cased category label to the subset of a pool
// associated with it.
type CategoryIndex map[string][]string

// Digest returns the 64-bit FNV-1a hash of key.
func Digest(key string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return h.Sum64()
}

// Assign selects the file for entityID from pool.
//
// When category is non-empty and index holds a non-empty subset for it, the
// file comes from that subset; otherwise from the full pool. ok is false when
// the candidate set is empty.
func Assign(entityID any, category string, pool []string, index CategoryIndex) (file string, ok bool, err error) {
	key, err := entityid.Key(entityID)
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrInvalidIdentifier, err)
	}
	file, ok, _ = pick(key, category, pool, index)
	return file, ok, nil
}

// pick also reports whether the file came from a category subset.
func pick(key, category string, pool []string, index CategoryIndex) (file string, ok, matched bool) {
	candidates, matched := Candidates(category, pool, index)
	if len(candidates) == 0 {
		return "", false, false
	}
	return candidates[Digest(key)%uint64(len(candidates))], true, matched
}

// Candidates returns the category subset of pool when one exists, else pool.
// matched reports whether the subset was used.
func Candidates(category string, pool []string, index CategoryIndex) (candidates []string, matched bool) {
	if c := strings.TrimSpace(category); c != "" {
		if subset := index[strings.ToLower(c)]; len(subset) > 0 {
			return subset, true
		}
	}
	return pool, false
}

// BuildCategoryIndex groups pool entries by the categories whose label appears
// in the filename. Pool order is preserved inside each subset. Categories with
// no matching files are left out.
func BuildCategoryIndex(pool []string, categories []string) CategoryIndex {
	idx := CategoryIndex{}
	for _, c := range categories {
		label := strings.ToLower(strings.TrimSpace(c))
		if label == "" {
			continue
		}
		if _, seen := idx[label]; seen {
			continue
		}
		var subset []string
		for _, name := range pool {
			if strings.Contains(strings.ToLower(name), label) {
				subset = append(subset, name)
			}
		}
		if len(subset) > 0 {
			idx[label] = subset
		}
	}
	return idx
}
