// Package mediastore describes the on-disk layout of the local media library
// and lists the file pools used for path assignment.
package mediastore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"thirdcoast.systems/mediapaths/internal/mediapath"
)

// Well-known pool directories under the media root.
const (
	DirAvatars     = "avatars"
	DirBackgrounds = "backgrounds"
	DirPosts       = "posts"
	DirThumbnails  = "thumbposts"
	DirTemp        = "temp"
)

// Kind is a pool directory with the number of files it is expected to hold.
type Kind struct {
	Dir      string
	Expected int
}

// DefaultKinds matches the library produced by the storage setup.
var DefaultKinds = []Kind{
	{Dir: DirAvatars, Expected: 60},
	{Dir: DirBackgrounds, Expected: 60},
	{Dir: DirPosts, Expected: 300},
	{Dir: DirThumbnails, Expected: 300},
}

// healthyRatio is the share of expected files a directory needs to pass.
const healthyRatio = 0.9

type Store struct {
	Root      string
	Ext       string
	URLPrefix string
}

func New(root, ext, urlPrefix string) *Store {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Store{Root: root, Ext: ext, URLPrefix: urlPrefix}
}

// Ensure creates the pool directories.
func (s *Store) Ensure() error {
	for _, dir := range []string{DirAvatars, DirBackgrounds, DirPosts, DirThumbnails, DirTemp} {
		if err := os.MkdirAll(filepath.Join(s.Root, dir), 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// List returns the sorted names of regular files in dir that carry the store
// extension. A missing directory is an empty pool.
func (s *Store) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.Root, dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if s.Ext != "" && strings.ToLower(filepath.Ext(e.Name())) != s.Ext {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// URL returns the public path for a file in dir, e.g. /media/avatars/a.jpg.
func (s *Store) URL(dir, name string) string {
	prefix := strings.TrimSpace(s.URLPrefix)
	if prefix == "" {
		prefix = "/"
	}
	return path.Join(prefix, dir, name)
}

// KindStatus reports one pool directory.
type KindStatus struct {
	Dir      string
	Actual   int
	Expected int
	Bytes    uint64
}

// Healthy reports whether the directory holds at least 90% of expected files.
func (k KindStatus) Healthy() bool {
	return float64(k.Actual) >= float64(k.Expected)*healthyRatio
}

// Verify counts files and bytes in each kind's directory.
func (s *Store) Verify(kinds []Kind) ([]KindStatus, error) {
	out := make([]KindStatus, 0, len(kinds))
	for _, k := range kinds {
		names, err := s.List(k.Dir)
		if err != nil {
			return nil, err
		}
		st := KindStatus{Dir: k.Dir, Actual: len(names), Expected: k.Expected}
		for _, name := range names {
			info, err := os.Stat(filepath.Join(s.Root, k.Dir, name))
			if err != nil {
				continue
			}
			st.Bytes += uint64(info.Size())
		}
		out = append(out, st)
	}
	return out, nil
}

// CategoryCounts returns how many files in dir belong to each category.
func (s *Store) CategoryCounts(dir string, categories []string) (map[string]int, error) {
	names, err := s.List(dir)
	if err != nil {
		return nil, err
	}
	idx := mediapath.BuildCategoryIndex(names, categories)
	counts := make(map[string]int, len(categories))
	for _, c := range categories {
		label := strings.ToLower(strings.TrimSpace(c))
		if label == "" {
			continue
		}
		counts[label] = len(idx[label])
	}
	return counts, nil
}
