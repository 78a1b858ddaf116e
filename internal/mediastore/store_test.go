package mediastore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("jpegdata"), 0644))
	}
}

func TestEnsure_CreatesLayout(t *testing.T) {
	root := t.TempDir()
	s := New(root, ".jpg", "/media")
	require.NoError(t, s.Ensure())

	for _, dir := range []string{DirAvatars, DirBackgrounds, DirPosts, DirThumbnails, DirTemp} {
		info, err := os.Stat(filepath.Join(root, dir))
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}

	// Idempotent.
	require.NoError(t, s.Ensure())
}

func TestList_SortedAndFiltered(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, filepath.Join(root, DirAvatars), "c.jpg", "a.JPG", "b.jpg", "notes.txt")
	require.NoError(t, os.Mkdir(filepath.Join(root, DirAvatars, "nested.jpg"), 0755))

	s := New(root, "jpg", "/media")
	require.Equal(t, ".jpg", s.Ext)

	names, err := s.List(DirAvatars)
	require.NoError(t, err)
	require.Equal(t, []string{"a.JPG", "b.jpg", "c.jpg"}, names)
}

func TestList_MissingDirIsEmptyPool(t *testing.T) {
	s := New(t.TempDir(), ".jpg", "/media")
	names, err := s.List(DirBackgrounds)
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestURL(t *testing.T) {
	s := New("/srv/media", ".jpg", "/media")
	require.Equal(t, "/media/avatars/a.jpg", s.URL(DirAvatars, "a.jpg"))

	s = New("/srv/media", ".jpg", "/media/")
	require.Equal(t, "/media/thumbposts/t.jpg", s.URL(DirThumbnails, "t.jpg"))

	s = New("/srv/media", ".jpg", "")
	require.Equal(t, "/posts/p.jpg", s.URL(DirPosts, "p.jpg"))
}

func TestVerify(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, filepath.Join(root, DirAvatars), "a1.jpg", "a2.jpg", "a3.jpg", "a4.jpg", "a5.jpg", "a6.jpg", "a7.jpg", "a8.jpg", "a9.jpg")
	writeFiles(t, filepath.Join(root, DirBackgrounds), "b1.jpg")

	s := New(root, ".jpg", "/media")
	statuses, err := s.Verify([]Kind{
		{Dir: DirAvatars, Expected: 10},
		{Dir: DirBackgrounds, Expected: 10},
		{Dir: DirPosts, Expected: 0},
	})
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	assert.Equal(t, 9, statuses[0].Actual)
	assert.Equal(t, uint64(9*len("jpegdata")), statuses[0].Bytes)
	assert.True(t, statuses[0].Healthy())

	assert.Equal(t, 1, statuses[1].Actual)
	assert.False(t, statuses[1].Healthy())

	assert.Equal(t, 0, statuses[2].Actual)
	assert.True(t, statuses[2].Healthy())
}

func TestCategoryCounts(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, filepath.Join(root, DirPosts), "post_art_1.jpg", "post_art_2.jpg", "post_tech_1.jpg")

	s := New(root, ".jpg", "/media")
	counts, err := s.CategoryCounts(DirPosts, []string{"Art", "tech", "music"})
	require.NoError(t, err)
	require.Equal(t, map[string]int{"art": 2, "tech": 1, "music": 0}, counts)
}
