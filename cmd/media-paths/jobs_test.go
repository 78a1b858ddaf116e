package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"thirdcoast.systems/mediapaths/internal/config"
	"thirdcoast.systems/mediapaths/internal/db"
	"thirdcoast.systems/mediapaths/internal/mediapath"
	"thirdcoast.systems/mediapaths/internal/mediastore"
)

func testSchema() config.SchemaConfig {
	return config.SchemaConfig{
		UsersTable:          "users",
		UserAvatarColumn:    "avatar",
		UserBackground:      "backgroundImage",
		PostsTable:          "posts",
		PostCategoryColumn:  "category",
		PostMediaColumn:     "mediaUrl",
		PostThumbnailColumn: "thumbnail",
	}
}

func seedStore(t *testing.T) *mediastore.Store {
	t.Helper()
	root := t.TempDir()
	files := map[string][]string{
		mediastore.DirAvatars:    {"avatar_1.jpg", "avatar_2.jpg"},
		mediastore.DirPosts:      {"post_art_1.jpg", "post_art_2.jpg", "post_tech_1.jpg"},
		mediastore.DirThumbnails: {"thumb_art_1.jpg", "thumb_tech_1.jpg"},
	}
	for dir, names := range files {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0755))
		for _, n := range names {
			require.NoError(t, os.WriteFile(filepath.Join(root, dir, n), []byte("x"), 0644))
		}
	}
	return mediastore.New(root, ".jpg", "/media")
}

func TestJobs_Columns(t *testing.T) {
	require.Equal(t, []string{"avatar", "backgroundImage"}, userJob(testSchema()).columns())
	require.Equal(t, []string{"mediaUrl", "thumbnail"}, postJob(testSchema()).columns())
	require.Empty(t, userJob(testSchema()).CategoryColumn)
	require.Equal(t, "category", postJob(testSchema()).CategoryColumn)
}

func TestLoadSlots_UsersHaveNoCategoryIndex(t *testing.T) {
	store := seedStore(t)
	slots, err := loadSlots(store, userJob(testSchema()), config.DefaultCategories)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	require.Equal(t, "avatar", slots[0].Name)
	require.Equal(t, []string{"avatar_1.jpg", "avatar_2.jpg"}, slots[0].Pool)
	require.Nil(t, slots[0].Index)

	// No backgrounds directory: empty pool, not an error.
	require.Equal(t, "background", slots[1].Name)
	require.Empty(t, slots[1].Pool)
}

func TestLoadSlots_PostsIndexedByCategory(t *testing.T) {
	store := seedStore(t)
	slots, err := loadSlots(store, postJob(testSchema()), []string{"art", "tech", "music"})
	require.NoError(t, err)

	require.Equal(t, []string{"post_art_1.jpg", "post_art_2.jpg"}, slots[0].Index["art"])
	require.Equal(t, []string{"thumb_tech_1.jpg"}, slots[1].Index["tech"])
	require.NotContains(t, slots[0].Index, "music")
}

func TestPostAssignment_EndToEnd(t *testing.T) {
	store := seedStore(t)
	job := postJob(testSchema())
	slots, err := loadSlots(store, job, []string{"art", "tech"})
	require.NoError(t, err)

	art := " ART "
	rows := []*db.EntityRow{{ID: "101", Category: &art}, {ID: "102"}, {ID: " "}}
	assignments, report := mediapath.Plan(toEntities(rows), slots)

	require.Equal(t, 1, report.Invalid)
	require.Len(t, assignments, 2)

	values := columnValues(store, job, assignments[0])
	require.Contains(t, []string{"/media/posts/post_art_1.jpg", "/media/posts/post_art_2.jpg"}, values["mediaUrl"])
	require.Equal(t, "/media/thumbposts/thumb_art_1.jpg", values["thumbnail"])

	// Same inputs, same paths.
	again, _ := mediapath.Plan(toEntities(rows), slots)
	require.Equal(t, assignments, again)
}

func TestColumnValues_SkipsUnassignedSlots(t *testing.T) {
	store := mediastore.New("/srv/media", ".jpg", "/media")
	job := userJob(testSchema())
	values := columnValues(store, job, mediapath.Assignment{Key: "u1", Files: map[string]string{"avatar": "a.jpg"}})
	require.Equal(t, map[string]string{"avatar": "/media/avatars/a.jpg"}, values)
}

func TestPrintTableResult(t *testing.T) {
	res := &tableResult{
		Table:     "posts",
		DryRun:    true,
		PoolSizes: map[string]int{"media": 300, "thumbnail": 0},
		Report: mediapath.Report{
			Entities: 1200,
			Invalid:  1,
			Partial:  1199,
			Slots: map[string]*mediapath.SlotCount{
				"media":     {Assigned: 1199, CategoryMatched: 800},
				"thumbnail": {Unassigned: 1199},
			},
		},
		Updated:  1199,
		Coverage: &db.Coverage{Table: "posts", Total: 1200, NonNull: map[string]int64{"mediaUrl": 1199, "thumbnail": 0}},
	}

	var buf bytes.Buffer
	printTableResult(&buf, res)
	out := buf.String()

	require.Contains(t, out, "posts (dry run)")
	require.Contains(t, out, "entities:  1,200")
	require.Contains(t, out, "- media: 1,199 assigned, 0 unassigned, 800 by category (pool of 300)")
	require.Contains(t, out, "- thumbnail: 0 assigned, 1,199 unassigned, 0 by category (pool of 0)")
	require.Contains(t, out, "coverage of 1,200 rows:")
	require.Contains(t, out, "- with mediaUrl: 1,199")
	require.NotContains(t, out, "vanished")
}
