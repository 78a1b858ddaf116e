package main

import (
	"fmt"
	"strings"

	"thirdcoast.systems/mediapaths/internal/config"
	"thirdcoast.systems/mediapaths/internal/db"
	"thirdcoast.systems/mediapaths/internal/mediapath"
	"thirdcoast.systems/mediapaths/internal/mediastore"
)

// slotDef binds a media slot to the directory it draws from and the column
// the chosen path is written to.
type slotDef struct {
	Name   string
	Dir    string
	Column string
	// Backup preserves the column's original values before the first run.
	Backup bool
}

// tableJob is one table's worth of assignment work.
type tableJob struct {
	Table          string
	CategoryColumn string
	Slots          []slotDef
}

func userJob(s config.SchemaConfig) tableJob {
	return tableJob{
		Table: s.UsersTable,
		Slots: []slotDef{
			{Name: "avatar", Dir: mediastore.DirAvatars, Column: s.UserAvatarColumn, Backup: true},
			{Name: "background", Dir: mediastore.DirBackgrounds, Column: s.UserBackground},
		},
	}
}

func postJob(s config.SchemaConfig) tableJob {
	return tableJob{
		Table:          s.PostsTable,
		CategoryColumn: s.PostCategoryColumn,
		Slots: []slotDef{
			{Name: "media", Dir: mediastore.DirPosts, Column: s.PostMediaColumn, Backup: true},
			{Name: "thumbnail", Dir: mediastore.DirThumbnails, Column: s.PostThumbnailColumn, Backup: true},
		},
	}
}

// loadSlots lists each slot's pool and, for categorised tables, builds the
// category index once for the whole batch.
func loadSlots(store *mediastore.Store, job tableJob, categories []string) ([]mediapath.Slot, error) {
	slots := make([]mediapath.Slot, 0, len(job.Slots))
	for _, def := range job.Slots {
		pool, err := store.List(def.Dir)
		if err != nil {
			return nil, fmt.Errorf("load %s pool: %w", def.Name, err)
		}
		slot := mediapath.Slot{Name: def.Name, Pool: pool}
		if job.CategoryColumn != "" {
			slot.Index = mediapath.BuildCategoryIndex(pool, categories)
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func toEntities(rows []*db.EntityRow) []mediapath.Entity {
	out := make([]mediapath.Entity, len(rows))
	for i, r := range rows {
		e := mediapath.Entity{ID: r.ID}
		if r.Category != nil {
			e.Category = strings.TrimSpace(*r.Category)
		}
		out[i] = e
	}
	return out
}

// columnValues maps an assignment's files to column -> public URL.
func columnValues(store *mediastore.Store, job tableJob, a mediapath.Assignment) map[string]string {
	values := make(map[string]string, len(a.Files))
	for _, def := range job.Slots {
		file, ok := a.Files[def.Name]
		if !ok {
			continue
		}
		values[def.Column] = store.URL(def.Dir, file)
	}
	return values
}

func (j tableJob) columns() []string {
	cols := make([]string, len(j.Slots))
	for i, s := range j.Slots {
		cols[i] = s.Column
	}
	return cols
}
