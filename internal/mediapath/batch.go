package mediapath

import (
	"fmt"
	"sort"

	"thirdcoast.systems/mediapaths/internal/entityid"
)

// Slot is a named media role with its own pool and category index.
type Slot struct {
	Name  string
	Pool  []string
	Index CategoryIndex
}

// Entity is a row needing media.
type Entity struct {
	ID       any
	Category string
}

// Assignment holds the files chosen for one entity, keyed by slot name.
// Slots whose candidate pool was empty are absent from Files.
type Assignment struct {
	Key   string
	Files map[string]string
}

// SlotCount tallies one slot across a batch.
type SlotCount struct {
	Assigned   int `json:"assigned"`
	Unassigned int `json:"unassigned"`
	// CategoryMatched counts assignments drawn from a category subset.
	CategoryMatched int `json:"category_matched"`
}

// Report summarises a planned batch. Invalid entities are counted apart from
// per-slot results.
type Report struct {
	Entities int                   `json:"entities"`
	Invalid  int                   `json:"invalid"`
	Partial  int                   `json:"partial"`
	Slots    map[string]*SlotCount `json:"slots"`
	Errors   []string              `json:"errors,omitempty"`
}

// Unassigned returns the total number of empty-pool misses across slots.
func (r Report) Unassigned() int {
	n := 0
	for _, c := range r.Slots {
		n += c.Unassigned
	}
	return n
}

// SlotNames returns the slot names in sorted order.
func (r Report) SlotNames() []string {
	names := make([]string, 0, len(r.Slots))
	for name := range r.Slots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// maxReportedErrors caps Report.Errors so huge batches stay readable.
const maxReportedErrors = 20

// Plan assigns every slot for every entity. An empty pool in one slot never
// prevents assignment in another; such entities are counted as partial.
// Assignments are returned in entity order, only for valid entities that got
// at least one file.
func Plan(entities []Entity, slots []Slot) ([]Assignment, Report) {
	report := Report{
		Entities: len(entities),
		Slots:    make(map[string]*SlotCount, len(slots)),
	}
	for _, s := range slots {
		report.Slots[s.Name] = &SlotCount{}
	}

	out := make([]Assignment, 0, len(entities))
	for i, e := range entities {
		key, err := entityid.Key(e.ID)
		if err != nil {
			report.Invalid++
			if len(report.Errors) < maxReportedErrors {
				report.Errors = append(report.Errors, fmt.Sprintf("entity #%d: %v: %v", i, ErrInvalidIdentifier, err))
			}
			continue
		}

		a := Assignment{Key: key, Files: make(map[string]string, len(slots))}
		for _, s := range slots {
			c := report.Slots[s.Name]
			file, ok, matched := pick(key, e.Category, s.Pool, s.Index)
			if !ok {
				c.Unassigned++
				continue
			}
			c.Assigned++
			if matched {
				c.CategoryMatched++
			}
			a.Files[s.Name] = file
		}

		switch {
		case len(a.Files) == 0:
			continue
		case len(a.Files) < len(slots):
			report.Partial++
		}
		out = append(out, a)
	}
	return out, report
}
