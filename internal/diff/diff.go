// Package diff classifies the relevant files of two collection snapshots as
// added, removed or modified.
//
// Files are identified by basename, not full path: a file moved between
// directories keeps its identity. Published artifact keys derive from
// basenames, so two files with the same basename in different directories
// are not distinguished.
package diff

import (
	"sort"

	"git.home.luguber.info/inful/folio/internal/model"
)

// Result is the outcome of comparing two snapshots. The three sets are
// pairwise disjoint by basename and sorted by basename.
type Result struct {
	Added    []model.FileRecord
	Removed  []model.FileRecord
	Modified []model.FileRecord
}

// Empty reports whether nothing relevant changed.
func (r Result) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Modified) == 0
}

// Changed returns the added and modified records, i.e. those whose content
// must be (re)fetched.
func (r Result) Changed() []model.FileRecord {
	out := make([]model.FileRecord, 0, len(r.Added)+len(r.Modified))
	out = append(out, r.Added...)
	out = append(out, r.Modified...)
	return out
}

// Compute diffs old against cur. Only non-directory entries accepted by
// filter take part; a nil filter accepts everything. A basename present on
// both sides is modified only when cur's timestamp is strictly later.
func Compute(old, cur model.Snapshot, filter Filter) Result {
	oldFiles := index(old, filter)
	curFiles := index(cur, filter)

	var res Result
	for name, rec := range curFiles {
		prev, ok := oldFiles[name]
		switch {
		case !ok:
			res.Added = append(res.Added, rec)
		case rec.ModifiedAt.After(prev.ModifiedAt):
			res.Modified = append(res.Modified, rec)
		}
	}
	for name, rec := range oldFiles {
		if _, ok := curFiles[name]; !ok {
			res.Removed = append(res.Removed, rec)
		}
	}

	sortByBasename(res.Added)
	sortByBasename(res.Removed)
	sortByBasename(res.Modified)
	return res
}

// index builds the basename-keyed view of a snapshot. When a basename occurs
// more than once the later listing entry wins.
func index(s model.Snapshot, filter Filter) map[string]model.FileRecord {
	files := make(map[string]model.FileRecord, len(s))
	for _, rec := range s.Files(filter) {
		files[rec.Basename()] = rec
	}
	return files
}

func sortByBasename(recs []model.FileRecord) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].Basename() < recs[j].Basename() })
}
