// Package model holds the value types shared by the sync pipeline: remote
// file records, collection snapshots and the artifacts derived from them.
package model

import (
	"path"
	"strings"
	"time"
)

// FileRecord describes one entry of a remote listing. Records are immutable
// once read; a newer record with the same basename supersedes an older one.
type FileRecord struct {
	Path       string    `json:"path"`
	IsDir      bool      `json:"is_dir"`
	ModifiedAt time.Time `json:"modified"`
}

// Basename returns the last element of the record's path. Basenames are the
// identity used for diffing, mirroring and artifact keys within a collection.
func (f FileRecord) Basename() string {
	return path.Base(strings.ReplaceAll(f.Path, "\\", "/"))
}

// Ext returns the lower-cased extension without the leading dot.
func (f FileRecord) Ext() string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(f.Basename())), ".")
}

// Stem returns the basename without its extension.
func (f FileRecord) Stem() string {
	base := f.Basename()
	return strings.TrimSuffix(base, path.Ext(base))
}

// Snapshot is the full listing of one collection as last seen.
type Snapshot []FileRecord

// Files returns the non-directory records accepted by keep, in listing order.
// A nil keep accepts every file.
func (s Snapshot) Files(keep func(path string) bool) []FileRecord {
	out := make([]FileRecord, 0, len(s))
	for _, rec := range s {
		if rec.IsDir {
			continue
		}
		if keep != nil && !keep(rec.Path) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Artifact is a generated or passthrough document ready to be published
// under "<collection>/<Key>".
type Artifact struct {
	Key         string
	ContentType string
	Body        []byte
}

// Content types used for artifacts.
const (
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypeCSS  = "text/css"
	ContentTypeRSS  = "application/rss+xml"
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
)

// ContentTypeForExt maps a passthrough asset extension to its content type.
// Unknown extensions fall back to application/octet-stream.
func ContentTypeForExt(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "css":
		return ContentTypeCSS
	case "jpg", "jpeg":
		return ContentTypeJPEG
	case "png":
		return ContentTypePNG
	case "gif":
		return ContentTypeGIF
	default:
		return "application/octet-stream"
	}
}

// ArtifactKey maps a source file to the key of the artifact derived from it:
// markdown files publish under their stem, everything else under its basename.
func ArtifactKey(f FileRecord) string {
	if f.Ext() == "md" {
		return f.Stem()
	}
	return f.Basename()
}

// Post is a rendered markdown document. Posts are transient: they are rebuilt
// from the mirror on every pass that needs them.
type Post struct {
	Title      string
	ShortTitle string
	// Content is the rendered HTML body.
	Content    []byte
	ModifiedAt time.Time
}
