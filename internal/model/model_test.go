package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFileRecordNames(t *testing.T) {
	rec := FileRecord{Path: "/Live/posts/Hello.World.MD", ModifiedAt: time.Unix(0, 0)}

	assert.Equal(t, "Hello.World.MD", rec.Basename())
	assert.Equal(t, "md", rec.Ext())
	assert.Equal(t, "Hello.World", rec.Stem())
	assert.Equal(t, "Hello.World", ArtifactKey(rec))
}

func TestArtifactKeyForAssets(t *testing.T) {
	assert.Equal(t, "site.css", ArtifactKey(FileRecord{Path: "/Live/site.css"}))
	assert.Equal(t, "cat.jpg", ArtifactKey(FileRecord{Path: "/Live/img/cat.jpg"}))
}

func TestSnapshotFilesSkipsDirectories(t *testing.T) {
	snap := Snapshot{
		{Path: "/Live", IsDir: true},
		{Path: "/Live/a.md"},
		{Path: "/Live/notes.txt"},
	}
	onlyMD := func(p string) bool { return FileRecord{Path: p}.Ext() == "md" }

	assert.Len(t, snap.Files(nil), 2)
	files := snap.Files(onlyMD)
	assert.Len(t, files, 1)
	assert.Equal(t, "/Live/a.md", files[0].Path)
}

func TestContentTypeForExt(t *testing.T) {
	assert.Equal(t, ContentTypeCSS, ContentTypeForExt(".CSS"))
	assert.Equal(t, ContentTypeJPEG, ContentTypeForExt("jpeg"))
	assert.Equal(t, ContentTypeJPEG, ContentTypeForExt("jpg"))
	assert.Equal(t, ContentTypePNG, ContentTypeForExt("png"))
	assert.Equal(t, ContentTypeGIF, ContentTypeForExt("gif"))
	assert.Equal(t, "application/octet-stream", ContentTypeForExt("bin"))
}
