package diff

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/folio/internal/model"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func rec(p string, minutes int) model.FileRecord {
	return model.FileRecord{Path: p, ModifiedAt: t0.Add(time.Duration(minutes) * time.Minute)}
}

func basenames(recs []model.FileRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Basename())
	}
	return out
}

func TestCompute_Classifies(t *testing.T) {
	old := model.Snapshot{
		{Path: "/Live", IsDir: true},
		rec("/Live/keep.md", 0),
		rec("/Live/edit.md", 0),
		rec("/Live/gone.md", 0),
		rec("/Live/notes.txt", 0),
	}
	cur := model.Snapshot{
		{Path: "/Live", IsDir: true},
		rec("/Live/keep.md", 0),
		rec("/Live/edit.md", 5),
		rec("/Live/new.css", 1),
		rec("/Live/notes.txt", 9),
	}

	res := Compute(old, cur, ContentFilter())

	assert.Equal(t, []string{"new.css"}, basenames(res.Added))
	assert.Equal(t, []string{"gone.md"}, basenames(res.Removed))
	assert.Equal(t, []string{"edit.md"}, basenames(res.Modified))
	assert.False(t, res.Empty())
	assert.Equal(t, []string{"new.css", "edit.md"}, basenames(res.Changed()))
}

func TestCompute_OlderTimestampIsUnmodified(t *testing.T) {
	old := model.Snapshot{rec("/Live/a.md", 10)}
	cur := model.Snapshot{rec("/Live/a.md", 5)}

	assert.True(t, Compute(old, cur, ContentFilter()).Empty())
}

func TestCompute_MoveKeepsBasenameIdentity(t *testing.T) {
	old := model.Snapshot{rec("/Live/a.md", 0)}
	moved := model.Snapshot{rec("/Live/archive/a.md", 0)}
	movedAndTouched := model.Snapshot{rec("/Live/archive/a.md", 3)}

	assert.True(t, Compute(old, moved, ContentFilter()).Empty())
	res := Compute(old, movedAndTouched, ContentFilter())
	require.Len(t, res.Modified, 1)
	assert.Equal(t, "/Live/archive/a.md", res.Modified[0].Path)
}

func TestCompute_SelfDiffIsEmpty(t *testing.T) {
	snap := randomSnapshot(rand.New(rand.NewSource(1)), 40)
	assert.True(t, Compute(snap, snap, ContentFilter()).Empty())
}

func TestCompute_PartitionsFilteredBasenames(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	filter := ContentFilter()

	for i := 0; i < 50; i++ {
		old := randomSnapshot(rng, 20)
		cur := randomSnapshot(rng, 20)
		res := Compute(old, cur, filter)

		seen := map[string]string{}
		for set, recs := range map[string][]model.FileRecord{"added": res.Added, "removed": res.Removed, "modified": res.Modified} {
			for _, r := range recs {
				prev, dup := seen[r.Basename()]
				require.False(t, dup, "%s appears in %s and %s", r.Basename(), prev, set)
				seen[r.Basename()] = set
			}
		}

		universe := map[string]bool{}
		for _, r := range append(old.Files(filter), cur.Files(filter)...) {
			universe[r.Basename()] = true
		}
		for name := range seen {
			assert.True(t, universe[name], "%s is not a filtered basename", name)
		}
	}
}

func TestExtensionFilter(t *testing.T) {
	f := ExtensionFilter("md", ".CSS")

	assert.True(t, f("/a/b.MD"))
	assert.True(t, f("x.css"))
	assert.False(t, f("x.png"))
	assert.False(t, f("README"))
}

func randomSnapshot(rng *rand.Rand, n int) model.Snapshot {
	exts := []string{"md", "css", "png", "txt"}
	snap := model.Snapshot{{Path: "/Live", IsDir: true}}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("/Live/f%d.%s", rng.Intn(n), exts[rng.Intn(len(exts))])
		snap = append(snap, rec(name, rng.Intn(5)))
	}
	return snap
}
