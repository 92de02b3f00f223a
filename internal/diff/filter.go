package diff

import (
	"path"
	"strings"
)

// Filter reports whether a path is relevant to a collection.
type Filter func(p string) bool

// Extension sets recognized by the sync pipeline.
var (
	MarkdownExtensions   = []string{"md"}
	StylesheetExtensions = []string{"css"}
	MediaExtensions      = []string{"jpg", "jpeg", "png", "gif"}
	// ContentExtensions is the union of every extension a collection publishes.
	ContentExtensions = []string{"md", "css", "jpg", "jpeg", "png", "gif"}
)

// ExtensionFilter accepts paths whose extension (case-insensitive, without
// the dot) is one of exts.
func ExtensionFilter(exts ...string) Filter {
	allowed := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}
	return func(p string) bool {
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
		_, ok := allowed[ext]
		return ok
	}
}

// ContentFilter is the default relevance filter for collections.
func ContentFilter() Filter { return ExtensionFilter(ContentExtensions...) }
