// Package generator derives the servable artifacts of a collection from its
// mirrored source files.
package generator

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/folio/internal/diff"
	ferrors "git.home.luguber.info/inful/folio/internal/errors"
	"git.home.luguber.info/inful/folio/internal/feed"
	"git.home.luguber.info/inful/folio/internal/frontmatter"
	"git.home.luguber.info/inful/folio/internal/logfields"
	"git.home.luguber.info/inful/folio/internal/model"
	"git.home.luguber.info/inful/folio/internal/render"
)

// NavigationFile is the reserved basename whose rendering becomes the
// navigation fragment of every page. Only the file directly under the
// collection root is used; copies in subdirectories are ignored. Neither is
// ever published as a post.
const NavigationFile = "navigation.md"

// Fixed keys of derived artifacts.
const (
	KeyIndex   = "index"
	KeyArchive = "archive"
	KeyFeed    = "rss.xml"
)

// Defaults applied when Options leaves a size unset.
const (
	DefaultBlogTitle = "My blog"
	DefaultPageSize  = 5
	DefaultFeedSize  = 10
)

// Options configure the site-wide context and listing sizes.
type Options struct {
	BlogTitle     string
	BaseURL       string
	GAAccount     string
	DisqusAccount string
	PageSize      int
	FeedSize      int
}

// MirrorReader reads mirrored files by basename.
type MirrorReader interface {
	Read(basename string) ([]byte, error)
}

// Input is everything one generation pass needs.
type Input struct {
	Collection string
	// Root is the remote directory of the collection, e.g. "/Live".
	Root   string
	Mirror MirrorReader
	// Files is the current filtered listing of the collection.
	Files []model.FileRecord
	Diff  diff.Result
	// PreviousPostCount is the post count of the last committed pass; pages
	// beyond the new count are reported as obsolete.
	PreviousPostCount int
}

// Failure records a source file that could not be rendered.
type Failure struct {
	File string
	Err  error
}

// Output is the result of a generation pass.
type Output struct {
	Artifacts []model.Artifact
	Failures  []Failure
	// Obsolete lists derived keys that no longer exist, e.g. trailing pages.
	Obsolete  []string
	PostCount int
}

// Generator renders artifacts with an injected Renderer.
type Generator struct {
	renderer render.Renderer
	opts     Options
}

// New creates a Generator.
func New(renderer render.Renderer, opts Options) *Generator {
	if strings.TrimSpace(opts.BlogTitle) == "" {
		opts.BlogTitle = DefaultBlogTitle
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.FeedSize <= 0 {
		opts.FeedSize = DefaultFeedSize
	}
	return &Generator{renderer: renderer, opts: opts}
}

// Generate runs every generation step whose inputs are present. Posts that
// fail to render are skipped and reported; the pass itself only fails when a
// collection-wide page cannot be rendered.
func (g *Generator) Generate(in Input) (*Output, error) {
	out := &Output{}
	site := g.site(in)

	var markdown, stylesheets []model.FileRecord
	for _, f := range in.Files {
		switch f.Ext() {
		case "md":
			if f.Basename() != NavigationFile {
				markdown = append(markdown, f)
			}
		case "css":
			stylesheets = append(stylesheets, f)
		}
	}

	if nav, ok := findNavigation(in.Root, in.Files); ok {
		fragment, err := g.navigation(in.Mirror, nav)
		if err != nil {
			slog.Warn("Navigation render failed", logfields.Collection(in.Collection), logfields.Error(err))
			out.Failures = append(out.Failures, Failure{File: nav.Basename(), Err: err})
		} else {
			site.Navigation = fragment
		}
	}
	site.Stylesheets = sortedBasenames(stylesheets)

	for _, f := range in.Diff.Changed() {
		if f.Ext() == "md" {
			continue
		}
		body, err := in.Mirror.Read(f.Basename())
		if err != nil {
			out.Failures = append(out.Failures, Failure{File: f.Basename(), Err: ferrors.RenderFailure(f.Basename(), err)})
			continue
		}
		out.Artifacts = append(out.Artifacts, model.Artifact{
			Key:         f.Basename(),
			ContentType: model.ContentTypeForExt(f.Ext()),
			Body:        body,
		})
	}

	emit := postsToEmit(in.Root, in.Diff, markdown)
	posts := make([]model.Post, 0, len(markdown))
	for _, f := range markdown {
		post, err := g.post(in.Mirror, f)
		if err != nil {
			slog.Warn("Post render failed", logfields.Collection(in.Collection), logfields.File(f.Basename()), logfields.Error(err))
			out.Failures = append(out.Failures, Failure{File: f.Basename(), Err: err})
			continue
		}
		posts = append(posts, post)
		if !emit[f.Basename()] {
			continue
		}
		page, err := g.renderer.Post(render.PostContext{Site: site, Post: post})
		if err != nil {
			err = ferrors.RenderFailure(f.Basename(), err)
			slog.Warn("Post render failed", logfields.Collection(in.Collection), logfields.File(f.Basename()), logfields.Error(err))
			out.Failures = append(out.Failures, Failure{File: f.Basename(), Err: err})
			continue
		}
		out.Artifacts = append(out.Artifacts, model.Artifact{Key: post.ShortTitle, ContentType: model.ContentTypeHTML, Body: page})
	}

	SortPosts(posts)
	out.PostCount = len(posts)

	lists, err := g.lists(site, posts)
	if err != nil {
		return nil, err
	}
	out.Artifacts = append(out.Artifacts, lists...)
	out.Obsolete = ObsoletePages(in.PreviousPostCount, len(posts), g.opts.PageSize)

	archive, err := g.renderer.Archive(render.ArchiveContext{Site: site, Years: render.GroupArchive(posts)})
	if err != nil {
		return nil, ferrors.RenderFailure(KeyArchive, err)
	}
	out.Artifacts = append(out.Artifacts, model.Artifact{Key: KeyArchive, ContentType: model.ContentTypeHTML, Body: archive})

	newest := posts
	if len(newest) > g.opts.FeedSize {
		newest = newest[:g.opts.FeedSize]
	}
	rss, err := feed.Build(feed.Channel{Title: site.BlogTitle, Link: site.Link}, newest)
	if err != nil {
		return nil, ferrors.RenderFailure(KeyFeed, err)
	}
	out.Artifacts = append(out.Artifacts, model.Artifact{Key: KeyFeed, ContentType: model.ContentTypeRSS, Body: rss})

	return out, nil
}

// RequiresFullRender reports whether a change touches content embedded in
// every page (the navigation document of root or the stylesheet set).
func RequiresFullRender(root string, d diff.Result) bool {
	for _, set := range [][]model.FileRecord{d.Added, d.Modified, d.Removed} {
		for _, f := range set {
			if isNavigation(root, f) || f.Ext() == "css" {
				return true
			}
		}
	}
	return false
}

func postsToEmit(root string, d diff.Result, markdown []model.FileRecord) map[string]bool {
	emit := make(map[string]bool, len(markdown))
	if RequiresFullRender(root, d) {
		for _, f := range markdown {
			emit[f.Basename()] = true
		}
		return emit
	}
	for _, f := range d.Changed() {
		if f.Ext() == "md" {
			emit[f.Basename()] = true
		}
	}
	return emit
}

func (g *Generator) site(in Input) render.Site {
	base := g.opts.BaseURL
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	if base == "" {
		base = "/"
	}
	return render.Site{
		Collection:    in.Collection,
		BlogTitle:     g.opts.BlogTitle,
		BaseURL:       g.opts.BaseURL,
		Link:          base + in.Collection + "/",
		GAAccount:     g.opts.GAAccount,
		DisqusAccount: g.opts.DisqusAccount,
	}
}

func (g *Generator) navigation(m MirrorReader, f model.FileRecord) (template.HTML, error) {
	src, err := m.Read(f.Basename())
	if err != nil {
		return "", ferrors.RenderFailure(f.Basename(), err)
	}
	doc, err := frontmatter.Parse(src)
	if err != nil {
		return "", ferrors.RenderFailure(f.Basename(), err)
	}
	html, err := g.renderer.Markdown(doc.Body)
	if err != nil {
		return "", ferrors.RenderFailure(f.Basename(), err)
	}
	return template.HTML(html), nil // #nosec G203 - rendered from author markdown
}

func (g *Generator) post(m MirrorReader, f model.FileRecord) (model.Post, error) {
	src, err := m.Read(f.Basename())
	if err != nil {
		return model.Post{}, ferrors.RenderFailure(f.Basename(), err)
	}
	doc, err := frontmatter.Parse(src)
	if err != nil {
		return model.Post{}, ferrors.RenderFailure(f.Basename(), err)
	}
	html, err := g.renderer.Markdown(doc.Body)
	if err != nil {
		return model.Post{}, ferrors.RenderFailure(f.Basename(), err)
	}

	short := f.Stem()
	if ReservedKey(short) {
		return model.Post{}, ferrors.RenderFailure(f.Basename(), fmt.Errorf("%w: %q", ErrReservedKey, short))
	}
	title := short
	if t, ok := doc.Title(); ok {
		title = t
	}
	return model.Post{Title: title, ShortTitle: short, Content: html, ModifiedAt: f.ModifiedAt}, nil
}

func (g *Generator) lists(site render.Site, posts []model.Post) ([]model.Artifact, error) {
	pages := PageCount(len(posts), g.opts.PageSize)
	artifacts := make([]model.Artifact, 0, pages)
	for page := 1; page <= pages; page++ {
		lo := (page - 1) * g.opts.PageSize
		hi := min(lo+g.opts.PageSize, len(posts))
		ctx := render.ListContext{
			Site:    site,
			Posts:   posts[lo:hi],
			Page:    page,
			HasNext: page < pages,
		}
		if ctx.HasNext {
			ctx.NextKey = PageKey(page + 1)
		}
		if page > 1 {
			ctx.PrevKey = PageKey(page - 1)
		}
		body, err := g.renderer.List(ctx)
		if err != nil {
			return nil, ferrors.RenderFailure(PageKey(page), err)
		}
		artifacts = append(artifacts, model.Artifact{Key: PageKey(page), ContentType: model.ContentTypeHTML, Body: body})
	}
	return artifacts, nil
}

// SortPosts orders posts newest first, breaking ties by short title.
func SortPosts(posts []model.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].ModifiedAt.Equal(posts[j].ModifiedAt) {
			return posts[i].ModifiedAt.After(posts[j].ModifiedAt)
		}
		return posts[i].ShortTitle < posts[j].ShortTitle
	})
}

// PageCount is the number of listing pages for n posts. There is always at
// least one page.
func PageCount(n, pageSize int) int {
	if n <= 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

// ErrReservedKey rejects a post whose short title names a derived artifact.
var ErrReservedKey = errors.New("short title is reserved for a generated page")

// ReservedKey reports whether key is used by a collection-wide artifact:
// index, archive, rss.xml or a page_N listing page.
func ReservedKey(key string) bool {
	switch key {
	case KeyIndex, KeyArchive, KeyFeed:
		return true
	}
	n, ok := strings.CutPrefix(key, "page_")
	if !ok || n == "" {
		return false
	}
	for _, r := range n {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// PageKey returns the artifact key of a 1-based listing page.
func PageKey(page int) string {
	if page <= 1 {
		return KeyIndex
	}
	return "page_" + strconv.Itoa(page)
}

// ObsoletePages lists the page keys that existed for prevPosts but not for
// curPosts.
func ObsoletePages(prevPosts, curPosts, pageSize int) []string {
	prev, cur := PageCount(prevPosts, pageSize), PageCount(curPosts, pageSize)
	var keys []string
	for page := cur + 1; page <= prev; page++ {
		keys = append(keys, PageKey(page))
	}
	return keys
}

func findNavigation(root string, files []model.FileRecord) (model.FileRecord, bool) {
	for _, f := range files {
		if isNavigation(root, f) {
			return f, true
		}
	}
	return model.FileRecord{}, false
}

func isNavigation(root string, f model.FileRecord) bool {
	return f.Path == path.Join("/", root, NavigationFile)
}

func sortedBasenames(files []model.FileRecord) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Basename())
	}
	sort.Strings(names)
	return names
}

// String summarizes the output for logs.
func (o *Output) String() string {
	return fmt.Sprintf("%d artifacts, %d failures, %d posts, %d obsolete", len(o.Artifacts), len(o.Failures), o.PostCount, len(o.Obsolete))
}
