// Package render turns markdown into HTML and lays out the post, listing and
// archive pages of a collection.
package render

import (
	"html/template"
	"time"

	"git.home.luguber.info/inful/folio/internal/model"
)

// Renderer is the rendering capability used by the generator.
type Renderer interface {
	// Markdown renders a markdown body (metadata already removed) to HTML.
	Markdown(src []byte) ([]byte, error)
	Post(ctx PostContext) ([]byte, error)
	List(ctx ListContext) ([]byte, error)
	Archive(ctx ArchiveContext) ([]byte, error)
}

// Site is the context shared by every page of a collection.
type Site struct {
	Collection string
	BlogTitle  string
	BaseURL    string
	// Link is the public URL prefix of the collection, ending in a slash.
	Link          string
	Stylesheets   []string
	Navigation    template.HTML
	GAAccount     string
	DisqusAccount string
}

// PostContext renders one post page.
type PostContext struct {
	Site Site
	Post model.Post
}

// ListContext renders one page of the paginated post listing.
type ListContext struct {
	Site    Site
	Posts   []model.Post
	Page    int
	HasNext bool
	NextKey string
	PrevKey string
}

// ArchiveContext renders the archive page.
type ArchiveContext struct {
	Site  Site
	Years []ArchiveYear
}

// ArchiveYear groups the posts of one year, newest month first.
type ArchiveYear struct {
	Year   int
	Months []ArchiveMonth
}

// ArchiveMonth groups the posts of one month, newest first.
type ArchiveMonth struct {
	Month time.Month
	Posts []model.Post
}

// GroupArchive groups posts (sorted newest first) by year then month,
// preserving order within each group.
func GroupArchive(posts []model.Post) []ArchiveYear {
	var years []ArchiveYear
	for _, p := range posts {
		y, m := p.ModifiedAt.Year(), p.ModifiedAt.Month()
		if len(years) == 0 || years[len(years)-1].Year != y {
			years = append(years, ArchiveYear{Year: y})
		}
		yr := &years[len(years)-1]
		if len(yr.Months) == 0 || yr.Months[len(yr.Months)-1].Month != m {
			yr.Months = append(yr.Months, ArchiveMonth{Month: m})
		}
		mo := &yr.Months[len(yr.Months)-1]
		mo.Posts = append(mo.Posts, p)
	}
	return years
}
