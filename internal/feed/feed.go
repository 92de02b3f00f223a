// Package feed builds the RSS 2.0 document of a collection.
package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"git.home.luguber.info/inful/folio/internal/model"
)

// Channel describes the feed owner.
type Channel struct {
	Title       string
	Link        string
	Description string
}

type rss struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// Build renders posts (already sorted newest first and truncated) as RSS 2.0.
// Each item links to ch.Link + ShortTitle and carries the rendered HTML as its
// description. lastBuildDate is the newest post's time, so identical input
// yields identical output.
func Build(ch Channel, posts []model.Post) ([]byte, error) {
	doc := rss{
		Version: "2.0",
		Channel: rssChannel{
			Title:       ch.Title,
			Link:        ch.Link,
			Description: ch.Description,
			Items:       make([]rssItem, 0, len(posts)),
		},
	}
	if doc.Channel.Description == "" {
		doc.Channel.Description = ch.Title
	}
	if len(posts) > 0 {
		doc.Channel.LastBuildDate = posts[0].ModifiedAt.UTC().Format(time.RFC1123Z)
	}
	for _, p := range posts {
		link := ch.Link + p.ShortTitle
		doc.Channel.Items = append(doc.Channel.Items, rssItem{
			Title:       p.Title,
			Link:        link,
			GUID:        link,
			Description: string(p.Content),
			PubDate:     p.ModifiedAt.UTC().Format(time.RFC1123Z),
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode rss: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
