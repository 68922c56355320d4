package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/folio/app/blog"
	"github.com/lysyi3m/folio/app/cfg"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Run renders an RSS 2.0 document for posts, which are expected newest first.
func (g *Generator) Run(posts []blog.Post) (string, error) {
	config := cfg.Get()
	siteURL := g.siteURL()

	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", config.SiteTitle, 4)
	g.writeElement(&buf, "link", siteURL+"/", 4)
	description := config.SiteDescription
	if description == "" {
		description = fmt.Sprintf("Posts from %s", config.SiteTitle)
	}
	g.writeElement(&buf, "description", description, 4)

	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(siteURL+"/feed.xml")))

	lastBuildDate := time.Now().In(time.Local)
	for _, post := range posts {
		if published := post.PublishedAt(); !published.IsZero() {
			lastBuildDate = published
			break
		}
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("Folio/%s", config.Version), 4)

	for _, post := range posts {
		g.writeItem(&buf, siteURL, post)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, siteURL string, post blog.Post) {
	link := fmt.Sprintf("%s/blog/%s", siteURL, post.Slug())

	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"true\">")
	xml.EscapeText(buf, []byte(link))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", post.Title, 6)
	g.writeElement(buf, "link", link, 6)
	g.writeElement(buf, "description", post.Description, 6)

	if published := post.PublishedAt(); !published.IsZero() {
		g.writeElement(buf, "pubDate", published.Format(time.RFC1123Z), 6)
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) siteURL() string {
	config := cfg.Get()
	if config.BaseUrl != "" {
		return strings.TrimSuffix(config.BaseUrl, "/")
	}
	return fmt.Sprintf("http://localhost:%s", config.Port)
}
