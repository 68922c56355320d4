package blog

import (
	"path"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Slug strips the extension from a filename.
func Slug(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename))
}

func (p Post) Slug() string {
	return Slug(p.Filename)
}

// PublishedAt is the parsed Date, zero when the date is missing or malformed.
func (p Post) PublishedAt() time.Time {
	if !p.publishedAt.IsZero() {
		return p.publishedAt
	}
	return parseDate(p.Date)
}

func (p Post) DisplayDate() string {
	t := p.PublishedAt()
	if t.IsZero() {
		return p.Date
	}
	return t.Format("January 2, 2006")
}

func (p Post) normalize() Post {
	p.Title = strings.TrimSpace(p.Title)
	p.Filename = strings.TrimSpace(p.Filename)
	p.Date = strings.TrimSpace(p.Date)
	if p.Title == "" {
		p.Title = titleFromSlug(p.Slug())
	}
	p.publishedAt = parseDate(p.Date)
	return p
}

func parseDate(s string) time.Time {
	formats := []string{time.RFC3339, "2006-01-02T15:04:05", DateLayout}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func titleFromSlug(slug string) string {
	words := strings.ReplaceAll(strings.ReplaceAll(slug, "-", " "), "_", " ")
	return cases.Title(language.English).String(words)
}
