package blog

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("post not found")
	ErrDuplicate = errors.New("duplicate post")
)

const DateLayout = "2006-01-02"

// Post is one curated registry entry. Filename doubles as the content store key
// and, without its extension, as the deep-link slug.
type Post struct {
	Title       string `yaml:"title" json:"title"`
	Filename    string `yaml:"filename" json:"filename"`
	Date        string `yaml:"date" json:"date"`
	Description string `yaml:"description" json:"description"`

	publishedAt time.Time
}

type registryFile struct {
	Posts []Post `yaml:"posts"`
}
