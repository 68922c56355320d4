package blog

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// Registry holds the curated post list. Entries keep their file order; Sorted
// returns the newest-first view used by list pages.
type Registry struct {
	posts  []Post
	bySlug map[string]int
	mu     sync.RWMutex
}

func NewRegistry(posts []Post) (*Registry, error) {
	r := &Registry{}
	if err := r.Replace(posts); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadRegistry reads a YAML registry file of the form `posts: [...]`.
func LoadRegistry(path string) (*Registry, error) {
	posts, err := ReadRegistryFile(path)
	if err != nil {
		return nil, err
	}
	return NewRegistry(posts)
}

func ReadRegistryFile(path string) ([]Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return file.Posts, nil
}

// Replace swaps the registry contents after validating filename and slug uniqueness.
// On error the previous contents are kept.
func (r *Registry) Replace(posts []Post) error {
	normalized := make([]Post, 0, len(posts))
	bySlug := make(map[string]int, len(posts))
	filenames := make(map[string]bool, len(posts))

	for i, post := range posts {
		post = post.normalize()
		if post.Filename == "" {
			return fmt.Errorf("post at index %d: filename is required", i)
		}
		if filenames[post.Filename] {
			return fmt.Errorf("%w: filename %q", ErrDuplicate, post.Filename)
		}
		slug := post.Slug()
		if _, ok := bySlug[slug]; ok {
			return fmt.Errorf("%w: slug %q (from %q)", ErrDuplicate, slug, post.Filename)
		}
		if post.PublishedAt().IsZero() {
			slog.Warn("Post has no parsable date, it will sort last", "filename", post.Filename, "date", post.Date)
		}
		filenames[post.Filename] = true
		bySlug[slug] = len(normalized)
		normalized = append(normalized, post)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = normalized
	r.bySlug = bySlug

	return nil
}

// Posts returns a copy in registry order.
func (r *Registry) Posts() []Post {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.posts)
}

// Sorted returns a copy ordered by date, newest first. Ties keep registry order;
// undated entries go last.
func (r *Registry) Sorted() []Post {
	posts := r.Posts()
	SortByDate(posts)
	return posts
}

func (r *Registry) BySlug(slug string) (Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.bySlug[slug]
	if !ok {
		return Post{}, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	return r.posts[i], nil
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.posts)
}

func SortByDate(posts []Post) {
	slices.SortStableFunc(posts, func(a, b Post) int {
		ta, tb := a.PublishedAt(), b.PublishedAt()
		switch {
		case ta.IsZero() && tb.IsZero():
			return 0
		case ta.IsZero():
			return 1
		case tb.IsZero():
			return -1
		}
		return tb.Compare(ta)
	})
}
