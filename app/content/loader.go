package content

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/lysyi3m/folio/app/blog"
	"github.com/lysyi3m/folio/app/markdown"
)

// Loader fetches a post and renders it. Every call hits the store; nothing is
// cached or retried.
type Loader struct {
	store  Store
	engine markdown.Engine
}

func NewLoader(store Store, engine markdown.Engine) *Loader {
	if engine == nil {
		engine = markdown.New()
	}
	return &Loader{
		store:  store,
		engine: engine,
	}
}

func (l *Loader) Load(ctx context.Context, post blog.Post) (RenderedPost, error) {
	data, err := l.store.Fetch(ctx, post.Filename)
	if err != nil {
		slog.Debug("Post fetch failed", "filename", post.Filename, "error", err)
		return RenderedPost{}, &LoadError{Filename: post.Filename, Err: err}
	}

	if !utf8.Valid(data) {
		return RenderedPost{}, &LoadError{Filename: post.Filename, Err: errors.New("response body is not valid UTF-8")}
	}

	return RenderedPost{
		Post: post,
		HTML: l.engine.Render(string(data)),
	}, nil
}
