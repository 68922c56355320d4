package nav

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/lysyi3m/folio/app/blog"
	"github.com/lysyi3m/folio/app/content"
)

type State int

const (
	ListView State = iota
	PostView
)

func (s State) String() string {
	if s == PostView {
		return "post"
	}
	return "list"
}

// View is the presentation surface driven by the controller. Calls are made one
// at a time and must not re-enter the controller.
type View interface {
	ShowList(posts []blog.Post)
	ShowPost(rendered content.RenderedPost)
	ShowError(post blog.Post, message string)
}

type PostLoader interface {
	Load(ctx context.Context, post blog.Post) (content.RenderedPost, error)
}

var _ PostLoader = (*content.Loader)(nil)

// Controller owns the navigation state of one reader session. Each load is
// tagged with a token; a result whose token is no longer current is dropped.
type Controller struct {
	ctx      context.Context
	registry *blog.Registry
	loader   PostLoader
	view     View

	mu      sync.Mutex
	state   State
	post    blog.Post
	token   uint64
	pending sync.WaitGroup
}

func NewController(ctx context.Context, registry *blog.Registry, loader PostLoader, view View) *Controller {
	return &Controller{
		ctx:      ctx,
		registry: registry,
		loader:   loader,
		view:     view,
		state:    ListView,
	}
}

// Start performs the initial transition for a URL fragment such as "#my-post".
func (c *Controller) Start(fragment string) {
	if post, ok := Resolve(c.registry, fragment); ok {
		c.OnSelect(post)
		return
	}
	c.OnBack()
}

// OnHashChange handles browser history navigation exactly like a fresh load.
func (c *Controller) OnHashChange(fragment string) {
	c.Start(fragment)
}

// OnSelect switches to the post and loads it in the background. The current
// view stays on screen until the load resolves.
func (c *Controller) OnSelect(post blog.Post) {
	c.mu.Lock()
	c.token++
	token := c.token
	c.state = PostView
	c.post = post
	c.pending.Add(1)
	c.mu.Unlock()

	go c.load(token, post)
}

// OnBack rebuilds the list from the registry without touching the content store.
func (c *Controller) OnBack() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token++
	c.state = ListView
	c.post = blog.Post{}
	c.view.ShowList(c.registry.Sorted())
}

func (c *Controller) State() (State, blog.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.post
}

// Fragment is the deep link for the current state, empty for the list.
func (c *Controller) Fragment() string {
	state, post := c.State()
	if state != PostView {
		return ""
	}
	return "#" + post.Slug()
}

// Wait blocks until every started load has resolved.
func (c *Controller) Wait() {
	c.pending.Wait()
}

func (c *Controller) load(token uint64, post blog.Post) {
	defer c.pending.Done()

	rendered, err := c.loader.Load(c.ctx, post)

	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.token {
		slog.Debug("Discarding stale post load", "filename", post.Filename)
		return
	}

	if err != nil {
		slog.Warn("Post load failed", "filename", post.Filename, "error", err)
		c.view.ShowError(post, content.DisplayMessage)
		return
	}

	c.view.ShowPost(rendered)
}

// ParseFragment turns "#some-slug" into "some-slug".
func ParseFragment(fragment string) string {
	slug := strings.TrimPrefix(strings.TrimSpace(fragment), "#")
	if unescaped, err := url.PathUnescape(slug); err == nil {
		slug = unescaped
	}
	return slug
}

// Resolve finds the registry entry a fragment links to. Unknown or empty
// fragments resolve to nothing.
func Resolve(registry *blog.Registry, fragment string) (blog.Post, bool) {
	slug := ParseFragment(fragment)
	if slug == "" {
		return blog.Post{}, false
	}

	post, err := registry.BySlug(slug)
	if err != nil {
		return blog.Post{}, false
	}
	return post, true
}
