package api

import (
	"context"
	_ "embed"
	"html/template"
	"sync"

	"github.com/lysyi3m/folio/app/blog"
	"github.com/lysyi3m/folio/app/content"
	"github.com/lysyi3m/folio/app/nav"
)

//go:embed templates/page.html
var pageTemplate string

func parsePageTemplate() *template.Template {
	return template.Must(template.New("page").Parse(pageTemplate))
}

type pageData struct {
	SiteTitle string
	State     string
	Posts     []postSummary
	Post      *postSummary
	HTML      template.HTML
	Error     string
}

// pageView captures what the navigation controller shows so it can be rendered
// as one server-side page.
type pageView struct {
	mu     sync.Mutex
	data   pageData
	loaded bool
	failed bool
}

var _ nav.View = (*pageView)(nil)

func (v *pageView) ShowList(posts []blog.Post) {
	v.mu.Lock()
	defer v.mu.Unlock()

	summaries := make([]postSummary, 0, len(posts))
	for _, post := range posts {
		summaries = append(summaries, newPostSummary(post))
	}

	v.data.State = nav.ListView.String()
	v.data.Posts = summaries
	v.data.Post = nil
	v.data.HTML = ""
	v.data.Error = ""
}

func (v *pageView) ShowPost(rendered content.RenderedPost) {
	v.mu.Lock()
	defer v.mu.Unlock()

	summary := newPostSummary(rendered.Post)
	v.data.State = nav.PostView.String()
	v.data.Post = &summary
	v.data.HTML = template.HTML(rendered.HTML)
	v.data.Error = ""
	v.loaded = true
	v.failed = false
}

func (v *pageView) ShowError(post blog.Post, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	summary := newPostSummary(post)
	v.data.State = nav.PostView.String()
	v.data.Post = &summary
	v.data.HTML = ""
	v.data.Error = message
	v.loaded = true
	v.failed = true
}

// renderPage drives a fresh controller from the fragment and returns what it shows
// once every load has settled.
func (h *Handler) renderPage(ctx context.Context, fragment string) (pageData, *pageView) {
	view := &pageView{}
	controller := nav.NewController(ctx, h.registry, h.loader, view)
	controller.Start(fragment)
	controller.Wait()

	view.mu.Lock()
	defer view.mu.Unlock()

	data := view.data
	data.SiteTitle = h.siteTitle
	return data, view
}
