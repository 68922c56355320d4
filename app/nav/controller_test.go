package nav

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/lysyi3m/folio/app/blog"
	"github.com/lysyi3m/folio/app/content"
)

type event struct {
	kind     string
	filename string
	html     string
	message  string
	posts    []blog.Post
}

// recordingView captures every call made by the controller
type recordingView struct {
	mu     sync.Mutex
	events []event
}

func (v *recordingView) ShowList(posts []blog.Post) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append(v.events, event{kind: "list", posts: posts})
}

func (v *recordingView) ShowPost(rendered content.RenderedPost) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append(v.events, event{kind: "post", filename: rendered.Post.Filename, html: rendered.HTML})
}

func (v *recordingView) ShowError(post blog.Post, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append(v.events, event{kind: "error", filename: post.Filename, message: message})
}

func (v *recordingView) snapshot() []event {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]event(nil), v.events...)
}

// gatedLoader blocks each load until its filename is released
type gatedLoader struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	failing map[string]bool
	calls   []string
}

func newGatedLoader() *gatedLoader {
	return &gatedLoader{
		gates:   make(map[string]chan struct{}),
		failing: make(map[string]bool),
	}
}

func (l *gatedLoader) gate(filename string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.gates[filename]; !ok {
		l.gates[filename] = make(chan struct{})
	}
	return l.gates[filename]
}

func (l *gatedLoader) release(filename string) {
	close(l.gate(filename))
}

func (l *gatedLoader) Load(ctx context.Context, post blog.Post) (content.RenderedPost, error) {
	l.mu.Lock()
	l.calls = append(l.calls, post.Filename)
	failing := l.failing[post.Filename]
	l.mu.Unlock()

	<-l.gate(post.Filename)

	if failing {
		return content.RenderedPost{}, &content.LoadError{Filename: post.Filename, Err: errors.New("boom")}
	}
	return content.RenderedPost{Post: post, HTML: "<p>" + post.Title + "</p>"}, nil
}

func (l *gatedLoader) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

func newTestRegistry(t *testing.T) *blog.Registry {
	t.Helper()
	registry, err := blog.NewRegistry([]blog.Post{
		{Title: "Welcome", Filename: "welcome-to-my-blog.md", Date: "2025-08-01"},
		{Title: "Latest", Filename: "latest.md", Date: "2025-08-27"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return registry
}

func TestStartWithoutFragmentShowsSortedList(t *testing.T) {
	view := &recordingView{}
	loader := newGatedLoader()
	c := NewController(context.Background(), newTestRegistry(t), loader, view)

	c.Start("")

	events := view.snapshot()
	if len(events) != 1 || events[0].kind != "list" {
		t.Fatalf("Expected a single list event, got %+v", events)
	}
	if events[0].posts[0].Filename != "latest.md" {
		t.Errorf("Expected newest post first, got '%s'", events[0].posts[0].Filename)
	}
	if state, _ := c.State(); state != ListView {
		t.Errorf("Expected ListView, got %s", state)
	}
	if loader.callCount() != 0 {
		t.Error("List view must not load content")
	}
}

func TestStartWithDeepLinkShowsPostDirectly(t *testing.T) {
	view := &recordingView{}
	loader := newGatedLoader()
	loader.release("welcome-to-my-blog.md")
	c := NewController(context.Background(), newTestRegistry(t), loader, view)

	c.Start("#welcome-to-my-blog")
	c.Wait()

	events := view.snapshot()
	if len(events) != 1 {
		t.Fatalf("Expected a single event, got %+v", events)
	}
	if events[0].kind != "post" || events[0].filename != "welcome-to-my-blog.md" {
		t.Errorf("Expected post event for welcome-to-my-blog.md, got %+v", events[0])
	}
	if c.Fragment() != "#welcome-to-my-blog" {
		t.Errorf("Expected fragment '#welcome-to-my-blog', got '%s'", c.Fragment())
	}
}

func TestStartWithUnknownFragmentFallsBackToList(t *testing.T) {
	view := &recordingView{}
	c := NewController(context.Background(), newTestRegistry(t), newGatedLoader(), view)

	c.Start("#no-such-post")

	events := view.snapshot()
	if len(events) != 1 || events[0].kind != "list" {
		t.Errorf("Expected list fallback, got %+v", events)
	}
}

func TestSelectKeepsPriorViewUntilLoaded(t *testing.T) {
	view := &recordingView{}
	loader := newGatedLoader()
	registry := newTestRegistry(t)
	c := NewController(context.Background(), registry, loader, view)

	c.Start("")
	post, _ := registry.BySlug("latest")
	c.OnSelect(post)

	if got := len(view.snapshot()); got != 1 {
		t.Errorf("Expected view untouched while loading, got %d events", got)
	}
	if state, current := c.State(); state != PostView || current.Filename != "latest.md" {
		t.Errorf("Expected PostView for latest.md, got %s %s", state, current.Filename)
	}

	loader.release("latest.md")
	c.Wait()

	events := view.snapshot()
	if last := events[len(events)-1]; last.kind != "post" || last.html != "<p>Latest</p>" {
		t.Errorf("Expected rendered post, got %+v", last)
	}
}

func TestLoadFailureShowsInlineErrorAndBackRecovers(t *testing.T) {
	view := &recordingView{}
	loader := newGatedLoader()
	loader.failing["latest.md"] = true
	loader.release("latest.md")
	c := NewController(context.Background(), newTestRegistry(t), loader, view)

	c.Start("#latest")
	c.Wait()

	events := view.snapshot()
	if events[0].kind != "error" || events[0].message != content.DisplayMessage {
		t.Fatalf("Expected inline error, got %+v", events[0])
	}

	c.OnBack()
	events = view.snapshot()
	if last := events[len(events)-1]; last.kind != "list" || len(last.posts) != 2 {
		t.Errorf("Expected full list after back, got %+v", last)
	}
}

func TestBackDiscardsInFlightLoad(t *testing.T) {
	view := &recordingView{}
	loader := newGatedLoader()
	c := NewController(context.Background(), newTestRegistry(t), loader, view)

	c.Start("#latest")
	c.OnBack()
	loader.release("latest.md")
	c.Wait()

	events := view.snapshot()
	if len(events) != 1 || events[0].kind != "list" {
		t.Errorf("Stale load must not replace the list, got %+v", events)
	}
	if state, _ := c.State(); state != ListView {
		t.Errorf("Expected ListView, got %s", state)
	}
}

func TestFastDoubleNavigationShowsLatestSelection(t *testing.T) {
	view := &recordingView{}
	loader := newGatedLoader()
	registry := newTestRegistry(t)
	c := NewController(context.Background(), registry, loader, view)

	first, _ := registry.BySlug("welcome-to-my-blog")
	second, _ := registry.BySlug("latest")

	c.OnSelect(first)
	c.OnSelect(second)
	loader.release("latest.md")
	loader.release("welcome-to-my-blog.md")
	c.Wait()

	events := view.snapshot()
	if len(events) != 1 {
		t.Fatalf("Expected exactly one applied result, got %+v", events)
	}
	if events[0].filename != "latest.md" {
		t.Errorf("Expected latest.md to win, got '%s'", events[0].filename)
	}
}

func TestReselectingSamePostLoadsAgain(t *testing.T) {
	view := &recordingView{}
	loader := newGatedLoader()
	loader.release("latest.md")
	c := NewController(context.Background(), newTestRegistry(t), loader, view)

	c.OnHashChange("#latest")
	c.Wait()
	c.OnHashChange("#latest")
	c.Wait()

	if loader.callCount() != 2 {
		t.Errorf("Expected 2 loads, got %d", loader.callCount())
	}
}

func TestParseFragment(t *testing.T) {
	tests := map[string]string{
		"#welcome-to-my-blog": "welcome-to-my-blog",
		"welcome":             "welcome",
		" #caf%C3%A9 ":        "café",
		"#":                   "",
		"":                    "",
	}

	for input, expected := range tests {
		if got := ParseFragment(input); got != expected {
			t.Errorf("ParseFragment(%q) = %q, expected %q", input, got, expected)
		}
	}
}

func TestStateString(t *testing.T) {
	if !strings.EqualFold(PostView.String(), "post") || ListView.String() != "list" {
		t.Errorf("Unexpected state names: %s %s", PostView, ListView)
	}
}
