package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/jessevdk/go-flags"

	"github.com/lysyi3m/folio/app/blog"
	"github.com/lysyi3m/folio/app/content"
	"github.com/lysyi3m/folio/app/markdown"
	"github.com/lysyi3m/folio/app/nav"
)

type options struct {
	Registry     string `long:"registry" env:"REGISTRY_FILE" default:"./posts.yml" description:"YAML file listing published posts"`
	PostsDir     string `long:"posts-dir" env:"POSTS_DIR" default:"./posts" description:"Local directory holding post markdown files"`
	ContentURL   string `long:"content-url" env:"CONTENT_URL" description:"Remote content store base URL; overrides --posts-dir"`
	Renderer     string `long:"renderer" env:"RENDERER" default:"legacy" choice:"legacy" choice:"goldmark" description:"Markdown engine"`
	OrderedLists bool   `long:"ordered-lists" env:"ORDERED_LISTS" description:"Render runs of numbered items as <ol>"`
	Link         string `long:"link" description:"Initial deep link fragment, e.g. #welcome-to-my-blog"`
	Debug        bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}

	level := slog.LevelWarn
	if opts.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(opts, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "reader: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, in io.Reader, out io.Writer) error {
	registry, err := blog.LoadRegistry(opts.Registry)
	if err != nil {
		return err
	}

	var store content.Store
	if opts.ContentURL != "" {
		store = content.NewHTTPStore(opts.ContentURL, &http.Client{}, "Folio Reader/1.0")
	} else {
		store = content.NewDirStore(opts.PostsDir)
	}

	engine, err := markdown.NewEngine(opts.Renderer, opts.OrderedLists, false)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	view := newTerminalView(out)
	controller := nav.NewController(ctx, registry, content.NewLoader(store, engine), view)
	controller.Start(opts.Link)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if quit := handleCommand(controller, registry, view, strings.TrimSpace(scanner.Text())); quit {
			break
		}
	}

	controller.Wait()

	return scanner.Err()
}

func handleCommand(controller *nav.Controller, registry *blog.Registry, view *terminalView, line string) bool {
	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch {
	case line == "":
	case command == "quit" || command == "q":
		return true
	case command == "list" || command == "back" || command == "b":
		controller.OnBack()
	case command == "open" || command == "o":
		post, ok := view.pick(registry, arg)
		if !ok {
			view.printf("No post %q\n", arg)
			return false
		}
		controller.OnSelect(post)
	case strings.HasPrefix(line, "#"):
		controller.OnHashChange(line)
	case command == "where":
		state, post := controller.State()
		view.printf("%s %s\n", state, post.Title)
	default:
		view.printf("Commands: list, open <n|slug>, back, #slug, where, quit\n")
	}
	return false
}

// terminalView prints controller output as plain text. HTML is shown as-is.
type terminalView struct {
	mu   sync.Mutex
	out  io.Writer
	last []blog.Post
}

func newTerminalView(out io.Writer) *terminalView {
	return &terminalView{out: out}
}

func (v *terminalView) ShowList(posts []blog.Post) {
	v.last = posts
	v.printf("\n%d posts\n", len(posts))
	for i, post := range posts {
		v.printf("%3d. %s", i+1, post.Title)
		if date := post.DisplayDate(); date != "" {
			v.printf(" (%s)", date)
		}
		v.printf("  #%s\n", post.Slug())
		if post.Description != "" {
			v.printf("     %s\n", post.Description)
		}
	}
}

func (v *terminalView) ShowPost(rendered content.RenderedPost) {
	v.printf("\n== %s ==\n", rendered.Post.Title)
	if date := rendered.Post.DisplayDate(); date != "" {
		v.printf("%s\n", date)
	}
	v.printf("\n%s\n", rendered.HTML)
}

func (v *terminalView) ShowError(post blog.Post, message string) {
	v.printf("\n== %s ==\n%s\n", post.Title, message)
}

// pick resolves "open" arguments: a 1-based index into the last list or a slug.
func (v *terminalView) pick(registry *blog.Registry, arg string) (blog.Post, bool) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(v.last) {
			return blog.Post{}, false
		}
		return v.last[n-1], true
	}
	return nav.Resolve(registry, arg)
}

func (v *terminalView) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format, args...)
}
