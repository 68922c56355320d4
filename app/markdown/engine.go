package markdown

import (
	"bytes"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const (
	EngineLegacy   = "legacy"
	EngineGoldmark = "goldmark"
)

// Engine turns markdown into HTML. Implementations must not fail.
type Engine interface {
	Render(markdown string) string
}

var (
	_ Engine = (*Renderer)(nil)
	_ Engine = (*Goldmark)(nil)
	_ Engine = (*Sanitized)(nil)
)

// NewEngine builds the engine selected by configuration.
func NewEngine(name string, orderedLists, sanitize bool) (Engine, error) {
	var engine Engine

	switch name {
	case "", EngineLegacy:
		engine = New(WithOrderedLists(orderedLists))
	case EngineGoldmark:
		engine = NewGoldmark()
	default:
		return nil, fmt.Errorf("unknown markdown engine: %s", name)
	}

	if sanitize {
		engine = NewSanitized(engine)
	}

	return engine, nil
}

// Goldmark renders CommonMark with GitHub extensions.
type Goldmark struct {
	md goldmark.Markdown
}

func NewGoldmark() *Goldmark {
	return &Goldmark{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(
				gmhtml.WithUnsafe(),
			),
		),
	}
}

func (g *Goldmark) Render(markdown string) string {
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(markdown), &buf); err != nil {
		slog.Warn("Goldmark conversion failed, falling back to escaped text", "error", err)
		return "<p>" + Escape(markdown) + "</p>"
	}
	return buf.String()
}

var codeClassPattern = regexp.MustCompile(`^language-[A-Za-z0-9_+.#-]+$`)

// Sanitized strips unsafe markup from another engine's output.
type Sanitized struct {
	engine Engine
	policy *bluemonday.Policy
}

func NewSanitized(engine Engine) *Sanitized {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(codeClassPattern).OnElements("code")

	return &Sanitized{
		engine: engine,
		policy: policy,
	}
}

func (s *Sanitized) Render(markdown string) string {
	return s.policy.Sanitize(s.engine.Render(markdown))
}
