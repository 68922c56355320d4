package markdown

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	fencePattern      = regexp.MustCompile("(?s)```(.*?)```")
	infoStringPattern = regexp.MustCompile(`^[A-Za-z0-9_+.#-]+$`)

	h3Pattern       = regexp.MustCompile(`(?m)^### (.*)$`)
	h2Pattern       = regexp.MustCompile(`(?m)^## (.*)$`)
	h1Pattern       = regexp.MustCompile(`(?m)^# (.*)$`)
	hrPattern       = regexp.MustCompile(`(?m)^---$`)
	bulletPattern   = regexp.MustCompile(`(?m)^\* (.*)$`)
	numberedPattern = regexp.MustCompile(`(?m)^\d+\. (.*)$`)

	codePattern   = regexp.MustCompile("`([^`\n]+)`")
	boldPattern   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicPattern = regexp.MustCompile(`\*(.+?)\*`)
)

// Renderer converts the small markdown dialect used by the blog into HTML.
//
// Only code (fenced and inline) is HTML-escaped; prose passes through as written,
// so raw markup in a post reaches the page unchanged.
type Renderer struct {
	orderedLists bool
}

type Option func(*Renderer)

// WithOrderedLists renders a run made only of numbered items as <ol>. Without it
// numbered and bulleted items collapse into the same <ul>.
func WithOrderedLists(enabled bool) Option {
	return func(r *Renderer) {
		r.orderedLists = enabled
	}
}

func New(opts ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRenderer = New()

// Render uses the default renderer.
func Render(markdown string) string {
	return defaultRenderer.Render(markdown)
}

// Render never fails: syntax it does not recognize ends up as paragraph text.
func (r *Renderer) Render(markdown string) string {
	text := strings.ReplaceAll(markdown, "\r\n", "\n")

	// Private markers cannot collide with anything in the source.
	prefix := uniquePrefix(text)
	fenceToken := prefix + "F"
	codeToken := prefix + "C"
	orderedMark := prefix + "ol"

	text, fences := extractFences(text, fenceToken)
	text = blockTransforms(text, orderedMark)
	text = inlineTransforms(text, codeToken)
	text = wrapParagraphs(text, fenceToken, orderedMark)
	text = r.groupLists(text, orderedMark)

	for i, block := range fences {
		text = strings.Replace(text, token(fenceToken, i), block, 1)
	}

	return text
}

func extractFences(text, fenceToken string) (string, []string) {
	var blocks []string

	text = fencePattern.ReplaceAllStringFunc(text, func(match string) string {
		body := match[3 : len(match)-3]
		language := ""

		if nl := strings.IndexByte(body, '\n'); nl >= 0 {
			first := strings.TrimSpace(body[:nl])
			if first == "" || infoStringPattern.MatchString(first) {
				language = first
				body = body[nl+1:]
			}
		}
		body = strings.TrimSuffix(body, "\n")

		var b strings.Builder
		b.WriteString("<pre><code")
		if language != "" {
			b.WriteString(` class="language-`)
			b.WriteString(Escape(language))
			b.WriteString(`"`)
		}
		b.WriteString(">")
		b.WriteString(Escape(body))
		b.WriteString("</code></pre>")

		blocks = append(blocks, b.String())
		return token(fenceToken, len(blocks)-1)
	})

	return text, blocks
}

func blockTransforms(text, orderedMark string) string {
	text = h3Pattern.ReplaceAllString(text, "<h3>$1</h3>")
	text = h2Pattern.ReplaceAllString(text, "<h2>$1</h2>")
	text = h1Pattern.ReplaceAllString(text, "<h1>$1</h1>")
	text = hrPattern.ReplaceAllString(text, "<hr>")
	text = bulletPattern.ReplaceAllString(text, "<li>$1</li>")
	text = numberedPattern.ReplaceAllString(text, "<li"+escapeReplacement(orderedMark)+">$1</li>")
	return text
}

func inlineTransforms(text, codeToken string) string {
	// Inline code is parked first so emphasis markers inside it stay literal.
	var spans []string
	text = codePattern.ReplaceAllStringFunc(text, func(match string) string {
		spans = append(spans, "<code>"+Escape(match[1:len(match)-1])+"</code>")
		return token(codeToken, len(spans)-1)
	})

	text = boldPattern.ReplaceAllString(text, "<strong>$1</strong>")
	text = italicPattern.ReplaceAllString(text, "<em>$1</em>")

	for i, span := range spans {
		text = strings.Replace(text, token(codeToken, i), span, 1)
	}
	return text
}

func wrapParagraphs(text, fenceToken, orderedMark string) string {
	blocks := strings.Split(text, "\n\n")
	out := make([]string, 0, len(blocks))

	for _, block := range blocks {
		block = strings.Trim(block, "\n")
		switch {
		case strings.TrimSpace(block) == "":
			continue
		case isBlockElement(block, fenceToken, orderedMark):
			out = append(out, block)
		default:
			out = append(out, "<p>"+block+"</p>")
		}
	}

	return strings.Join(out, "\n")
}

func isBlockElement(block, fenceToken, orderedMark string) bool {
	prefixes := []string{"<h1>", "<h2>", "<h3>", "<hr>", "<li>", "<li" + orderedMark + ">", fenceToken}
	for _, prefix := range prefixes {
		if strings.HasPrefix(block, prefix) {
			return true
		}
	}
	return false
}

func (r *Renderer) groupLists(text, orderedMark string) string {
	bulletOpen := "<li>"
	orderedOpen := "<li" + orderedMark + ">"
	listPattern := regexp.MustCompile(`(?:<li(?:` + regexp.QuoteMeta(orderedMark) + `)?>.*</li>\n?)+`)

	text = listPattern.ReplaceAllStringFunc(text, func(run string) string {
		tag := "ul"
		if r.orderedLists && !strings.Contains(run, bulletOpen) {
			tag = "ol"
		}

		trailing := ""
		if strings.HasSuffix(run, "\n") {
			run = strings.TrimSuffix(run, "\n")
			trailing = "\n"
		}

		run = strings.ReplaceAll(run, orderedOpen, bulletOpen)
		return "<" + tag + ">" + run + "</" + tag + ">" + trailing
	})

	return strings.ReplaceAll(text, orderedOpen, bulletOpen)
}

func uniquePrefix(text string) string {
	prefix := "\x00md"
	for strings.Contains(text, prefix) {
		prefix += "\x00"
	}
	return prefix
}

func token(prefix string, i int) string {
	return prefix + strconv.Itoa(i) + "\x00"
}

// escapeReplacement guards '$' for use inside a regexp replacement template.
func escapeReplacement(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}
