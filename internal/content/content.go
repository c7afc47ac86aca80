// Package content prepares fetched pages for prompting: it reduces article
// pages to readable text, reduces form pages to the markup that matters, and
// bounds both so prompts stay within model limits.
package content

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const (
	// MaxPageChars bounds the content kept from a fetched page.
	MaxPageChars = 8000
	// MaxPromptChars bounds the content inlined into a single prompt.
	MaxPromptChars = 5000
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// PrepareInfo turns an informational page into readable plain text. It runs
// readability extraction first and falls back to stripping tags when the
// page has no identifiable article body. The result is whitespace-collapsed
// and capped at MaxPageChars.
func PrepareInfo(html, pageURL string) string {
	html = strings.TrimSpace(html)
	if html == "" {
		return ""
	}
	text := ""
	if article, err := readability.FromReader(strings.NewReader(html), mustParseURL(pageURL)); err == nil {
		text = strings.TrimSpace(article.TextContent)
	}
	if text == "" {
		text = SanitizeHTMLStrict(html)
	}
	return Truncate(CollapseWhitespace(text), MaxPageChars)
}

// PrepareForm reduces an application page to the markup a model needs to
// enumerate its fields. When the page contains a <form>, only the first form
// is kept; otherwise the whole body is used. Scripts, styles and event
// handlers are removed, the rest is sanitized down to structural and form
// elements, and the output is capped at MaxPageChars.
func PrepareForm(html string) string {
	html = strings.TrimSpace(html)
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Truncate(CollapseWhitespace(SanitizeFormHTML(html)), MaxPageChars)
	}
	doc.Find("script, style, noscript, iframe, svg").Remove()

	markup := ""
	if form := doc.Find("form").First(); form.Length() > 0 {
		if h, err := goquery.OuterHtml(form); err == nil {
			markup = h
		}
	}
	if markup == "" {
		if h, err := doc.Find("body").Html(); err == nil && strings.TrimSpace(h) != "" {
			markup = h
		}
	}
	if markup == "" {
		markup = html
	}
	return Truncate(CollapseWhitespace(SanitizeFormHTML(markup)), MaxPageChars)
}

// CollapseWhitespace folds runs of whitespace (including newlines inside
// minified markup) into single spaces and trims the ends.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Truncate cuts s to at most max bytes without splitting a UTF-8 sequence
// and without leaving a dangling open tag: when the cut lands inside markup
// (a '<' with no closing '>' after it) the tail is dropped back to the last
// complete tag.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	out := s[:cut]
	if open := strings.LastIndex(out, "<"); open > strings.LastIndex(out, ">") {
		out = out[:open]
	}
	return strings.TrimSpace(out)
}

// Chunk splits text into pieces of at most size bytes, preferring paragraph
// boundaries (blank lines). A single paragraph longer than size is split
// hard. Empty input yields no chunks.
func Chunk(text string, size int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if size <= 0 || len(text) <= size {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) > size {
			flush()
			for len(para) > size {
				cut := size
				for cut > 0 && !utf8.RuneStart(para[cut]) {
					cut--
				}
				chunks = append(chunks, para[:cut])
				para = para[cut:]
			}
			if para != "" {
				current.WriteString(para)
			}
			continue
		}
		if current.Len() > 0 && current.Len()+len(para)+2 > size {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()
	return chunks
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
