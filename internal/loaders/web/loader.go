// Package web loads and normalises web pages, including the links they
// contain, so "what links are on this page" questions stay answerable
// after ingestion.
package web

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/piyushgoswami015/CorthyxAI/internal/core/domain"
	"github.com/piyushgoswami015/CorthyxAI/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond keeps page fetching polite.
	DefaultRequestsPerSecond = 2

	// maxBodyBytes caps how much HTML is read from one page.
	maxBodyBytes = 10 << 20
)

// linksHeader introduces the extracted-links section appended to the
// page text before chunking. The synthesis prompt can point users at
// it verbatim.
const linksHeader = "=== LINKS FOUND ON THIS PAGE ==="

// Config holds configuration for the web loader.
type Config struct {
	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond limits outgoing fetches (default: 2).
	RequestsPerSecond float64
}

// Loader fetches a page, strips it to text and appends the links found
// on it.
type Loader struct {
	client  *http.Client
	limiter *rate.Limiter
}

// Link is one anchor extracted from a page, in document order.
type Link struct {
	// Text is the anchor text, or the URL when the anchor is empty.
	Text string

	// URL is the resolved absolute URL.
	URL string
}

// New creates a new web loader.
func New(cfg Config) *Loader {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	return &Loader{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// Type returns the source type this loader handles.
func (l *Loader) Type() domain.SourceType {
	return domain.SourceWebsite
}

// Load fetches the page, extracts its text and links, and returns a
// document whose content ends with the literal links section when any
// links were found.
func (l *Loader) Load(ctx context.Context, pageURL string) (*domain.Document, error) {
	base, err := url.Parse(pageURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid URL %q", domain.ErrInvalidInput, pageURL)
	}

	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "corthyx/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pageURL, err)
	}

	rawHTML := string(body)
	title := extractTitle(rawHTML)
	content := stripHTML(rawHTML)
	links := ExtractLinks(rawHTML, base)

	if len(links) > 0 {
		var b strings.Builder
		b.WriteString(content)
		b.WriteString("\n\n" + linksHeader + "\n")
		for _, link := range links {
			b.WriteString("- " + link.Text + ": " + link.URL + "\n")
		}
		content = strings.TrimRight(b.String(), "\n")
	}

	return &domain.Document{
		Content: content,
		Title:   title,
		Metadata: map[string]any{
			driven.MetaTitle:      title,
			driven.MetaLinksCount: len(links),
		},
	}, nil
}

// Pre-compiled regular expressions for HTML parsing.
var (
	titleTag      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	anchorTag     = regexp.MustCompile(`(?is)<a\s[^>]*?href\s*=\s*("([^"]*)"|'([^']*)'|([^\s>]+))[^>]*>(.*?)</a>`)
	scriptTag     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag   = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag       = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag        = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments  = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	allTags       = regexp.MustCompile(`<[^>]+>`)
	multiSpaces   = regexp.MustCompile(`[ \t]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// ExtractLinks pulls every usable anchor out of the raw HTML, in
// document order. Relative hrefs resolve against the page URL,
// absolute and scheme-relative hrefs pass through, and in-page anchors
// and javascript pseudo-links are discarded. Duplicates are kept.
func ExtractLinks(rawHTML string, base *url.URL) []Link {
	matches := anchorTag.FindAllStringSubmatch(rawHTML, -1)
	links := make([]Link, 0, len(matches))

	for _, m := range matches {
		href := m[2]
		if href == "" {
			href = m[3]
		}
		if href == "" {
			href = m[4]
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		absolute := base.ResolveReference(ref).String()

		text := cleanAnchorText(m[5])
		if text == "" {
			text = absolute
		}

		links = append(links, Link{Text: text, URL: absolute})
	}

	return links
}

// cleanAnchorText strips markup inside an anchor and collapses
// whitespace to one line.
func cleanAnchorText(inner string) string {
	text := allTags.ReplaceAllString(inner, " ")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}

// extractTitle returns the page title, or empty when the page has none.
func extractTitle(rawHTML string) string {
	matches := titleTag.FindStringSubmatch(rawHTML)
	if len(matches) > 1 {
		return strings.TrimSpace(html.UnescapeString(matches[1]))
	}
	return ""
}

// stripHTML removes markup and extracts readable text content.
func stripHTML(rawHTML string) string {
	content := scriptTag.ReplaceAllString(rawHTML, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = svgTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")

	// Block element boundaries become newlines for readability.
	content = blockElements.ReplaceAllString(content, "\n")
	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	content = multiSpaces.ReplaceAllString(content, " ")
	content = multiNewlines.ReplaceAllString(content, "\n\n")

	lines := strings.Split(content, "\n")
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
