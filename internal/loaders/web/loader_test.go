package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piyushgoswami015/CorthyxAI/internal/core/domain"
	"github.com/piyushgoswami015/CorthyxAI/internal/core/ports/driven"
)

const testPage = `<!DOCTYPE html>
<html>
<head><title>Acme &amp; Co</title><style>body { color: red }</style></head>
<body>
<script>console.log("noise")</script>
<h1>Welcome</h1>
<p>We sell widgets.</p>
<a href="/pricing">Pricing</a>
<a href="https://partner.example.org/about">Our <b>partner</b></a>
<a href="#section">Skip</a>
<a href="javascript:void(0)">Click</a>
<a href="contact.html"></a>
</body>
</html>`

func TestLoader_Type(t *testing.T) {
	assert.Equal(t, domain.SourceWebsite, New(Config{}).Type())
}

func TestLoader_Load(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, testPage)
	}))
	defer srv.Close()

	loader := New(Config{RequestsPerSecond: 100})
	doc, err := loader.Load(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Acme & Co", doc.Title)
	assert.Equal(t, "Acme & Co", doc.Metadata[driven.MetaTitle])
	assert.Equal(t, 3, doc.Metadata[driven.MetaLinksCount])

	assert.Contains(t, doc.Content, "Welcome")
	assert.Contains(t, doc.Content, "We sell widgets.")
	assert.NotContains(t, doc.Content, "console.log")
	assert.NotContains(t, doc.Content, "color: red")

	assert.Contains(t, doc.Content, "=== LINKS FOUND ON THIS PAGE ===")
	assert.Contains(t, doc.Content, "- Pricing: "+srv.URL+"/pricing")
	assert.Contains(t, doc.Content, "- Our partner: https://partner.example.org/about")
	// Anchor with no text falls back to the URL.
	assert.Contains(t, doc.Content, srv.URL+"/contact.html")
	assert.NotContains(t, doc.Content, "javascript:")
}

func TestLoader_Load_NoLinksNoSection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html><body><p>Plain text only.</p></body></html>")
	}))
	defer srv.Close()

	loader := New(Config{RequestsPerSecond: 100})
	doc, err := loader.Load(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.NotContains(t, doc.Content, "LINKS FOUND")
	assert.Equal(t, 0, doc.Metadata[driven.MetaLinksCount])
}

func TestLoader_Load_InvalidURL(t *testing.T) {
	loader := New(Config{})

	_, err := loader.Load(context.Background(), "not a url")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = loader.Load(context.Background(), "/relative/only")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoader_Load_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	loader := New(Config{RequestsPerSecond: 100})
	_, err := loader.Load(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestExtractLinks(t *testing.T) {
	base, _ := url.Parse("https://example.com/docs/")

	links := ExtractLinks(`<a href="page.html">Page</a>
<a href='/root.html'>Root</a>
<a href=bare.html>Bare</a>
<a href="#frag">Frag</a>
<a href="https://other.org/x">Other</a>`, base)

	require.Len(t, links, 4)
	assert.Equal(t, Link{Text: "Page", URL: "https://example.com/docs/page.html"}, links[0])
	assert.Equal(t, Link{Text: "Root", URL: "https://example.com/root.html"}, links[1])
	assert.Equal(t, Link{Text: "Bare", URL: "https://example.com/docs/bare.html"}, links[2])
	assert.Equal(t, Link{Text: "Other", URL: "https://other.org/x"}, links[3])
}

func TestExtractLinks_KeepsDuplicatesAndOrder(t *testing.T) {
	base, _ := url.Parse("https://example.com/")

	links := ExtractLinks(strings.Repeat(`<a href="/a">A</a>`, 3), base)
	require.Len(t, links, 3)
	for _, l := range links {
		assert.Equal(t, "https://example.com/a", l.URL)
	}
}

func TestStripHTML_BlockBoundaries(t *testing.T) {
	got := stripHTML("<div>first</div><div>second</div>")
	assert.Equal(t, "first\nsecond", got)
}
