// Package youtube loads video transcripts. A video without a
// transcript in the requested language is an ingestion failure, never
// a partial or empty document; a missing title or author only falls
// back to placeholder values.
package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/piyushgoswami015/CorthyxAI/internal/core/domain"
	"github.com/piyushgoswami015/CorthyxAI/internal/core/ports/driven"
	"github.com/piyushgoswami015/CorthyxAI/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Default configuration values.
const (
	DefaultLanguage = "en"
	DefaultTimeout  = 30 * time.Second
)

// Endpoint bases, overridable in tests.
var (
	transcriptBaseURL = "https://video.google.com/timedtext"
	oembedBaseURL     = "https://www.youtube.com/oembed"
)

// Config holds configuration for the YouTube loader.
type Config struct {
	// Language is the transcript language to request (default: en).
	Language string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// Loader fetches video transcripts and basic video metadata.
type Loader struct {
	client   *http.Client
	language string
}

// New creates a new YouTube loader.
func New(cfg Config) *Loader {
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Loader{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		language: cfg.Language,
	}
}

// Type returns the source type this loader handles.
func (l *Loader) Type() domain.SourceType {
	return domain.SourceYouTube
}

// Load fetches the transcript for the video behind the URL. Title and
// author come from the oEmbed endpoint; their absence never blocks
// ingestion.
func (l *Loader) Load(ctx context.Context, videoURL string) (*domain.Document, error) {
	videoID, err := VideoID(videoURL)
	if err != nil {
		return nil, err
	}

	transcript, err := l.fetchTranscript(ctx, videoID)
	if err != nil {
		return nil, err
	}

	title, author := l.fetchVideoInfo(ctx, videoURL)

	meta := make(map[string]any)
	if title != "" {
		meta[driven.MetaTitle] = title
	}
	if author != "" {
		meta[driven.MetaAuthor] = author
	}

	return &domain.Document{
		Content:  transcript,
		Title:    title,
		Metadata: meta,
	}, nil
}

// videoIDPattern matches a bare 11-character video identifier.
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// VideoID extracts the video identifier from the common YouTube URL
// shapes: watch?v=, youtu.be/, /embed/ and /shorts/.
func VideoID(videoURL string) (string, error) {
	u, err := url.Parse(videoURL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid URL %q", domain.ErrInvalidInput, videoURL)
	}

	var id string
	switch {
	case strings.HasSuffix(u.Host, "youtu.be"):
		id = strings.Trim(u.Path, "/")
	case strings.HasPrefix(u.Path, "/embed/"):
		id = strings.TrimPrefix(u.Path, "/embed/")
	case strings.HasPrefix(u.Path, "/shorts/"):
		id = strings.TrimPrefix(u.Path, "/shorts/")
	default:
		id = u.Query().Get("v")
	}
	id = strings.Trim(id, "/")

	if !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: no video ID in %q", domain.ErrInvalidInput, videoURL)
	}
	return id, nil
}

// transcriptXML is the timedtext response format.
type transcriptXML struct {
	Texts []struct {
		Start string `xml:"start,attr"`
		Body  string `xml:",chardata"`
	} `xml:"text"`
}

// fetchTranscript downloads the timed-text transcript for the video.
// An empty response means the video has no transcript in the requested
// language.
func (l *Loader) fetchTranscript(ctx context.Context, videoID string) (string, error) {
	endpoint := fmt.Sprintf("%s?lang=%s&v=%s", transcriptBaseURL, url.QueryEscape(l.language), url.QueryEscape(videoID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch transcript: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: transcript request returned status %d", domain.ErrNoTranscript, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", fmt.Errorf("%w: video %s has no %q transcript", domain.ErrNoTranscript, videoID, l.language)
	}

	var parsed transcriptXML
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse transcript: %w", err)
	}
	if len(parsed.Texts) == 0 {
		return "", fmt.Errorf("%w: video %s has no %q transcript", domain.ErrNoTranscript, videoID, l.language)
	}

	parts := make([]string, 0, len(parsed.Texts))
	for _, t := range parsed.Texts {
		line := strings.TrimSpace(html.UnescapeString(t.Body))
		if line != "" {
			parts = append(parts, line)
		}
	}

	return strings.Join(parts, " "), nil
}

// oembedResponse is the subset of the oEmbed payload we use.
type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

// fetchVideoInfo asks the oEmbed endpoint for title and author.
// Failures are logged and swallowed: the ingestion service substitutes
// placeholder values.
func (l *Loader) fetchVideoInfo(ctx context.Context, videoURL string) (title, author string) {
	endpoint := fmt.Sprintf("%s?url=%s&format=json", oembedBaseURL, url.QueryEscape(videoURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return "", ""
	}

	resp, err := l.client.Do(req)
	if err != nil {
		logger.Warn("Video info lookup failed: %v", err)
		return "", ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("Video info lookup returned status %d", resp.StatusCode)
		return "", ""
	}

	var info oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		logger.Warn("Video info decode failed: %v", err)
		return "", ""
	}

	return info.Title, info.AuthorName
}
