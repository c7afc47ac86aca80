// Package fetch retrieves application pages. The plain HTTP fetcher covers
// static pages and PDF handouts; the browser fetcher renders script-heavy
// pages through headless Chrome. Both classify failures into the error kinds
// that end up on processing reports.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/yashsmehta/auto-apply/models"
)

const (
	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent identifies the fetcher to target sites. Some
	// application portals block obvious bot agents, so a browser UA is used.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

// Result is a fetched page.
type Result struct {
	URL         string `json:"url"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
	Status      int    `json:"status"`
	ElapsedMS   int    `json:"elapsed_ms"`
	FromCache   bool   `json:"from_cache"`
}

// Fetcher retrieves a single page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Result, error)
}

// Mode selects a fetcher implementation.
type Mode string

const (
	ModeHTTP    Mode = "http"
	ModeBrowser Mode = "browser"
)

// Config carries the knobs shared by all fetcher implementations.
type Config struct {
	Timeout    time.Duration
	RetryCount int
	UserAgent  string
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}

// New creates a fetcher for the requested mode.
func New(mode Mode, cfg Config) (Fetcher, error) {
	switch mode {
	case ModeHTTP:
		return NewHTTPFetcher(cfg), nil
	case ModeBrowser:
		return NewBrowserFetcher(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported fetcher mode: %q", mode)
	}
}

// classifyTransport maps a transport-level failure onto a report error kind:
// deadline and i/o timeouts are timeout_error, everything else that happened
// before a response arrived is network_error.
func classifyTransport(err error) models.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.ErrorKindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return models.ErrorKindTimeout
	}
	return models.ErrorKindNetwork
}
