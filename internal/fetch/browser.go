package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/yashsmehta/auto-apply/internal/helpers"
	"github.com/yashsmehta/auto-apply/models"
)

// BrowserFetcher renders pages through headless Chrome so forms assembled by
// client-side javascript are visible. It returns the rendered outer HTML;
// content reduction happens downstream.
type BrowserFetcher struct {
	timeout   time.Duration
	userAgent string
}

// NewBrowserFetcher builds a browser fetcher from cfg, filling defaults for
// zero values.
func NewBrowserFetcher(cfg Config) *BrowserFetcher {
	cfg = cfg.withDefaults()
	return &BrowserFetcher{timeout: cfg.Timeout, userAgent: cfg.UserAgent}
}

// Fetch validates rawURL, upgrades it to https and renders the page.
func (f *BrowserFetcher) Fetch(ctx context.Context, rawURL string) (Result, error) {
	start := time.Now()

	if err := helpers.ValidateURL(rawURL); err != nil {
		return Result{URL: rawURL}, models.NewStageError(
			models.ErrorKindValidation, "",
			fmt.Sprintf("Invalid URL: %v", err),
			time.Since(start), err)
	}
	target := helpers.PreferHTTPS(rawURL)

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	html, err := f.renderHTML(ctx, target)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{URL: target, ElapsedMS: int(elapsed / time.Millisecond)},
				models.NewStageError(models.ErrorKindTimeout, "",
					fmt.Sprintf("Request timed out after %s", f.timeout),
					elapsed, err)
		}
		return Result{URL: target, ElapsedMS: int(elapsed / time.Millisecond)},
			models.NewStageError(models.ErrorKindScrapeFailed, "",
				fmt.Sprintf("Failed to scrape %s: %v", target, err),
				elapsed, err)
	}

	if strings.TrimSpace(html) == "" {
		return Result{URL: target, Status: 200, ElapsedMS: int(elapsed / time.Millisecond)},
			models.NewStageError(models.ErrorKindScrapeFailed, "",
				fmt.Sprintf("Failed to scrape %s: empty page", target),
				elapsed, nil)
	}

	return Result{
		URL:         target,
		Content:     html,
		ContentType: "text/html",
		Status:      200,
		ElapsedMS:   int(elapsed / time.Millisecond),
	}, nil
}

func (f *BrowserFetcher) renderHTML(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(f.userAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}
