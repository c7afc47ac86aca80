package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yashsmehta/auto-apply/internal/helpers"
	"github.com/yashsmehta/auto-apply/models"
)

// HTTPFetcher retrieves pages over plain HTTP. It upgrades http:// targets
// to https://, retries transient failures and extracts text from PDF
// responses so info pages published as handouts still work.
type HTTPFetcher struct {
	client  *resty.Client
	timeout time.Duration
}

// NewHTTPFetcher builds an HTTP fetcher from cfg, filling defaults for zero
// values.
func NewHTTPFetcher(cfg Config) *HTTPFetcher {
	cfg = cfg.withDefaults()
	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetRetryCount(cfg.RetryCount)
	client.SetHeader("User-Agent", cfg.UserAgent)
	return &HTTPFetcher{client: client, timeout: cfg.Timeout}
}

// Fetch validates rawURL, upgrades it to https and retrieves the page body.
// PDF responses are converted to plain text before returning.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Result, error) {
	start := time.Now()

	if err := helpers.ValidateURL(rawURL); err != nil {
		return Result{URL: rawURL}, models.NewStageError(
			models.ErrorKindValidation, "",
			fmt.Sprintf("Invalid URL: %v", err),
			time.Since(start), err)
	}
	target := helpers.PreferHTTPS(rawURL)

	resp, err := f.client.R().SetContext(ctx).Get(target)
	elapsed := time.Since(start)
	if err != nil {
		kind := classifyTransport(err)
		msg := fmt.Sprintf("Failed to scrape %s: %v", target, err)
		if kind == models.ErrorKindTimeout {
			msg = fmt.Sprintf("Request timed out after %s", f.timeout)
		}
		return Result{URL: target, ElapsedMS: int(elapsed / time.Millisecond)},
			models.NewStageError(kind, "", msg, elapsed, err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return Result{URL: target, Status: status, ElapsedMS: int(elapsed / time.Millisecond)},
			models.NewStageError(models.ErrorKindScrapeFailed, "",
				fmt.Sprintf("Failed to scrape %s: status %d", target, status),
				elapsed, nil)
	}

	content := resp.String()
	contentType := resp.Header().Get("Content-Type")
	if isPDF(contentType, target) {
		text, perr := extractPDFText(resp.Body())
		if perr != nil {
			return Result{URL: target, Status: status, ContentType: contentType, ElapsedMS: int(elapsed / time.Millisecond)},
				models.NewStageError(models.ErrorKindScrapeFailed, "",
					fmt.Sprintf("Failed to extract PDF text from %s: %v", target, perr),
					elapsed, perr)
		}
		content = text
	}

	if strings.TrimSpace(content) == "" {
		return Result{URL: target, Status: status, ContentType: contentType, ElapsedMS: int(elapsed / time.Millisecond)},
			models.NewStageError(models.ErrorKindScrapeFailed, "",
				fmt.Sprintf("Failed to scrape %s: empty response body", target),
				elapsed, nil)
	}

	return Result{
		URL:         target,
		Content:     content,
		ContentType: contentType,
		Status:      status,
		ElapsedMS:   int(elapsed / time.Millisecond),
	}, nil
}
