package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/mfenderov/docsearch/pkg/models"
)

// Config holds scraper configuration.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// ReaderPrefix is prepended to every URL, e.g. https://r.jina.ai/
	// to fetch a reader-mode Markdown rendering. Empty fetches directly.
	ReaderPrefix string
	// MaxBodySize caps the response body in bytes. Zero means unlimited.
	MaxBodySize int
}

// StatusError reports a page that answered with an HTTP error status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// Scraper fetches single web pages.
type Scraper struct {
	config Config
}

// New creates a new Scraper with the given configuration.
func New(config Config) *Scraper {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "docsearch/1.0"
	}
	return &Scraper{config: config}
}

// TargetURL returns the URL actually requested for pageURL.
func (s *Scraper) TargetURL(pageURL string) string {
	if s.config.ReaderPrefix == "" {
		return pageURL
	}
	return strings.TrimSuffix(s.config.ReaderPrefix, "/") + "/" + pageURL
}

// FetchPage retrieves one page without following links.
// Status codes of 400 and above return a *StatusError.
func (s *Scraper) FetchPage(ctx context.Context, pageURL string) (*models.Page, error) {
	if pageURL == "" {
		return nil, fmt.Errorf("url is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target := s.TargetURL(pageURL)
	slog.Debug("fetching page", "url", pageURL, "target", target)

	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.UserAgent(s.config.UserAgent),
	)
	c.SetRequestTimeout(s.config.Timeout)
	c.MaxBodySize = s.config.MaxBodySize

	var (
		page     *models.Page
		fetchErr error
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			slog.Debug("fetch cancelled", "url", r.URL.String())
			r.Abort()
		}
	})

	c.OnResponse(func(r *colly.Response) {
		page = &models.Page{
			URL:         pageURL,
			Content:     string(r.Body),
			ContentType: r.Headers.Get("Content-Type"),
			FetchedAt:   time.Now(),
		}
		slog.Debug("fetched page", "url", pageURL, "content_type", page.ContentType, "size", len(page.Content))
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode >= 400 {
			fetchErr = &StatusError{URL: target, StatusCode: r.StatusCode}
			return
		}
		fetchErr = err
	})

	if err := c.Visit(target); err != nil && fetchErr == nil {
		fetchErr = err
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fetchErr != nil {
		var statusErr *StatusError
		if errors.As(fetchErr, &statusErr) {
			return nil, fetchErr
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", target, fetchErr)
	}
	if page == nil {
		return nil, fmt.Errorf("failed to fetch %s: no response", target)
	}

	return page, nil
}
