// internal/providers/browser.go
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/catalogo-hub/catalogo-backend/internal/config"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// PageFetcher renders product pages. When a Browserless-style render service
// is configured the page is loaded with full JS execution and network-idle
// wait; otherwise it falls back to a static fetch, which is enough for
// server-rendered stores.
type PageFetcher struct {
	renderURL  string
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

func NewPageFetcher(cfg config.BrowserConfig) *PageFetcher {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PageFetcher{
		renderURL:  cfg.RenderURL,
		token:      cfg.Token,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Render returns the fully-loaded HTML of the page, or an ErrExternal
// failure. The hard timeout applies per page.
func (f *PageFetcher) Render(ctx context.Context, pageURL string) (string, error) {
	if f.renderURL != "" {
		return f.renderHeadless(ctx, pageURL)
	}
	return f.fetchStatic(pageURL)
}

func (f *PageFetcher) renderHeadless(ctx context.Context, pageURL string) (string, error) {
	reqBody, err := json.Marshal(map[string]interface{}{
		"url": pageURL,
		"gotoOptions": map[string]interface{}{
			"waitUntil": "networkidle2",
			"timeout":   f.timeout.Milliseconds(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal render request: %w", err)
	}

	endpoint := f.renderURL + "/content"
	if f.token != "" {
		endpoint += "?token=" + f.token
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", External("browserless", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", External("browserless", "render", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", External("browserless", "read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", External("browserless", "render",
			fmt.Errorf("status %d: %s", resp.StatusCode, truncateForError(body)))
	}

	return string(body), nil
}

func (f *PageFetcher) fetchStatic(pageURL string) (string, error) {
	var content string

	c := colly.NewCollector(
		colly.UserAgent(defaultUserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(f.timeout)

	c.OnResponse(func(r *colly.Response) {
		content = string(r.Body)
	})

	if err := c.Visit(pageURL); err != nil {
		return "", External("fetch", "visit", err)
	}

	return content, nil
}

func truncateForError(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
