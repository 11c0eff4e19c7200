// internal/providers/search.go
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/catalogo-hub/catalogo-backend/internal/config"
)

// SearchClient queries the Serper web-search API for candidate URLs.
// Serper has no Go SDK; the request is built by hand.
type SearchClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func NewSearchClient(cfg config.SearchConfig) *SearchClient {
	return &SearchClient{
		apiKey:   cfg.APIKey,
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Search returns up to n result URLs for the query, best ranked first.
func (c *SearchClient) Search(ctx context.Context, query string, n int) ([]string, error) {
	if c.apiKey == "" {
		return nil, NotConfigured("serper")
	}

	reqBody, err := json.Marshal(map[string]interface{}{
		"q":   query,
		"num": n,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, External("serper", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, External("serper", "search", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, External("serper", "read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, External("serper", "search",
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	var parsed struct {
		Organic []struct {
			Link string `json:"link"`
		} `json:"organic"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, External("serper", "parse response", err)
	}

	urls := make([]string, 0, len(parsed.Organic))
	for _, item := range parsed.Organic {
		if item.Link == "" {
			continue
		}
		urls = append(urls, item.Link)
		if len(urls) >= n {
			break
		}
	}

	return urls, nil
}
