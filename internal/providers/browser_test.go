// internal/providers/browser_test.go
package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogo-hub/catalogo-backend/internal/config"
)

func TestRenderHeadlessPostsToContentEndpoint(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte("<html><body>renderizado</body></html>"))
	}))
	defer server.Close()

	fetcher := NewPageFetcher(config.BrowserConfig{
		RenderURL:      server.URL,
		Token:          "tok123",
		TimeoutSeconds: 5,
	})

	html, err := fetcher.Render(context.Background(), "https://loja.example.com/produto")
	require.NoError(t, err)
	assert.Contains(t, html, "renderizado")
	assert.Equal(t, "/content?token=tok123", gotPath)
	assert.Equal(t, "https://loja.example.com/produto", gotBody["url"])

	gotoOptions, ok := gotBody["gotoOptions"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "networkidle2", gotoOptions["waitUntil"])
}

func TestRenderHeadlessErrorIsExternal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "browser pool exhausted", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := NewPageFetcher(config.BrowserConfig{RenderURL: server.URL, TimeoutSeconds: 5})
	_, err := fetcher.Render(context.Background(), "https://loja.example.com/produto")
	assert.ErrorIs(t, err, ErrExternal)
}

func TestStaticFetchReturnsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html><body><h1>pagina estatica</h1></body></html>"))
	}))
	defer server.Close()

	fetcher := NewPageFetcher(config.BrowserConfig{TimeoutSeconds: 5})
	html, err := fetcher.Render(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, html, "pagina estatica")
}
