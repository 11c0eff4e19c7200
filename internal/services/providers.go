// internal/services/providers.go
package services

import (
	"context"

	"github.com/catalogo-hub/catalogo-backend/internal/providers"
)

// Provider ports consumed by the orchestrators. The concrete adapters live
// in internal/providers; tests substitute fakes.

type WebSearcher interface {
	Search(ctx context.Context, query string, n int) ([]string, error)
}

type PageRenderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

type Completer interface {
	Complete(ctx context.Context, req providers.CompletionRequest) (providers.CompletionResult, error)
}

// estimateCost approximates USD cost from token counts. Prices are per
// million tokens (input, output).
func estimateCost(model string, inputTokens, outputTokens int) float64 {
	type pricing struct{ input, output float64 }
	prices := map[string]pricing{
		"gpt-4o-mini": {0.15, 0.60},
		"gpt-4o":      {2.50, 10.00},
		"gpt-4.1":     {2.00, 8.00},
	}

	p, ok := prices[model]
	if !ok {
		return 0
	}
	return (float64(inputTokens)*p.input + float64(outputTokens)*p.output) / 1e6
}
