// internal/providers/openai.go
package providers

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type CompletionRequest struct {
	APIKey       string
	Model        string
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	Temperature  float32
	N            int
}

type CompletionResult struct {
	Choices      []string
	InputTokens  int
	OutputTokens int
}

// OpenAIClient is a stateless chat-completion adapter. A client is built per
// call because the API key varies per user (personal key vs system key).
type OpenAIClient struct {
	defaultModel string
}

func NewOpenAIClient(defaultModel string) *OpenAIClient {
	return &OpenAIClient{defaultModel: defaultModel}
}

func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return CompletionResult{}, NotConfigured("openai")
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	n := req.N
	if n < 1 {
		n = 1
	}

	messages := []openai.ChatCompletionMessage{}
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	apiReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		N:        n,
	}
	if req.MaxTokens > 0 {
		apiReq.MaxTokens = req.MaxTokens
	}
	// go-openai omits a zero temperature from the request body; an epsilon
	// keeps the deterministic-extraction intent.
	if req.Temperature <= 0 {
		apiReq.Temperature = 1e-8
	} else {
		apiReq.Temperature = req.Temperature
	}

	client := openai.NewClient(req.APIKey)
	resp, err := client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return CompletionResult{}, External("openai", "chat completion", err)
	}

	if len(resp.Choices) == 0 {
		return CompletionResult{}, External("openai", "chat completion", errEmptyChoices)
	}

	choices := make([]string, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		choices = append(choices, strings.TrimSpace(choice.Message.Content))
	}

	return CompletionResult{
		Choices:      choices,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}
