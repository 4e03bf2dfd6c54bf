package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIClient talks to OpenAI-compatible endpoints through the official SDK.
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient creates an SDK-backed completer for baseURL.
func NewOpenAIClient(baseURL, apiKey string, hc *http.Client, headers map[string]string) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(1),
	}
	if hc != nil {
		opts = append(opts, option.WithHTTPClient(hc))
	}
	for k, v := range headers {
		opts = append(opts, option.WithHeader(k, v))
	}
	return &OpenAIClient{client: openai.NewClient(opts...)}
}

// toOpenAIMessages converts log entries to SDK message params.
func toOpenAIMessages(entries []Entry) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, len(entries))
	for i, e := range entries {
		switch e.Role {
		case RoleSystem:
			out[i] = openai.SystemMessage(e.Content)
		case RoleAssistant:
			out[i] = openai.AssistantMessage(e.Content)
		default:
			out[i] = openai.UserMessage(e.Content)
		}
	}
	return out
}

func (c *OpenAIClient) Complete(ctx context.Context, model string, entries []Entry) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: toOpenAIMessages(entries),
		Model:    openai.ChatModel(model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) ListModels(ctx context.Context) ([]string, error) {
	page, err := c.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}
