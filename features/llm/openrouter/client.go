// Package openrouter adapts the OpenRouter chat completion API (an
// OpenAI-compatible surface) to the executor LLM seam. Model aliases
// from the node palette are routed to concrete OpenRouter model ids.
package openrouter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/autoflow/autoflow/runtime/workflow/nodes"
)

// Client implements nodes.LLM. The API key arrives per call because it
// is resolved per user by the credential broker.
type Client struct {
	baseURL     string
	maxTokens   int
	temperature float32
}

// Options configures New.
type Options struct {
	// BaseURL overrides the OpenRouter endpoint, mainly for tests.
	BaseURL string
	// MaxTokens caps completions. Defaults to 1000.
	MaxTokens int
	// Temperature defaults to 0.7.
	Temperature float32
}

const defaultBaseURL = "https://openrouter.ai/api/v1"

// modelAliases maps palette names to OpenRouter model ids, longest
// alias first so prefix matching stays deterministic. Unknown names
// pass through unchanged.
var modelAliases = []struct{ alias, model string }{
	{"gpt-3.5", "openai/gpt-3.5-turbo"},
	{"gpt-4", "openai/gpt-4o"},
	{"gpt", "openai/gpt-4o"},
	{"llama", "meta-llama/llama-3-8b-instruct"},
	{"claude", "anthropic/claude-3-opus"},
	{"gemini", "google/gemini-pro"},
	{"mistral", "mistral/mistral-7b-instruct"},
}

// New builds a client.
func New(opts Options) *Client {
	c := &Client{
		baseURL:     opts.BaseURL,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.maxTokens == 0 {
		c.maxTokens = 1000
	}
	if c.temperature == 0 {
		c.temperature = 0.7
	}
	return c
}

// Complete implements nodes.LLM.
func (c *Client) Complete(ctx context.Context, req nodes.CompletionRequest) (string, error) {
	if req.APIKey == "" {
		return "", errors.New("missing API key")
	}
	cfg := openai.DefaultConfig(req.APIKey)
	cfg.BaseURL = c.baseURL
	client := openai.NewClientWithConfig(cfg)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: RouteModel(req.Model),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// RouteModel resolves a palette alias to its OpenRouter model id.
func RouteModel(model string) string {
	low := strings.ToLower(strings.TrimSpace(model))
	if low == "" {
		return "meta-llama/llama-3-8b-instruct"
	}
	for _, a := range modelAliases {
		if low == a.alias || strings.HasPrefix(low, a.alias+"-") {
			return a.model
		}
	}
	return model
}
