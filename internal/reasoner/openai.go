// Package reasoner provides the OpenAI-compatible chat-completion
// backend used for adaptive scheduling and profile analysis.
package reasoner

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// Options configures the OpenAI-compatible backend. BaseURL may point
// at any compatible endpoint (a local server, a proxy); empty means the
// public API.
type Options struct {
	BaseURL string
	APIKey  string
	Model   string
}

// OpenAI sends prompts through an OpenAI-compatible chat-completion
// endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates a backend from the given options.
func NewOpenAI(opts Options) *OpenAI {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Model returns the configured model name.
func (o *OpenAI) Model() string {
	return o.model
}

// Send performs one chat completion with the given system and user
// prompts and returns the raw assistant message content.
func (o *OpenAI) Send(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
