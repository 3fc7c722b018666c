package rag

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Completer generates an answer from a prompt and reports token usage.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, TokenUsage, error)
}

// OpenAICompleter calls the OpenAI chat completions API with a single user
// message and a fixed response-length cap.
type OpenAICompleter struct {
	client    *openai.Client
	maxTokens int
}

// NewOpenAICompleter creates a completer with the given response-length cap.
func NewOpenAICompleter(client *openai.Client, maxTokens int) (*OpenAICompleter, error) {
	if client == nil {
		return nil, fmt.Errorf("nil openai client")
	}
	if maxTokens <= 0 {
		return nil, fmt.Errorf("invalid max tokens %d", maxTokens)
	}
	return &OpenAICompleter{client: client, maxTokens: maxTokens}, nil
}

// Complete sends the prompt to the requested model and returns the generated
// text plus the provider's token counters.
func (c *OpenAICompleter) Complete(ctx context.Context, model, prompt string) (string, TokenUsage, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", TokenUsage{}, fmt.Errorf("completion request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", TokenUsage{}, fmt.Errorf("completion response has no choices")
	}

	usage := TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	return resp.Choices[0].Message.Content, usage, nil
}
