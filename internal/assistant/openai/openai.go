// internal/assistant/openai/openai.go
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/covergrid/pulse/internal/assistant"
	"github.com/covergrid/pulse/internal/core"
	"github.com/sashabaranov/go-openai"
)

// Provider implements the assistant interface for OpenAI-compatible
// chat-completion APIs.
type Provider struct {
	client *openai.Client
	model  string
}

// New creates a new provider. baseURL may point at any
// OpenAI-compatible endpoint; empty uses the official API.
func New(apiKey, baseURL, model string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &Provider{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai"
}

// Chat sends a chat request to the chat-completion API.
func (p *Provider) Chat(ctx context.Context, req assistant.ChatRequest) (*assistant.ChatResponse, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)

	// Add system prompt as first message if provided
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}

	// Add user/assistant messages
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		if isModelNotFound(err) {
			return nil, core.WrapError(core.ErrModelNotFound,
				fmt.Errorf("model %s: %w", model, err))
		}
		return nil, core.WrapError(core.ErrAssistantFailed, err)
	}

	content := ""
	finishReason := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
		finishReason = string(resp.Choices[0].FinishReason)
	}

	return &assistant.ChatResponse{
		Content: content,
		Model:   resp.Model,
		Usage: assistant.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
		FinishReason: finishReason,
	}, nil
}

// isModelNotFound detects the upstream "no such model" rejection, which
// arrives as a 404 or a model_not_found error code.
func isModelNotFound(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if code, ok := apiErr.Code.(string); ok && code == "model_not_found" {
		return true
	}
	if apiErr.HTTPStatusCode == http.StatusNotFound {
		return true
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "does not exist")
}
