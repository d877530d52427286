package llmrouter

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/NeoOne601/ventro/pkg/apperrors"
)

// AnthropicProvider is a chain member with no native embedding endpoint;
// get_reasoning_vector always goes through the router's single shared
// embedder regardless of which provider produced the completion.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicProvider{client: &client, model: model}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return CompletionResult{}, apperrors.Wrap(apperrors.KindTransient, "anthropic completion failed", err)
	}
	if len(resp.Content) == 0 {
		return CompletionResult{}, apperrors.New(apperrors.KindTransient, "anthropic returned no content blocks")
	}
	return CompletionResult{Text: resp.Content[0].Text, Provider: p.Name()}, nil
}
