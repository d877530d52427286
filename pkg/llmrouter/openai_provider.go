package llmrouter

import (
	"context"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/NeoOne601/ventro/pkg/apperrors"
)

// OpenAIProvider wraps the openai-go client, following the thin Api-wrapper
// shape of the pack's openaiv2 provider (construct once, delegate calls).
type OpenAIProvider struct {
	client     *openai.Client
	chatModel  string
	embedModel string
	embedDim   int
}

func NewOpenAIProvider(apiKey, chatModel, embedModel string, embedDim int) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{client: &client, chatModel: chatModel, embedModel: embedModel, embedDim: embedDim}
}

// Dimensions satisfies retrieval.IEmbedder when this provider is wired as
// the router's shared embedder.
func (p *OpenAIProvider) Dimensions() int { return p.embedDim }

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:       p.chatModel,
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return CompletionResult{}, apperrors.Wrap(apperrors.KindTransient, "openai completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return CompletionResult{}, apperrors.New(apperrors.KindTransient, "openai returned no choices")
	}
	return CompletionResult{Text: resp.Choices[0].Message.Content, Provider: p.Name()}, nil
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: p.embedModel,
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransient, "openai embedding failed", err)
	}
	if len(resp.Data) == 0 {
		return nil, apperrors.New(apperrors.KindTransient, "openai returned no embeddings")
	}
	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
