package ai

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when no model is configured
const DefaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicProvider implements AIProvider for Anthropic's Claude API
type AnthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicProvider creates a new Anthropic provider instance.
// The SDK's own retries are disabled; Explainer owns the retry budget.
func NewAnthropicProvider(apiKey, model string, opts ProviderOptions) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}

	p := &AnthropicProvider{
		client:    anthropic.NewClient(reqOpts...),
		model:     model,
		maxTokens: 4096,
	}
	if opts.MaxOutputTokens != nil {
		p.maxTokens = int64(*opts.MaxOutputTokens)
	}
	return p, nil
}

// Chat sends messages to Claude and returns a single response
func (p *AnthropicProvider) Chat(ctx context.Context, messages []Message) (response string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in Anthropic provider: %v", r)
		}
	}()
	anthropicMessages := make([]anthropic.MessageParam, len(messages))
	for i, msg := range messages {
		textBlock := anthropic.NewTextBlock(msg.Content)

		switch msg.Role {
		case "user":
			anthropicMessages[i] = anthropic.NewUserMessage(textBlock)
		case "assistant":
			anthropicMessages[i] = anthropic.NewAssistantMessage(textBlock)
		default:
			return "", fmt.Errorf("unsupported message role: %s", msg.Role)
		}
	}

	apiResponse, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages:  anthropicMessages,
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	if len(apiResponse.Content) == 0 {
		return "", fmt.Errorf("%w from Anthropic API", ErrEmptyResponse)
	}

	// The first content block should be text
	firstBlock := apiResponse.Content[0]
	if firstBlock.Type != "text" || firstBlock.Text == "" {
		return "", fmt.Errorf("%w from Anthropic API (first block %q)", ErrEmptyResponse, firstBlock.Type)
	}

	response = firstBlock.Text
	return response, nil
}
