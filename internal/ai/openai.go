package ai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider implements AIProvider for OpenAI's API
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIProvider creates a new OpenAI provider instance
// opts.BaseURL is optional and defaults to OpenAI's endpoint
func NewOpenAIProvider(apiKey, model string, opts ProviderOptions) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	config := openai.DefaultConfig(apiKey)

	// Set custom base URL if provided (e.g., for OpenRouter)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}
	if opts.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	p := &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		maxTokens:   4096,
		temperature: 0.7,
	}
	if opts.MaxOutputTokens != nil {
		p.maxTokens = *opts.MaxOutputTokens
	}
	if opts.Temperature != nil {
		p.temperature = float32(*opts.Temperature)
	}
	return p, nil
}

// Chat sends messages to OpenAI and returns a single response
func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message) (response string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in OpenAI provider: %v", r)
		}
	}()
	// Convert our Message format to OpenAI's format
	openaiMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case "user":
			openaiMessages[i] = openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: msg.Content,
			}
		case "assistant":
			openaiMessages[i] = openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: msg.Content,
			}
		default:
			return "", fmt.Errorf("unsupported message role: %s", msg.Role)
		}
	}

	apiResponse, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    openaiMessages,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}

	if len(apiResponse.Choices) == 0 || apiResponse.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w from OpenAI API", ErrEmptyResponse)
	}

	response = apiResponse.Choices[0].Message.Content
	return response, nil
}
