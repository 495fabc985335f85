package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyResponse is returned when the endpoint answered successfully but the
// reply carried no text where the provider expects it. It is never retried.
var ErrEmptyResponse = errors.New("empty response")

// Message represents a single message in a conversation
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// AIProvider is the interface for AI provider implementations
// Each AI provider (Gemini, Claude, OpenAI) implements this interface
type AIProvider interface {
	// Chat sends messages and returns a single response
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Provider type names accepted by NewProvider and the [ai] config section.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ProviderOptions carries the optional knobs shared by every provider.
// Zero values mean "provider default".
type ProviderOptions struct {
	BaseURL         string
	Timeout         time.Duration // per attempt
	Temperature     *float64
	MaxOutputTokens *int
}

// NewProvider creates a new AI provider instance
// providerType: "gemini", "openai" or "anthropic"; empty selects gemini
// apiKey: API key for the provider
// model: model name/ID for the provider; empty selects the provider default
func NewProvider(providerType, apiKey, model string, opts ProviderOptions) (AIProvider, error) {
	switch strings.ToLower(strings.TrimSpace(providerType)) {
	case "", ProviderGemini:
		if model == "" {
			model = DefaultGeminiModel
		}
		geminiOpts := []GeminiOption{WithGeminiTimeout(opts.Timeout)}
		if opts.BaseURL != "" {
			geminiOpts = append(geminiOpts, WithGeminiBaseURL(opts.BaseURL))
		}
		if opts.Temperature != nil {
			geminiOpts = append(geminiOpts, WithGeminiTemperature(*opts.Temperature))
		}
		if opts.MaxOutputTokens != nil {
			geminiOpts = append(geminiOpts, WithGeminiMaxOutputTokens(*opts.MaxOutputTokens))
		}
		p, err := NewGeminiProvider(apiKey, model, geminiOpts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderOpenAI:
		if model == "" {
			model = DefaultOpenAIModel
		}
		p, err := NewOpenAIProvider(apiKey, model, opts)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderAnthropic:
		if model == "" {
			model = DefaultAnthropicModel
		}
		p, err := NewAnthropicProvider(apiKey, model, opts)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", providerType)
	}
}

var (
	_ AIProvider = (*GeminiProvider)(nil)
	_ AIProvider = (*OpenAIProvider)(nil)
	_ AIProvider = (*AnthropicProvider)(nil)
)
