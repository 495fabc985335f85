package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	// DefaultGeminiBaseURL is the generative-language REST root
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultGeminiModel is used when no model is configured
	DefaultGeminiModel = "gemini-2.5-flash-preview-05-20"

	geminiTextPath = "candidates.0.content.parts.0.text"
)

// GeminiProvider implements AIProvider for the generateContent REST endpoint
type GeminiProvider struct {
	client          *http.Client
	baseURL         string
	apiKey          string
	model           string
	temperature     *float64
	maxOutputTokens *int
}

// GeminiOption customizes a GeminiProvider
type GeminiOption func(*GeminiProvider)

// WithGeminiBaseURL points the provider at another REST root (tests, proxies)
func WithGeminiBaseURL(baseURL string) GeminiOption {
	return func(p *GeminiProvider) {
		p.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithGeminiTimeout bounds a single attempt. Zero disables the bound.
func WithGeminiTimeout(d time.Duration) GeminiOption {
	return func(p *GeminiProvider) {
		p.client.Timeout = d
	}
}

// WithGeminiHTTPClient replaces the HTTP client
func WithGeminiHTTPClient(c *http.Client) GeminiOption {
	return func(p *GeminiProvider) {
		if c != nil {
			p.client = c
		}
	}
}

func WithGeminiTemperature(t float64) GeminiOption {
	return func(p *GeminiProvider) { p.temperature = &t }
}

func WithGeminiMaxOutputTokens(n int) GeminiOption {
	return func(p *GeminiProvider) { p.maxOutputTokens = &n }
}

// NewGeminiProvider creates a new Gemini provider instance
func NewGeminiProvider(apiKey, model string, opts ...GeminiOption) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	p := &GeminiProvider{
		client:  &http.Client{},
		baseURL: DefaultGeminiBaseURL,
		apiKey:  apiKey,
		model:   model,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

// endpoint returns the generateContent URL with the key in the query string
func (p *GeminiProvider) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		p.baseURL, url.PathEscape(p.model), url.QueryEscape(p.apiKey))
}

// buildPayload encodes messages as a generateContent body. User turns omit the
// role (the API defaults it); assistant turns are sent as "model".
func (p *GeminiProvider) buildPayload(messages []Message) ([]byte, error) {
	req := geminiRequest{Contents: make([]geminiContent, len(messages))}
	for i, msg := range messages {
		content := geminiContent{Parts: []geminiPart{{Text: msg.Content}}}
		switch msg.Role {
		case "user":
		case "assistant":
			content.Role = "model"
		default:
			return nil, fmt.Errorf("unsupported message role: %s", msg.Role)
		}
		req.Contents[i] = content
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode gemini request: %w", err)
	}
	if p.temperature != nil {
		if payload, err = sjson.SetBytes(payload, "generationConfig.temperature", *p.temperature); err != nil {
			return nil, fmt.Errorf("set temperature: %w", err)
		}
	}
	if p.maxOutputTokens != nil {
		if payload, err = sjson.SetBytes(payload, "generationConfig.maxOutputTokens", *p.maxOutputTokens); err != nil {
			return nil, fmt.Errorf("set max output tokens: %w", err)
		}
	}
	return payload, nil
}

// Chat sends messages to Gemini and returns the first candidate's text
func (p *GeminiProvider) Chat(ctx context.Context, messages []Message) (response string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in Gemini provider: %v", r)
		}
	}()

	payload, err := p.buildPayload(messages)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("gemini API error: HTTP status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini API error: read body: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("gemini API error: response is not valid JSON")
	}
	if !gjson.ParseBytes(body).IsObject() {
		return "", fmt.Errorf("gemini API error: response is not a JSON object")
	}

	text := gjson.GetBytes(body, geminiTextPath)
	if text.Type != gjson.String || text.Str == "" {
		return "", fmt.Errorf("%w from Gemini API", ErrEmptyResponse)
	}

	response = text.Str
	return response, nil
}
