// Package config loads the user's TOML configuration from
// $FOLDLENS_HOME/config.toml (default ~/.foldlens/config.toml).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/asheshgoplani/foldlens/internal/ai"
)

const (
	// HomeEnv overrides the foldlens state directory
	HomeEnv = "FOLDLENS_HOME"

	configFileName = "config.toml"

	// DefaultRequestTimeout bounds a single attempt, not the whole retry chain
	DefaultRequestTimeout = 60 * time.Second
	DefaultNotebook       = "foldlens"
)

// UserConfig is the root of config.toml
type UserConfig struct {
	AI        *AISettings       `toml:"ai"`
	Telemetry TelemetrySettings `toml:"telemetry"`
	UI        UISettings        `toml:"ui"`
}

// AISettings configures the generative-language provider.
// Pointer fields distinguish "omitted" from an explicit zero.
type AISettings struct {
	Provider        string         `toml:"provider"`
	APIKey          string         `toml:"api_key"`
	Model           string         `toml:"model"`
	BaseURL         string         `toml:"base_url"`
	RequestTimeout  *int           `toml:"request_timeout"` // seconds per attempt
	Temperature     *float64       `toml:"temperature"`
	MaxOutputTokens *int           `toml:"max_output_tokens"`
	Retry           *RetrySettings `toml:"retry"`
}

// RetrySettings is the [ai.retry] table
type RetrySettings struct {
	Retries        *int `toml:"retries"`
	InitialDelayMs *int `toml:"initial_delay_ms"`
}

// TelemetrySettings is the [telemetry] table
type TelemetrySettings struct {
	Enabled  bool   `toml:"enabled"`
	URL      string `toml:"url"`
	Notebook string `toml:"notebook"`
}

// UISettings is the [ui] table
type UISettings struct {
	TopicsFile   string `toml:"topics_file"`
	GlamourStyle string `toml:"glamour_style"`
}

// ResolvedAI is AISettings with defaults applied and the key expanded
type ResolvedAI struct {
	Provider       string
	APIKey         string
	Model          string
	Options        ai.ProviderOptions
	Retry          ai.RetryPolicy
	RequestTimeout time.Duration
}

var envKeyByProvider = map[string]string{
	ai.ProviderGemini:    "GEMINI_API_KEY",
	ai.ProviderOpenAI:    "OPENAI_API_KEY",
	ai.ProviderAnthropic: "ANTHROPIC_API_KEY",
}

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvRefs replaces ${VAR} references; bare $VAR is left alone so keys
// containing '$' survive.
func expandEnvRefs(s string) string {
	return envRefPattern.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
}

// GetAISettings returns the AI settings with defaults applied
func (c *UserConfig) GetAISettings() ResolvedAI {
	var s AISettings
	if c != nil && c.AI != nil {
		s = *c.AI
	}

	provider := strings.ToLower(strings.TrimSpace(s.Provider))
	if provider == "" {
		provider = ai.ProviderGemini
	}

	apiKey := expandEnvRefs(s.APIKey)
	if apiKey == "" {
		if env, ok := envKeyByProvider[provider]; ok {
			apiKey = os.Getenv(env)
		}
	}

	timeout := DefaultRequestTimeout
	if s.RequestTimeout != nil {
		timeout = time.Duration(*s.RequestTimeout) * time.Second
	}

	retry := ai.DefaultRetryPolicy()
	if s.Retry != nil {
		if s.Retry.Retries != nil {
			retry.Retries = *s.Retry.Retries
		}
		if s.Retry.InitialDelayMs != nil {
			retry.InitialDelay = time.Duration(*s.Retry.InitialDelayMs) * time.Millisecond
		}
	}

	return ResolvedAI{
		Provider:       provider,
		APIKey:         apiKey,
		Model:          s.Model,
		RequestTimeout: timeout,
		Retry:          retry,
		Options: ai.ProviderOptions{
			BaseURL:         s.BaseURL,
			Timeout:         timeout,
			Temperature:     s.Temperature,
			MaxOutputTokens: s.MaxOutputTokens,
		},
	}
}

// WithAIOverrides returns a copy of c with the provider and model replaced
// when non-empty. Switching provider drops the configured api_key so the new
// provider's environment variable is used.
func (c *UserConfig) WithAIOverrides(provider, model string) *UserConfig {
	var out UserConfig
	if c != nil {
		out = *c
	}
	var s AISettings
	if out.AI != nil {
		s = *out.AI
	}
	if provider != "" && !strings.EqualFold(provider, s.Provider) {
		s.Provider = provider
		s.APIKey = ""
	}
	if model != "" {
		s.Model = model
	}
	out.AI = &s
	return &out
}

// NewExplainer builds the Explainer described by the [ai] section
func (c *UserConfig) NewExplainer(opts ...ai.ExplainerOption) (*ai.Explainer, error) {
	s := c.GetAISettings()
	provider, err := ai.NewProvider(s.Provider, s.APIKey, s.Model, s.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", s.Provider, err)
	}
	opts = append([]ai.ExplainerOption{ai.WithRetryPolicy(s.Retry)}, opts...)
	return ai.NewExplainer(provider, opts...), nil
}

// GetTelemetrySettings returns telemetry settings; a missing URL disables it
func (c *UserConfig) GetTelemetrySettings() TelemetrySettings {
	var s TelemetrySettings
	if c != nil {
		s = c.Telemetry
	}
	if s.Notebook == "" {
		s.Notebook = DefaultNotebook
	}
	if strings.TrimSpace(s.URL) == "" {
		s.Enabled = false
	}
	return s
}

// GetUISettings returns UI settings with defaults applied
func (c *UserConfig) GetUISettings() UISettings {
	var s UISettings
	if c != nil {
		s = c.UI
	}
	if s.GlamourStyle == "" {
		s.GlamourStyle = "auto"
	}
	if s.TopicsFile != "" {
		s.TopicsFile = expandHome(s.TopicsFile)
	}
	return s
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// GetHomeDir returns the foldlens state directory
func GetHomeDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".foldlens"), nil
}

// GetConfigPath returns the path of config.toml
func GetConfigPath() (string, error) {
	dir, err := GetHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// LoadConfigFile decodes a config file. A missing file yields an empty config.
func LoadConfigFile(path string) (*UserConfig, error) {
	var cfg UserConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return &UserConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		log.Printf("[CONFIG] Ignoring unknown keys in %s: %v", path, undecoded)
	}
	return &cfg, nil
}

var (
	userConfigMu    sync.Mutex
	userConfigCache *UserConfig
)

// LoadUserConfig loads config.toml once and caches it
func LoadUserConfig() (*UserConfig, error) {
	userConfigMu.Lock()
	defer userConfigMu.Unlock()

	if userConfigCache != nil {
		return userConfigCache, nil
	}

	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}
	userConfigCache = cfg
	return cfg, nil
}

// ClearUserConfigCache forces the next LoadUserConfig to re-read the file
func ClearUserConfigCache() {
	userConfigMu.Lock()
	userConfigCache = nil
	userConfigMu.Unlock()
}

// SaveUserConfig writes cfg to config.toml atomically and refreshes the cache
func SaveUserConfig(cfg *UserConfig) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// temp file + fsync + rename so a crash never leaves a torn config
	tmpPath := path + ".tmp"
	if err := writeSynced(tmpPath, buf.Bytes()); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to finalize save: %w", err)
	}

	userConfigMu.Lock()
	userConfigCache = cfg
	userConfigMu.Unlock()
	return nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		log.Printf("[CONFIG] Warning: fsync failed for %s: %v", path, err)
	}
	return f.Close()
}

// DefaultUserConfig is the template written by `foldlens config init`
func DefaultUserConfig() *UserConfig {
	retries := ai.DefaultRetries
	delayMs := int(ai.DefaultInitialDelay / time.Millisecond)
	timeout := int(DefaultRequestTimeout / time.Second)
	return &UserConfig{
		AI: &AISettings{
			Provider:       ai.ProviderGemini,
			APIKey:         "${GEMINI_API_KEY}",
			Model:          ai.DefaultGeminiModel,
			RequestTimeout: &timeout,
			Retry: &RetrySettings{
				Retries:        &retries,
				InitialDelayMs: &delayMs,
			},
		},
		Telemetry: TelemetrySettings{Notebook: DefaultNotebook},
		UI:        UISettings{GlamourStyle: "auto"},
	}
}
