package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/asheshgoplani/foldlens/internal/ai"
)

// ============================================================================
// AI Settings Tests
// ============================================================================

func TestParseAIConfig(t *testing.T) {
	// Test parsing complete AI config with all fields
	tmpDir := t.TempDir()
	configContent := `
[ai]
provider = "gemini"
api_key = "${GEMINI_API_KEY}"
model = "gemini-2.5-flash-preview-05-20"
base_url = "http://localhost:8080/v1beta"
request_timeout = 30
temperature = 0.4
max_output_tokens = 512

[ai.retry]
retries = 5
initial_delay_ms = 250
`
	configPath := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	var config UserConfig
	_, err := toml.DecodeFile(configPath, &config)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	if config.AI == nil {
		t.Fatal("Expected AI settings to be parsed, got nil")
	}
	if config.AI.Provider != "gemini" {
		t.Errorf("Expected Provider 'gemini', got %q", config.AI.Provider)
	}
	if config.AI.APIKey != "${GEMINI_API_KEY}" {
		t.Errorf("Expected APIKey '${GEMINI_API_KEY}', got %q", config.AI.APIKey)
	}
	if config.AI.Model != "gemini-2.5-flash-preview-05-20" {
		t.Errorf("Unexpected Model %q", config.AI.Model)
	}
	if config.AI.RequestTimeout == nil || *config.AI.RequestTimeout != 30 {
		t.Error("Expected RequestTimeout to be 30")
	}
	if config.AI.Temperature == nil || *config.AI.Temperature != 0.4 {
		t.Error("Expected Temperature to be 0.4")
	}
	if config.AI.MaxOutputTokens == nil || *config.AI.MaxOutputTokens != 512 {
		t.Error("Expected MaxOutputTokens to be 512")
	}

	if config.AI.Retry == nil {
		t.Fatal("Expected Retry settings to be parsed, got nil")
	}
	if config.AI.Retry.Retries == nil || *config.AI.Retry.Retries != 5 {
		t.Error("Expected Retry.Retries to be 5")
	}
	if config.AI.Retry.InitialDelayMs == nil || *config.AI.Retry.InitialDelayMs != 250 {
		t.Error("Expected Retry.InitialDelayMs to be 250")
	}

	t.Setenv("GEMINI_API_KEY", "from-env")
	resolved := config.GetAISettings()
	if resolved.APIKey != "from-env" {
		t.Errorf("Expected expanded APIKey 'from-env', got %q", resolved.APIKey)
	}
	if resolved.Retry != (ai.RetryPolicy{Retries: 5, InitialDelay: 250 * time.Millisecond}) {
		t.Errorf("Unexpected retry policy: %+v", resolved.Retry)
	}
	if resolved.RequestTimeout != 30*time.Second || resolved.Options.Timeout != 30*time.Second {
		t.Errorf("Unexpected timeout: %v", resolved.RequestTimeout)
	}
	if resolved.Options.BaseURL != "http://localhost:8080/v1beta" {
		t.Errorf("Unexpected BaseURL: %q", resolved.Options.BaseURL)
	}
}

func TestParseAIConfig_OmittedFields(t *testing.T) {
	// Test that omitted pointer fields are nil (not zero values)
	tmpDir := t.TempDir()
	configContent := `
[ai]
provider = "openai"
`
	configPath := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	var config UserConfig
	_, err := toml.DecodeFile(configPath, &config)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	if config.AI == nil {
		t.Fatal("Expected AI settings to be parsed, got nil")
	}
	if config.AI.RequestTimeout != nil {
		t.Error("Expected AI.RequestTimeout to be nil when omitted")
	}
	if config.AI.Temperature != nil {
		t.Error("Expected AI.Temperature to be nil when omitted")
	}
	if config.AI.Retry != nil {
		t.Error("Expected AI.Retry to be nil when omitted")
	}
}

func TestGetAISettings_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")

	var config *UserConfig
	resolved := config.GetAISettings()

	if resolved.Provider != ai.ProviderGemini {
		t.Errorf("Expected default provider gemini, got %q", resolved.Provider)
	}
	if resolved.APIKey != "gem-key" {
		t.Errorf("Expected APIKey from GEMINI_API_KEY, got %q", resolved.APIKey)
	}
	if resolved.Retry != ai.DefaultRetryPolicy() {
		t.Errorf("Expected default retry policy, got %+v", resolved.Retry)
	}
	if resolved.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("Expected default timeout, got %v", resolved.RequestTimeout)
	}
}

func TestGetAISettings_ProviderEnvFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("ANTHROPIC_API_KEY", "claude-key")

	config := &UserConfig{AI: &AISettings{Provider: " Anthropic "}}
	resolved := config.GetAISettings()
	if resolved.Provider != ai.ProviderAnthropic {
		t.Errorf("Expected provider anthropic, got %q", resolved.Provider)
	}
	if resolved.APIKey != "claude-key" {
		t.Errorf("Expected ANTHROPIC_API_KEY, got %q", resolved.APIKey)
	}
}

func TestGetAISettings_ZeroRetries(t *testing.T) {
	zero := 0
	config := &UserConfig{AI: &AISettings{Retry: &RetrySettings{Retries: &zero}}}
	resolved := config.GetAISettings()
	if resolved.Retry.Retries != 0 {
		t.Errorf("Explicit zero retries must be kept, got %d", resolved.Retry.Retries)
	}
	if resolved.Retry.InitialDelay != ai.DefaultInitialDelay {
		t.Errorf("Omitted delay should default, got %v", resolved.Retry.InitialDelay)
	}
}

func TestWithAIOverrides(t *testing.T) {
	config := &UserConfig{AI: &AISettings{Provider: "gemini", APIKey: "gem-key", Model: "m1"}}

	same := config.WithAIOverrides("", "m2")
	if same.AI.APIKey != "gem-key" || same.AI.Model != "m2" {
		t.Errorf("Model override should keep key, got %+v", same.AI)
	}
	if config.AI.Model != "m1" {
		t.Error("WithAIOverrides must not mutate the receiver")
	}

	switched := config.WithAIOverrides("openai", "")
	if switched.AI.Provider != "openai" || switched.AI.APIKey != "" {
		t.Errorf("Provider switch should drop the key, got %+v", switched.AI)
	}

	var nilConfig *UserConfig
	if got := nilConfig.WithAIOverrides("anthropic", ""); got.AI == nil || got.AI.Provider != "anthropic" {
		t.Errorf("nil config override failed: %+v", got)
	}
}

func TestNewExplainer(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := (&UserConfig{}).NewExplainer(); err == nil {
		t.Error("Expected error without an API key")
	}

	retries := 7
	config := &UserConfig{AI: &AISettings{APIKey: "k", Retry: &RetrySettings{Retries: &retries}}}
	explainer, err := config.NewExplainer()
	if err != nil {
		t.Fatalf("NewExplainer failed: %v", err)
	}
	if explainer.Policy().Retries != 7 {
		t.Errorf("Expected configured retries, got %d", explainer.Policy().Retries)
	}
}

func TestExpandEnvRefs(t *testing.T) {
	t.Setenv("FOLDLENS_TEST_KEY", "abc")
	if got := expandEnvRefs("${FOLDLENS_TEST_KEY}"); got != "abc" {
		t.Errorf("got %q", got)
	}
	if got := expandEnvRefs("pre-$FOLDLENS_TEST_KEY"); got != "pre-$FOLDLENS_TEST_KEY" {
		t.Errorf("bare $VAR should be kept, got %q", got)
	}
	if got := expandEnvRefs("${FOLDLENS_TEST_UNSET_VAR}"); got != "" {
		t.Errorf("unset var should expand to empty, got %q", got)
	}
}

func TestTelemetrySettings(t *testing.T) {
	config := &UserConfig{Telemetry: TelemetrySettings{Enabled: true}}
	s := config.GetTelemetrySettings()
	if s.Enabled {
		t.Error("Telemetry without URL must be disabled")
	}
	if s.Notebook != DefaultNotebook {
		t.Errorf("Expected default notebook, got %q", s.Notebook)
	}

	config.Telemetry.URL = "https://example.com/log"
	if !config.GetTelemetrySettings().Enabled {
		t.Error("Telemetry with URL should stay enabled")
	}
}

func TestUISettings(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	config := &UserConfig{UI: UISettings{TopicsFile: "~/topics.yaml"}}
	s := config.GetUISettings()
	if s.GlamourStyle != "auto" {
		t.Errorf("Expected auto style, got %q", s.GlamourStyle)
	}
	if s.TopicsFile != filepath.Join(home, "topics.yaml") {
		t.Errorf("Expected ~ expansion, got %q", s.TopicsFile)
	}
}

func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := LoadConfigFile(filepath.Join(tmpDir, "missing.toml"))
	if err != nil {
		t.Fatalf("Missing file should not be an error: %v", err)
	}
	if cfg == nil || cfg.AI != nil {
		t.Fatalf("Expected empty config, got %+v", cfg)
	}

	bad := filepath.Join(tmpDir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[ai\nprovider="), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFile(bad); err == nil {
		t.Error("Expected parse error for invalid TOML")
	}
}

func TestSaveUserConfig(t *testing.T) {
	t.Setenv(HomeEnv, t.TempDir())
	ClearUserConfigCache()
	defer ClearUserConfigCache()

	config := DefaultUserConfig()
	config.Telemetry.URL = "https://example.com/log"
	config.Telemetry.Enabled = true

	if err := SaveUserConfig(config); err != nil {
		t.Fatalf("SaveUserConfig failed: %v", err)
	}

	path, _ := GetConfigPath()
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should be renamed away")
	}

	ClearUserConfigCache()
	loaded, err := LoadUserConfig()
	if err != nil {
		t.Fatalf("LoadUserConfig failed: %v", err)
	}

	if loaded.AI == nil || loaded.AI.Provider != ai.ProviderGemini {
		t.Fatalf("Provider not round-tripped: %+v", loaded.AI)
	}
	if loaded.AI.APIKey != "${GEMINI_API_KEY}" {
		t.Errorf("APIKey should be saved unexpanded, got %q", loaded.AI.APIKey)
	}
	if loaded.AI.Retry == nil || loaded.AI.Retry.Retries == nil || *loaded.AI.Retry.Retries != 3 {
		t.Error("Retry.Retries not round-tripped")
	}
	if !loaded.GetTelemetrySettings().Enabled {
		t.Error("Telemetry should be enabled after reload")
	}

	again, _ := LoadUserConfig()
	if again != loaded {
		t.Error("LoadUserConfig should return the cached instance")
	}
}

func TestWatchUserConfig(t *testing.T) {
	t.Setenv(HomeEnv, t.TempDir())
	ClearUserConfigCache()
	defer ClearUserConfigCache()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *UserConfig, 4)
	if err := WatchUserConfig(ctx, func(cfg *UserConfig, err error) {
		if err != nil {
			t.Errorf("reload error: %v", err)
			return
		}
		changes <- cfg
	}); err != nil {
		t.Fatalf("WatchUserConfig failed: %v", err)
	}

	path, _ := GetConfigPath()
	if err := os.WriteFile(path, []byte("[ai]\nprovider = \"openai\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-changes:
		if cfg.AI == nil || cfg.AI.Provider != "openai" {
			t.Fatalf("Unexpected reloaded config: %+v", cfg.AI)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not observed")
	}
}
