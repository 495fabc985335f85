package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asheshgoplani/foldlens/internal/ai"
	"github.com/asheshgoplani/foldlens/internal/config"
	"github.com/asheshgoplani/foldlens/internal/render"
	"github.com/asheshgoplani/foldlens/internal/topics"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// topicEchoProvider answers with the topic name quoted in the prompt after a
// short delay and records peak concurrency
type topicEchoProvider struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	fails    map[string]int
}

func (p *topicEchoProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		old := p.peak.Load()
		if n <= old || p.peak.CompareAndSwap(old, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)

	prompt := messages[len(messages)-1].Content
	_, rest, _ := strings.Cut(prompt, `concept of "`)
	name, _, _ := strings.Cut(rest, `"`)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fails[name] > 0 {
		p.fails[name]--
		return "", errors.New("connection reset")
	}
	return "answer for " + name, nil
}

func setHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.HomeEnv, dir)
	config.ClearUserConfigCache()
	t.Cleanup(config.ClearUserConfigCache)
	return dir
}

func TestExplainAll_CatalogOrder(t *testing.T) {
	catalog := topics.Builtin()
	provider := &topicEchoProvider{fails: map[string]int{"Multiple Sequence Alignment (MSA)": 1}}
	explainer := ai.NewExplainer(provider)

	var out bytes.Buffer
	err := explainAll(context.Background(), &out, explainer, catalog.All(), render.FormatText, "notty",
		[]ai.CallOption{ai.WithRetries(1), ai.WithInitialDelay(time.Millisecond)})
	require.NoError(t, err)

	assert.LessOrEqual(t, provider.peak.Load(), int32(explainAllLimit))

	text := out.String()
	last := -1
	for _, topic := range catalog.All() {
		idx := strings.Index(text, topics.Title(topic))
		require.GreaterOrEqual(t, idx, 0, "missing %s", topic.Name)
		assert.Greater(t, idx, last, "%s out of catalog order", topic.Name)
		last = idx
	}
	assert.Contains(t, text, "answer for Multiple Sequence Alignment (MSA)", "a failed attempt should be retried independently")
}

func TestBuildPromptQuotesName(t *testing.T) {
	// topicEchoProvider relies on the quoted concept name
	prompt := topics.BuildPrompt(topics.Topic{Name: "pLDDT"})
	assert.Contains(t, prompt, `concept of "pLDDT"`)
}

func TestPrintTopics_Truncates(t *testing.T) {
	var out bytes.Buffer
	list := []topics.Topic{{Name: "PAE", Analogy: strings.Repeat("long analogy ", 20)}}
	printTopics(&out, list, 40)

	line := strings.TrimRight(out.String(), "\n")
	assert.LessOrEqual(t, len([]rune(line)), 40)
	assert.True(t, strings.HasSuffix(line, "…"))
}

func TestConfidenceCmd(t *testing.T) {
	setHome(t)
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"confidence", "--seed", "1"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Residues:     150")
	assert.Contains(t, out.String(), "very high")
}

func TestConfigInitAndPath(t *testing.T) {
	dir := setHome(t)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "path"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, filepath.Join(dir, "config.toml"), strings.TrimSpace(out.String()))

	cmd = newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"config", "init"})
	require.NoError(t, cmd.Execute())
	_, err := os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)

	cmd = newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"config", "init"})
	assert.ErrorContains(t, cmd.Execute(), "already exists")
}

func TestExplainCmd_ArgValidation(t *testing.T) {
	setHome(t)
	t.Setenv("GEMINI_API_KEY", "k")

	for _, args := range [][]string{
		{"explain"},
		{"explain", "--all", "pLDDT"},
	} {
		cmd := newRootCmd()
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(args)
		assert.Error(t, cmd.Execute(), "%v", args)
	}
}

func TestExplainCmd_MissingKey(t *testing.T) {
	setHome(t)
	t.Setenv("GEMINI_API_KEY", "")

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"explain", "pLDDT"})
	assert.ErrorContains(t, cmd.Execute(), "API key")
}

func TestTopicsCmd(t *testing.T) {
	setHome(t)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"topics", "docking"})
	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "Ligand Docking"), out.String())
}

func TestExplainCmd_RetryConfigUnlessFlagsSet(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	dir := setHome(t)
	t.Setenv("GEMINI_API_KEY", "")
	cfg := fmt.Sprintf(`[ai]
api_key = "k"
base_url = %q

[ai.retry]
retries = 0
initial_delay_ms = 1

[ui]
glamour_style = "notty"
`, ts.URL)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(cfg), 0600))

	run := func(args ...string) string {
		t.Helper()
		config.ClearUserConfigCache()
		calls.Store(0)
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(append([]string{"explain", "pLDDT"}, args...))
		require.NoError(t, cmd.Execute())
		return out.String()
	}

	out := run()
	assert.Equal(t, int32(1), calls.Load(), "[ai.retry] retries = 0 should mean one attempt")
	assert.Contains(t, out, ai.FailureText)

	out = run("--retries", "2", "--delay", "1ms")
	assert.Equal(t, int32(3), calls.Load(), "--retries should override config")
	assert.Contains(t, out, ai.FailureText)
}

func TestConfidenceCmd_Affinity(t *testing.T) {
	setHome(t)
	path := filepath.Join(t.TempDir(), "affinity_job1.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "affinity_pred_value": -1.5, "affinity_probability_binary": 0.8,
  "affinity_pred_value1": 0.2, "affinity_probability_binary1": 0.6,
  "affinity_pred_value2": 2.1, "affinity_probability_binary2": 0.3
}`), 0600))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"confidence", "--affinity", path})
	require.NoError(t, cmd.Execute())

	text := out.String()
	ensemble := strings.Index(text, "Ensemble Model Analysis")
	model1 := strings.Index(text, "Model 1 Analysis")
	model2 := strings.Index(text, "Model 2 Analysis")
	require.True(t, ensemble >= 0 && model1 > ensemble && model2 > model1, text)
	assert.Contains(t, text, "80.0%  High Confidence Binder")
	assert.Contains(t, text, "-1.500  Strong Binder")
	assert.Contains(t, text, "Moderate Confidence Binder")
	assert.Contains(t, text, "Weak Binder / Decoy")
	assert.NotContains(t, text, "Residues:")

	cmd = newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"confidence", "--affinity", filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, cmd.Execute())
}
