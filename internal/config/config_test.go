package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every lookup location at an empty temp tree.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	for _, k := range []string{
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Source())
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-haiku", cfg.LLM.Anthropic.Model)
	assert.Equal(t, 3, cfg.Generation.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Generation.InitialWait)
	assert.Equal(t, 3*time.Second, cfg.Generation.DebounceWindow)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "quizforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: openai
  openai:
    api_key: sk-file
    model: gpt-4.1-mini
generation:
  max_attempts: 5
  initial_wait: 250ms
server:
  addr: 127.0.0.1:9000
`), 0o644))
	t.Setenv("QUIZFORGE_GENERATION_MAX_WAIT", "4s")
	t.Setenv("QUIZFORGE_LLM_OPENAI_API_KEY", "sk-env")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, filepath.Base(path), filepath.Base(cfg.Source()))
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-env", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "gpt-4.1-mini", cfg.LLM.OpenAI.Model)
	assert.Equal(t, 5, cfg.Generation.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Generation.InitialWait)
	assert.Equal(t, 4*time.Second, cfg.Generation.MaxWait)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	dir := isolate(t)
	v := New()
	v.SetConfigFile(filepath.Join(dir, "missing.yaml"))

	_, err := Load(v)
	assert.Error(t, err)
}

func TestLoad_DiscoversProviderKey(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "g-key", cfg.LLM.Gemini.APIKey)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
}

func TestLoad_ExplicitProviderNotReplaced(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("QUIZFORGE_LLM_PROVIDER", "anthropic")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
}

func TestLoad_RejectsInvalidGeneration(t *testing.T) {
	isolate(t)
	t.Setenv("QUIZFORGE_GENERATION_MAX_ATTEMPTS", "0")

	_, err := Load(New())
	assert.Error(t, err)
}
