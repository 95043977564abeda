package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("ENV", "missing")
	dir := t.TempDir()

	s, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, s.Server.Port)
	assert.Equal(t, "missing", s.Env)
	assert.Equal(t, 16000, s.Voice.SampleRate)
	assert.Equal(t, 2*time.Second, s.Voice.EndpointTimeout())
	assert.Equal(t, 160000, s.Voice.MaxSegmentSamples())
	assert.Equal(t, 491, s.Voice.InterruptThreshold)
	assert.Equal(t, 3, s.Retrieval.TopK)
	assert.Equal(t, 150, s.LLM.MaxTokens)
	assert.Equal(t, "openai", s.TTS.Default.Service)
	assert.Equal(t, DefaultAssistantID, s.Assistant.AssistantID)
	assert.Equal(t, "https://platform.upliftai.org/assistant/"+DefaultAssistantID, s.Assistant.URL())
	assert.Empty(t, s.Assistant.APIKey)
}

func TestLoadAssistantFromUpliftEnv(t *testing.T) {
	t.Setenv("ENV", "missing")
	t.Setenv("UPLIFT_ASSISTANT_ID", "asst-42")
	t.Setenv("UPLIFT_API_KEY", "sk-test")

	s, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	assert.Equal(t, "asst-42", s.Assistant.AssistantID)
	assert.Equal(t, "sk-test", s.Assistant.APIKey)
	assert.Equal(t, "https://platform.upliftai.org/assistant/asst-42", s.Assistant.URL())

	s.Assistant.AssistantURL = "https://example.test/a"
	assert.Equal(t, "https://example.test/a", s.Assistant.URL())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("PORT", "8088")
	t.Setenv("PARLEY_LLM_PROVIDER", "ollama")
	dir := t.TempDir()

	yaml := `
voice:
  form: short
  short_silence_timeout: 250ms
  interrupt_threshold: 600
tts:
  default:
    service: piper
    voice: en_GB-alan
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config_test.yaml"), []byte(yaml), 0o644))

	l := NewLoader(dir)
	s, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "config_test.yaml"), l.ConfigFile())
	assert.Equal(t, 8088, s.Server.Port)
	assert.Equal(t, "ollama", s.LLM.Provider)
	assert.Equal(t, 250*time.Millisecond, s.Voice.EndpointTimeout())
	assert.Equal(t, 600, s.Voice.InterruptThreshold)
	assert.Equal(t, "piper", s.TTS.Default.Service)
	assert.Equal(t, "en_GB-alan", s.TTS.Default.Voice)
	assert.Equal(t, "tts-1", s.TTS.Default.Model)
}

func TestLoadRejectsInvalidVoice(t *testing.T) {
	t.Setenv("ENV", "bad")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config_bad.yaml"),
		[]byte("voice:\n  interrupt_threshold: 40000\n"), 0o644))

	_, err := NewLoader(dir).Load()
	assert.Error(t, err)
}

func TestVoiceValidate(t *testing.T) {
	cases := map[string]func(*VoiceConfig){
		"zero rate":    func(v *VoiceConfig) { v.SampleRate = 0 },
		"unknown form": func(v *VoiceConfig) { v.Form = "medium" },
		"no timeout":   func(v *VoiceConfig) { v.SilenceTimeout = 0 },
		"no cap":       func(v *VoiceConfig) { v.MaxSegmentSeconds = 0 },
		"no threshold": func(v *VoiceConfig) { v.InterruptThreshold = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			v := DefaultVoiceConfig()
			mutate(&v)
			assert.Error(t, v.Validate())
		})
	}
	assert.NoError(t, DefaultVoiceConfig().Validate())
}

func TestStoreVoiceIsCopy(t *testing.T) {
	s := &Settings{Voice: DefaultVoiceConfig()}
	st := NewStore(s)

	v := st.Voice()
	v.NoisePhrases[0] = "changed"

	assert.Equal(t, "okay.", st.Get().Voice.NoisePhrases[0])
}

func TestDSNPerDriver(t *testing.T) {
	db := DBConfig{Driver: "mysql", Host: "h", Port: 3306, Username: "u", Password: "p", Name: "n"}
	assert.Equal(t, "u:p@tcp(h:3306)/n?charset=utf8mb4&parseTime=True&loc=Local", db.DSN())

	db.Driver = "postgres"
	assert.Equal(t, "host=h port=3306 user=u password=p dbname=n sslmode=disable", db.DSN())

	db.Driver, db.Path = "sqlite", "x.db"
	assert.Equal(t, "x.db", db.DSN())
}
