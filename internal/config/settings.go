package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	StaticDir       string        `mapstructure:"static_dir"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	SessionTimeout  time.Duration `mapstructure:"session_timeout"`
	SweepSchedule   string        `mapstructure:"sweep_schedule"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type DBConfig struct {
	Driver   string `mapstructure:"driver"` // mysql | postgres | sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	Path     string `mapstructure:"path"` // sqlite file
	PoolSize int    `mapstructure:"pool_size"`
}

func (d DBConfig) DSN() string {
	switch d.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.Username, d.Password, d.Host, d.Port, d.Name)
	case "sqlite":
		return d.Path
	default:
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			d.Host, d.Port, d.Username, d.Password, d.Name)
	}
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
	Pass string `mapstructure:"password"`
	DB   int    `mapstructure:"db"`
}

type STTConfig struct {
	Provider    string        `mapstructure:"provider"` // whisper | openai
	WhisperURL  string        `mapstructure:"whisper_url"`
	OpenAIModel string        `mapstructure:"openai_model"`
	Language    string        `mapstructure:"language"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type LLMConfig struct {
	Provider     string        `mapstructure:"provider"` // openai | ollama | gemini | anthropic
	Model        string        `mapstructure:"model"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	Timeout      time.Duration `mapstructure:"timeout"`
	OllamaURLs   []string      `mapstructure:"ollama_urls"`
	OpenAIKey    string        `mapstructure:"openai_api_key"`
	GeminiKey    string        `mapstructure:"gemini_api_key"`
	AnthropicKey string        `mapstructure:"anthropic_api_key"`
}

type TTSDefaults struct {
	Service string `mapstructure:"service"`
	Voice   string `mapstructure:"voice"`
	Model   string `mapstructure:"model"`
}

type PiperConfig struct {
	URL   string `mapstructure:"url"`
	Voice string `mapstructure:"voice"`
}

type OpenAITTSConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
	Voice  string `mapstructure:"voice"`
}

type ElevenLabsConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	VoiceID string `mapstructure:"voice_id"`
	Model   string `mapstructure:"model"`
}

type TTSConfig struct {
	Default    TTSDefaults      `mapstructure:"default"`
	Timeout    time.Duration    `mapstructure:"timeout"`
	Piper      PiperConfig      `mapstructure:"piper"`
	OpenAI     OpenAITTSConfig  `mapstructure:"openai"`
	ElevenLabs ElevenLabsConfig `mapstructure:"elevenlabs"`
}

type RetrievalConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	TopK      int           `mapstructure:"top_k"`
	Separator string        `mapstructure:"separator"`
	Embedder  string        `mapstructure:"embedder"` // tei | gemini
	TEIURL    string        `mapstructure:"tei_url"`
	GeminiKey string        `mapstructure:"gemini_api_key"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	QoS         byte   `mapstructure:"qos"`
}

// AssistantConfig backs the public /api/config endpoint.
type AssistantConfig struct {
	AssistantID  string `mapstructure:"assistant_id"`
	AssistantURL string `mapstructure:"assistant_url"`
	APIKey       string `mapstructure:"api_key"`
}

const (
	DefaultAssistantID  = "db05d122-2c23-4869-a730-6679521014f3"
	assistantURLPattern = "https://platform.upliftai.org/assistant/%s"
)

// URL is AssistantURL, or the hosted assistant page for AssistantID when unset.
func (a AssistantConfig) URL() string {
	if a.AssistantURL != "" || a.AssistantID == "" {
		return a.AssistantURL
	}
	return fmt.Sprintf(assistantURLPattern, a.AssistantID)
}

type Settings struct {
	Server    ServerConfig    `mapstructure:"server"`
	Voice     VoiceConfig     `mapstructure:"voice"`
	STT       STTConfig       `mapstructure:"stt"`
	LLM       LLMConfig       `mapstructure:"llm"`
	TTS       TTSConfig       `mapstructure:"tts"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	DB        DBConfig        `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Env       string          `mapstructure:"env"`
	Debug     bool            `mapstructure:"debug"`
}

// Loader owns one viper instance so reloads and tests do not share global state.
type Loader struct {
	v     *viper.Viper
	paths []string
}

func NewLoader(paths ...string) *Loader {
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	return &Loader{v: viper.New(), paths: paths}
}

func Load() (*Settings, error) {
	return NewLoader().Load()
}

func (l *Loader) Load() (*Settings, error) {
	// .env is optional
	_ = godotenv.Load()

	env := genEnv()
	l.v.SetConfigName("config_" + env)
	l.v.SetConfigType("yaml")
	for _, p := range l.paths {
		l.v.AddConfigPath(p)
	}

	setDefaults(l.v)
	l.v.Set("env", env)
	l.v.SetEnvPrefix("PARLEY")
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
	_ = l.v.BindEnv("server.port", "PORT")
	_ = l.v.BindEnv("assistant.assistant_id", "PARLEY_ASSISTANT_ASSISTANT_ID", "UPLIFT_ASSISTANT_ID")
	_ = l.v.BindEnv("assistant.api_key", "PARLEY_ASSISTANT_API_KEY", "UPLIFT_API_KEY")

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Settings, error) {
	var settings Settings
	if err := l.v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := settings.Voice.Validate(); err != nil {
		return nil, fmt.Errorf("invalid voice config: %w", err)
	}
	return &settings, nil
}

// ConfigFile is the file viper actually read, empty when running on defaults.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

func genEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "dev"
	}
	return env
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.static_dir", "public")
	v.SetDefault("server.read_buffer_size", 4096)
	v.SetDefault("server.write_buffer_size", 4096)
	v.SetDefault("server.session_timeout", 30*time.Minute)
	v.SetDefault("server.sweep_schedule", "@every 5m")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	d := DefaultVoiceConfig()
	v.SetDefault("voice.sample_rate", d.SampleRate)
	v.SetDefault("voice.form", d.Form)
	v.SetDefault("voice.silence_timeout", d.SilenceTimeout)
	v.SetDefault("voice.short_silence_timeout", d.ShortSilenceTimeout)
	v.SetDefault("voice.max_segment_seconds", d.MaxSegmentSeconds)
	v.SetDefault("voice.interrupt_threshold", d.InterruptThreshold)
	v.SetDefault("voice.noise_min_chars", d.NoiseMinChars)
	v.SetDefault("voice.noise_phrases", d.NoisePhrases)
	v.SetDefault("voice.inbox_size", d.InboxSize)

	v.SetDefault("stt.provider", "whisper")
	v.SetDefault("stt.whisper_url", "http://localhost:9000")
	v.SetDefault("stt.openai_model", "whisper-1")
	v.SetDefault("stt.language", "en")
	v.SetDefault("stt.timeout", 30*time.Second)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.max_tokens", 150)
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.ollama_urls", []string{"http://localhost:11434"})
	v.SetDefault("llm.openai_api_key", "")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.anthropic_api_key", "")

	v.SetDefault("tts.default.service", "openai")
	v.SetDefault("tts.default.voice", "alloy")
	v.SetDefault("tts.default.model", "tts-1")
	v.SetDefault("tts.timeout", 30*time.Second)
	v.SetDefault("tts.piper.url", "http://localhost:5000")
	v.SetDefault("tts.piper.voice", "en_US-lessac-medium")
	v.SetDefault("tts.openai.api_key", "")
	v.SetDefault("tts.openai.model", "tts-1")
	v.SetDefault("tts.openai.voice", "alloy")
	v.SetDefault("tts.elevenlabs.api_key", "")
	v.SetDefault("tts.elevenlabs.base_url", "https://api.elevenlabs.io")
	v.SetDefault("tts.elevenlabs.voice_id", "21m00Tcm4TlvDq8ikWAM")
	v.SetDefault("tts.elevenlabs.model", "eleven_turbo_v2_5")

	v.SetDefault("retrieval.enabled", false)
	v.SetDefault("retrieval.top_k", 3)
	v.SetDefault("retrieval.separator", "\n\n---\n\n")
	v.SetDefault("retrieval.embedder", "tei")
	v.SetDefault("retrieval.tei_url", "http://localhost:8080")
	v.SetDefault("retrieval.gemini_api_key", "")
	v.SetDefault("retrieval.cache_ttl", 10*time.Minute)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "parley")
	v.SetDefault("database.path", "parley.db")
	v.SetDefault("database.pool_size", 10)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic_prefix", "parley")
	v.SetDefault("mqtt.qos", 0)

	v.SetDefault("assistant.assistant_id", DefaultAssistantID)
	v.SetDefault("assistant.assistant_url", "")
	v.SetDefault("assistant.api_key", "")
}
