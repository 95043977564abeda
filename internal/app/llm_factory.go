package app

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/option"
	"github.com/xpanvictor/parley/internal/config"
	"github.com/xpanvictor/parley/internal/constants/prompts"
	"github.com/xpanvictor/parley/internal/runtime/embedding"
	"github.com/xpanvictor/parley/pkg/Logger"
	"github.com/xpanvictor/parley/pkg/assistant"
	"github.com/xpanvictor/parley/pkg/assistant/providers/anthropic"
	"github.com/xpanvictor/parley/pkg/assistant/providers/gemini"
	"github.com/xpanvictor/parley/pkg/assistant/providers/ollama"
	"github.com/xpanvictor/parley/pkg/io/stt"
	sttopenai "github.com/xpanvictor/parley/pkg/io/stt/openai"
	"github.com/xpanvictor/parley/pkg/io/stt/whisper"
	"github.com/xpanvictor/parley/pkg/io/tts"
	"github.com/xpanvictor/parley/pkg/io/tts/elevenlabs"
	ttsopenai "github.com/xpanvictor/parley/pkg/io/tts/openai"
	"github.com/xpanvictor/parley/pkg/io/tts/piper"
)

// ProviderFactory turns settings into the external service clients a turn needs.
type ProviderFactory struct {
	cfg    *config.Settings
	logger *Logger.Logger
}

func NewProviderFactory(cfg *config.Settings, logger *Logger.Logger) *ProviderFactory {
	return &ProviderFactory{cfg: cfg, logger: logger}
}

func (f *ProviderFactory) assistantOptions() assistant.Options {
	return assistant.Options{
		Model:        f.cfg.LLM.Model,
		SystemPrompt: prompts.DEFAULT_PROMPT.GetCurrentPrompt().Text(),
		MaxTokens:    f.cfg.LLM.MaxTokens,
	}
}

// CreateResponder picks the language model named by llm.provider.
func (f *ProviderFactory) CreateResponder(ctx context.Context) (assistant.Responder, error) {
	llm := f.cfg.LLM
	opts := f.assistantOptions()

	switch llm.Provider {
	case "openai", "":
		if llm.OpenAIKey == "" {
			return nil, fmt.Errorf("llm.openai_api_key is required for provider openai")
		}
		f.logger.Infof("LLM responder: openai (%s)", llm.Model)
		return assistant.NewOpenAIResponder(opts, option.WithAPIKey(llm.OpenAIKey)), nil
	case "ollama":
		p, err := ollama.New(llm.OllamaURLs, opts, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama provider: %w", err)
		}
		f.logger.Infof("LLM responder: ollama %v (%s)", llm.OllamaURLs, llm.Model)
		return p, nil
	case "gemini":
		p, err := gemini.New(ctx, llm.GeminiKey, opts)
		if err != nil {
			return nil, err
		}
		f.logger.Infof("LLM responder: gemini (%s)", llm.Model)
		return p, nil
	case "anthropic":
		p, err := anthropic.New(llm.AnthropicKey, opts)
		if err != nil {
			return nil, err
		}
		f.logger.Infof("LLM responder: anthropic (%s)", llm.Model)
		return p, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", llm.Provider)
	}
}

func (f *ProviderFactory) CreateTranscriber() (stt.Transcriber, error) {
	s := f.cfg.STT
	switch s.Provider {
	case "whisper", "":
		f.logger.Infof("STT: whisper at %s", s.WhisperURL)
		return whisper.NewWhisperClient(s.WhisperURL, s.Language, s.Timeout, f.logger), nil
	case "openai":
		if f.cfg.LLM.OpenAIKey == "" {
			return nil, fmt.Errorf("llm.openai_api_key is required for stt provider openai")
		}
		f.logger.Infof("STT: openai (%s)", s.OpenAIModel)
		return sttopenai.New(s.OpenAIModel, s.Language, option.WithAPIKey(f.cfg.LLM.OpenAIKey)), nil
	default:
		return nil, fmt.Errorf("unknown stt provider %q", s.Provider)
	}
}

// CreateTTSRouter registers every speech service that has enough settings to run.
// The configured default service must be among them.
func (f *ProviderFactory) CreateTTSRouter() (*tts.Router, error) {
	t := f.cfg.TTS
	r := tts.NewRouter()

	if t.Piper.URL != "" {
		r.Register("piper", piper.New(t.Piper.URL, t.Piper.Voice, t.Timeout, f.logger), tts.Config{Voice: t.Piper.Voice})
	}

	openaiKey := t.OpenAI.APIKey
	if openaiKey == "" {
		openaiKey = f.cfg.LLM.OpenAIKey
	}
	if openaiKey != "" {
		r.Register("openai", ttsopenai.New(option.WithAPIKey(openaiKey)), tts.Config{Voice: t.OpenAI.Voice, Model: t.OpenAI.Model})
	}

	if t.ElevenLabs.APIKey != "" {
		r.Register("elevenlabs", elevenlabs.New(t.ElevenLabs.BaseURL, t.ElevenLabs.APIKey, t.Timeout),
			tts.Config{Voice: t.ElevenLabs.VoiceID, Model: t.ElevenLabs.Model})
	}

	if !r.Has(t.Default.Service) {
		return nil, fmt.Errorf("default tts service %q is not configured (available: %v)", t.Default.Service, r.Names())
	}
	f.logger.Infof("TTS services: %v (default %s)", r.Names(), t.Default.Service)
	return r, nil
}

// CreateEmbedder returns nil when retrieval is disabled.
func (f *ProviderFactory) CreateEmbedder(ctx context.Context) (embedding.Embedder, error) {
	rc := f.cfg.Retrieval
	if !rc.Enabled {
		return nil, nil
	}
	switch rc.Embedder {
	case "gemini":
		key := rc.GeminiKey
		if key == "" {
			key = f.cfg.LLM.GeminiKey
		}
		return embedding.NewGeminiEmbedder(ctx, embedding.GeminiConfig{APIKey: key, Timeout: 30 * time.Second}, f.logger)
	case "tei", "":
		return embedding.NewTEIEmbedder(rc.TEIURL, 30*time.Second, f.logger), nil
	default:
		return nil, fmt.Errorf("unknown embedder %q", rc.Embedder)
	}
}
