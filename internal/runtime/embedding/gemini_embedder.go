package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xpanvictor/parley/internal/database/dbtypes"
	"github.com/xpanvictor/parley/pkg/Logger"
	"google.golang.org/genai"
)

const defaultGeminiEmbedModel = "text-embedding-004"

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string // empty uses the public endpoint
	Timeout time.Duration
}

type GeminiEmbedder struct {
	Chunker
	client  *genai.Client
	logger  *Logger.Logger
	model   string
	timeout time.Duration
}

func NewGeminiEmbedder(ctx context.Context, cfg GeminiConfig, logger *Logger.Logger) (*GeminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini embedder: api key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiEmbedModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GeminiEmbedder{
		Chunker: NewChunker(2048),
		client:  client,
		logger:  logger.Named("gemini-embed"),
		model:   model,
		timeout: timeout,
	}, nil
}

func (e *GeminiEmbedder) Embed(ctx context.Context, chunks []string) ([]dbtypes.XVector, error) {
	inputs := nonEmpty(chunks)
	if len(inputs) == 0 {
		return []dbtypes.XVector{}, nil
	}

	contents := make([]*genai.Content, len(inputs))
	for i, chunk := range inputs {
		contents[i] = genai.NewContentFromText(chunk, genai.RoleUser)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(result.Embeddings) != len(inputs) {
		return nil, fmt.Errorf("%w: sent %d, got %d", ErrCountMismatch, len(inputs), len(result.Embeddings))
	}

	out := make([]dbtypes.XVector, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("gemini embed: embedding %d has no values", i)
		}
		out[i] = dbtypes.XVector(emb.Values)
	}
	e.logger.Debugf("embedded %d chunks with %s", len(out), e.model)
	return out, nil
}

func (e *GeminiEmbedder) EmbedSingle(ctx context.Context, text string) (dbtypes.XVector, error) {
	return embedSingle(ctx, e, text)
}
