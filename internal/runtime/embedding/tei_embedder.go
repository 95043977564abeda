package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/xpanvictor/parley/internal/database/dbtypes"
	"github.com/xpanvictor/parley/pkg/Logger"
)

// TEIEmbedder talks to a text-embeddings-inference server.
type TEIEmbedder struct {
	Chunker
	baseURL    string
	httpClient *http.Client
	logger     *Logger.Logger
}

type TEIRequest struct {
	Inputs   []string `json:"inputs"`
	Truncate bool     `json:"truncate"`
}

type TEIResponse [][]float32

func NewTEIEmbedder(baseURL string, timeout time.Duration, logger *Logger.Logger) *TEIEmbedder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TEIEmbedder{
		Chunker:    NewChunker(512),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("tei"),
	}
}

func (e *TEIEmbedder) Embed(ctx context.Context, chunks []string) ([]dbtypes.XVector, error) {
	inputs := nonEmpty(chunks)
	if len(inputs) == 0 {
		return []dbtypes.XVector{}, nil
	}

	body, err := json.Marshal(TEIRequest{Inputs: inputs, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tei request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TEI API returned status %d", resp.StatusCode)
	}

	var teiResp TEIResponse
	if err := json.NewDecoder(resp.Body).Decode(&teiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(teiResp) != len(inputs) {
		return nil, fmt.Errorf("%w: sent %d, got %d", ErrCountMismatch, len(inputs), len(teiResp))
	}

	out := make([]dbtypes.XVector, len(teiResp))
	for i, v := range teiResp {
		out[i] = dbtypes.XVector(v)
	}
	e.logger.Debugf("embedded %d chunks", len(out))
	return out, nil
}

func (e *TEIEmbedder) EmbedSingle(ctx context.Context, text string) (dbtypes.XVector, error) {
	return embedSingle(ctx, e, text)
}
