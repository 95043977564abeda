package embedding

import (
	"context"
	"errors"

	"github.com/xpanvictor/parley/internal/database/dbtypes"
)

type Embedder interface {
	// Chunk splits text into pieces small enough for the model
	Chunk(text string) []string
	// Embed returns one vector per non-empty chunk, in order
	Embed(ctx context.Context, chunks []string) ([]dbtypes.XVector, error)
	EmbedSingle(ctx context.Context, text string) (dbtypes.XVector, error)
}

var ErrCountMismatch = errors.New("embedding: response count does not match inputs")

func nonEmpty(chunks []string) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c = trimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func embedSingle(ctx context.Context, e Embedder, text string) (dbtypes.XVector, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return dbtypes.XVector{}, nil
	}
	return vecs[0], nil
}
