package knowledge

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis"
	"github.com/google/uuid"
	"github.com/xpanvictor/parley/internal/runtime/embedding"
	"github.com/xpanvictor/parley/pkg/Logger"
)

var ErrEmptyDocument = errors.New("knowledge: document has no content")

// Cache is the read-through layer in front of vector search.
type Cache interface {
	Get(key string) (string, bool)
	Set(key, value string, ttl time.Duration) error
}

type redisCache struct {
	rc *redis.Client
}

// NewRedisCache returns nil when rc is nil so callers can pass it through unconditionally.
func NewRedisCache(rc *redis.Client) Cache {
	if rc == nil {
		return nil
	}
	return redisCache{rc: rc}
}

func (c redisCache) Get(key string) (string, bool) {
	val, err := c.rc.Get(key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (c redisCache) Set(key, value string, ttl time.Duration) error {
	return c.rc.Set(key, value, ttl).Err()
}

// Service ingests documents and answers similarity searches.
// It satisfies pipeline.Retriever.
type Service struct {
	repo     Repository
	embedder embedding.Embedder
	cache    Cache
	ttl      time.Duration
	logger   *Logger.Logger

	// revision is folded into cache keys so an ingest retires old entries on this instance
	revision atomic.Uint64
}

func NewService(repo Repository, embedder embedding.Embedder, cache Cache, ttl time.Duration, logger *Logger.Logger) *Service {
	return &Service{
		repo:     repo,
		embedder: embedder,
		cache:    cache,
		ttl:      ttl,
		logger:   logger.Named("knowledge"),
	}
}

func (s *Service) Ingest(ctx context.Context, title, content string) (*Document, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyDocument
	}

	chunks := s.embedder.Chunk(content)
	vecs, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embedding %q: %w", title, err)
	}
	if len(vecs) != len(chunks) {
		return nil, fmt.Errorf("%w: %d chunks, %d vectors", embedding.ErrCountMismatch, len(chunks), len(vecs))
	}

	doc := &DocumentEntity{
		ID:      uuid.New(),
		Title:   strings.TrimSpace(title),
		Content: content,
		Chunks:  make([]ChunkEntity, len(chunks)),
	}
	for i, chunk := range chunks {
		doc.Chunks[i] = ChunkEntity{
			ID:         uuid.New(),
			DocumentID: doc.ID,
			ChunkIndex: i,
			Content:    chunk,
			Embedding:  vecs[i],
		}
	}
	if err := s.repo.SaveDocument(ctx, doc); err != nil {
		return nil, err
	}
	s.revision.Add(1)

	s.logger.Infof("ingested %q as %d chunks", doc.Title, len(doc.Chunks))
	return doc.ToDomain(), nil
}

func (s *Service) Search(ctx context.Context, query string, k int) ([]Snippet, error) {
	query = strings.TrimSpace(query)
	if query == "" || k <= 0 {
		return []Snippet{}, nil
	}

	key := s.cacheKey(query, k)
	if s.cache != nil {
		if raw, ok := s.cache.Get(key); ok {
			var hits []Snippet
			if err := json.Unmarshal([]byte(raw), &hits); err == nil {
				return hits, nil
			}
		}
	}

	vec, err := s.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	hits, err := s.repo.Nearest(ctx, vec, k)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(hits); err == nil {
			if err := s.cache.Set(key, string(raw), s.ttl); err != nil {
				s.logger.Debugf("cache set %s: %v", key, err)
			}
		}
	}
	return hits, nil
}

// Retrieve returns snippet texts best first.
func (s *Service) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	hits, err := s.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Content
	}
	return out, nil
}

func (s *Service) cacheKey(query string, k int) string {
	sum := sha1.Sum([]byte(strings.ToLower(query)))
	return fmt.Sprintf("knowledge:search:%d:%d:%s", s.revision.Load(), k, hex.EncodeToString(sum[:]))
}
