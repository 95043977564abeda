package knowledge

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/xpanvictor/parley/internal/database/dbtypes"
	"github.com/xpanvictor/parley/pkg/utils"
	"gorm.io/gorm"
)

// maxScan bounds the rows ranked in Go on databases without vector search.
const maxScan = 5000

type Repository interface {
	SaveDocument(ctx context.Context, doc *DocumentEntity) error
	Nearest(ctx context.Context, query dbtypes.XVector, k int) ([]Snippet, error)
	CountDocuments(ctx context.Context) (int64, error)
}

type GormKnowledgeRepo struct {
	db *gorm.DB
}

func NewGormKnowledgeRepo(db *gorm.DB) *GormKnowledgeRepo {
	return &GormKnowledgeRepo{db: db}
}

var _ Repository = (*GormKnowledgeRepo)(nil)

func (g *GormKnowledgeRepo) SaveDocument(ctx context.Context, doc *DocumentEntity) error {
	if err := g.db.WithContext(ctx).Create(doc).Error; err != nil {
		return utils.XError{Reason: "storing knowledge document", Meta: err}
	}
	return nil
}

func (g *GormKnowledgeRepo) CountDocuments(ctx context.Context) (int64, error) {
	var n int64
	err := g.db.WithContext(ctx).Model(&DocumentEntity{}).Count(&n).Error
	return n, err
}

type snippetRow struct {
	DocumentID string
	Title      string
	Content    string
	Score      float64
}

func (g *GormKnowledgeRepo) Nearest(ctx context.Context, query dbtypes.XVector, k int) ([]Snippet, error) {
	if k <= 0 || len(query) == 0 {
		return []Snippet{}, nil
	}
	db := g.db.WithContext(ctx)
	lit := query.Literal()

	var sql string
	switch db.Dialector.Name() {
	case "postgres":
		sql = `
            SELECT c.document_id, d.title, c.content, 1 - (c.embedding <=> ?::vector) AS score
            FROM knowledge_chunks c
            JOIN knowledge_documents d ON d.id = c.document_id
            ORDER BY c.embedding <=> ?::vector
            LIMIT ?
        `
	case "mysql":
		sql = `
            SELECT c.document_id, d.title, c.content, 1 - VEC_COSINE_DISTANCE(c.embedding, ?) AS score
            FROM knowledge_chunks c
            JOIN knowledge_documents d ON d.id = c.document_id
            ORDER BY VEC_COSINE_DISTANCE(c.embedding, ?)
            LIMIT ?
        `
	default:
		return g.scan(db, query, k)
	}

	var rows []snippetRow
	if err := db.Raw(sql, lit, lit, k).Scan(&rows).Error; err != nil {
		return nil, utils.XError{Reason: "vector search", Meta: err}
	}
	out := make([]Snippet, 0, len(rows))
	for _, r := range rows {
		id, err := uuid.Parse(r.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("vector search: bad document id %q: %w", r.DocumentID, err)
		}
		out = append(out, Snippet{DocumentID: id, Title: r.Title, Content: r.Content, Score: r.Score})
	}
	return out, nil
}

// scan ranks in Go for drivers without a distance operator.
func (g *GormKnowledgeRepo) scan(db *gorm.DB, query dbtypes.XVector, k int) ([]Snippet, error) {
	var chunks []ChunkEntity
	if err := db.Order("created_at DESC").Limit(maxScan).Find(&chunks).Error; err != nil {
		return nil, utils.XError{Reason: "loading knowledge chunks", Meta: err}
	}
	if len(chunks) == 0 {
		return []Snippet{}, nil
	}

	ids := make([]uuid.UUID, 0, len(chunks))
	seen := make(map[uuid.UUID]bool)
	for _, c := range chunks {
		if !seen[c.DocumentID] {
			seen[c.DocumentID] = true
			ids = append(ids, c.DocumentID)
		}
	}
	var docs []DocumentEntity
	if err := db.Select("id", "title").Where("id IN ?", ids).Find(&docs).Error; err != nil {
		return nil, utils.XError{Reason: "loading knowledge titles", Meta: err}
	}
	titles := make(map[uuid.UUID]string, len(docs))
	for _, d := range docs {
		titles[d.ID] = d.Title
	}

	candidates := make([]Candidate, len(chunks))
	for i, c := range chunks {
		candidates[i] = Candidate{
			DocumentID: c.DocumentID,
			Title:      titles[c.DocumentID],
			Content:    c.Content,
			Embedding:  c.Embedding,
		}
	}
	return Rank(query, candidates, k), nil
}
