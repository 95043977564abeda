package knowledge

import (
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/parley/internal/database/dbtypes"
)

type DocumentEntity struct {
	ID      uuid.UUID `gorm:"primaryKey;type:char(36);not null"`
	Title   string    `gorm:"type:varchar(255)"`
	Content string    `gorm:"type:text"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Chunks []ChunkEntity `gorm:"foreignKey:DocumentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (DocumentEntity) TableName() string { return "knowledge_documents" }

// ChunkEntity is one embedded slice of a document.
type ChunkEntity struct {
	ID         uuid.UUID       `gorm:"primaryKey;type:char(36);not null"`
	DocumentID uuid.UUID       `gorm:"column:document_id;type:char(36);not null;index"`
	ChunkIndex int             `gorm:"column:chunk_index"`
	Content    string          `gorm:"type:text"`
	Embedding  dbtypes.XVector `gorm:"column:embedding"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ChunkEntity) TableName() string { return "knowledge_chunks" }

type Document struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Chunks    int       `json:"chunks"`
	CreatedAt time.Time `json:"createdAt"`
}

func (d *DocumentEntity) ToDomain() *Document {
	return &Document{
		ID:        d.ID,
		Title:     d.Title,
		Chunks:    len(d.Chunks),
		CreatedAt: d.CreatedAt,
	}
}

// Snippet is a search hit. Score is cosine similarity, higher is closer.
type Snippet struct {
	DocumentID uuid.UUID `json:"documentId"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Score      float64   `json:"score"`
}
