package knowledge

import (
	"sort"

	"github.com/google/uuid"
	"github.com/xpanvictor/parley/internal/database/dbtypes"
)

// Candidate is a stored chunk before scoring.
type Candidate struct {
	DocumentID uuid.UUID
	Title      string
	Content    string
	Embedding  dbtypes.XVector
}

// Rank scores candidates against query and keeps the best k, best first.
// Ties keep their input order.
func Rank(query dbtypes.XVector, candidates []Candidate, k int) []Snippet {
	if k <= 0 || len(candidates) == 0 {
		return []Snippet{}
	}
	scored := make([]Snippet, len(candidates))
	for i, c := range candidates {
		scored[i] = Snippet{
			DocumentID: c.DocumentID,
			Title:      c.Title,
			Content:    c.Content,
			Score:      dbtypes.Cosine(query, c.Embedding),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
