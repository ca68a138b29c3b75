// Package ranking scores catalog records against a query vector.
package ranking

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/spigell/assessment-recommender/internal/catalog"
)

// DefaultMinScore is the relevance floor. Scores equal to it are kept.
const DefaultMinScore = 0.10

var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Candidate pairs a record with its similarity to the query, in [-1, 1].
type Candidate struct {
	Assessment *catalog.Assessment
	Score      float64
}

type Candidates struct {
	Items []*Candidate
}

func (c *Candidates) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

func (c *Candidates) Names() []string {
	names := make([]string, 0, c.Len())
	for _, item := range c.Items {
		names = append(names, item.Assessment.Name)
	}
	return names
}

// Assessments returns the records in ranked order.
func (c *Candidates) Assessments() []*catalog.Assessment {
	out := make([]*catalog.Assessment, 0, c.Len())
	for _, item := range c.Items {
		out = append(out, item.Assessment)
	}
	return out
}

// Keep retains candidates for which keep returns true, preserving order,
// and returns the names of the dropped ones.
func (c *Candidates) Keep(keep func(*Candidate) bool) []string {
	var dropped []string
	kept := c.Items[:0]
	for _, item := range c.Items {
		if keep(item) {
			kept = append(kept, item)
			continue
		}
		dropped = append(dropped, item.Assessment.Name)
	}
	c.Items = kept
	return dropped
}

// Truncate keeps at most n leading candidates.
func (c *Candidates) Truncate(n int) {
	if n >= 0 && n < len(c.Items) {
		c.Items = c.Items[:n]
	}
}

// Rank scores every record against query and orders them by descending
// score. vectors[i] belongs to assessments.Items[i]; equal scores keep the
// extraction order.
func Rank(query []float32, assessments *catalog.Assessments, vectors [][]float32) (*Candidates, error) {
	if assessments.Len() != len(vectors) {
		return nil, fmt.Errorf("got %d vectors for %d assessments", len(vectors), assessments.Len())
	}

	candidates := &Candidates{Items: make([]*Candidate, 0, len(vectors))}
	for i, vector := range vectors {
		score, err := CosineSimilarity(query, vector)
		if err != nil {
			return nil, fmt.Errorf("assessment %q: %w", assessments.Items[i].Name, err)
		}
		candidates.Items = append(candidates.Items, &Candidate{
			Assessment: assessments.Items[i],
			Score:      score,
		})
	}

	sort.SliceStable(candidates.Items, func(i, j int) bool {
		return candidates.Items[i].Score > candidates.Items[j].Score
	})

	return candidates, nil
}

// CosineSimilarity returns the cosine of the angle between a and b. A zero
// vector has similarity 0 with everything.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, score)), nil
}
