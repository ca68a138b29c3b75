package embedding

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/spigell/assessment-recommender/internal/metrics"
)

const defaultDimensions = 384

// Hashing is an offline embedder: lower-cased word unigrams and bigrams are
// hashed into a fixed number of signed buckets and the result is L2
// normalised. It needs no model or network and is deterministic.
type Hashing struct {
	dimensions int
}

func NewHashing(dimensions int) (*Hashing, error) {
	if dimensions == 0 {
		dimensions = defaultDimensions
	}
	if dimensions < 0 {
		return nil, fmt.Errorf("hashing dimensions must be positive, got %d", dimensions)
	}
	return &Hashing{dimensions: dimensions}, nil
}

func (h *Hashing) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text is empty")
	}

	metrics.EmbeddingTexts.WithLabelValues(ProviderHashing).Inc()

	vector := make([]float32, h.dimensions)
	tokens := tokenize(text)
	for i, token := range tokens {
		h.add(vector, token)
		if i > 0 {
			h.add(vector, tokens[i-1]+" "+token)
		}
	}

	normalize(vector)
	return vector, nil
}

func (h *Hashing) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vector, err := h.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

func (h *Hashing) Provider() string { return ProviderHashing }

func (h *Hashing) Model() string { return fmt.Sprintf("fnv-%d", h.dimensions) }

func (h *Hashing) Close() error { return nil }

func (h *Hashing) add(vector []float32, feature string) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()

	index := sum % uint64(h.dimensions)
	if sum>>63 == 1 {
		vector[index]--
		return
	}
	vector[index]++
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vector []float32) {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}

	norm := float32(math.Sqrt(sum))
	if norm == 0 {
		return
	}
	for i := range vector {
		vector[i] /= norm
	}
}
