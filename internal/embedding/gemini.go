package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/assessment-recommender/internal/logger"
	"github.com/spigell/assessment-recommender/internal/metrics"
)

const (
	defaultGeminiModel = "text-embedding-004"
	defaultBatchSize   = 100

	envKey     = "GEMINI_API_KEY"
	envKeyFile = "GEMINI_API_KEY_FILE"

	// Queries and catalog texts share one task type so that a batch call
	// and single calls produce the same vectors.
	taskType = "SEMANTIC_SIMILARITY"
)

type embedModels interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Gemini embeds text with the Gemini embedding API.
type Gemini struct {
	models    embedModels
	modelName string
	batchSize int
	logger    *zap.Logger
}

// NewGemini creates an embedder for the Gemini API backend.
func NewGemini(ctx context.Context, apiKey, model string, batchSize int, log *zap.Logger) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGemini(client.Models, model, batchSize, log), nil
}

func newGemini(models embedModels, model string, batchSize int, log *zap.Logger) *Gemini {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultGeminiModel
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &Gemini{
		models:    models,
		modelName: model,
		batchSize: batchSize,
		logger:    logger.WithEmbedder(log, ProviderGemini, model),
	}
}

func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch sends texts in chunks of at most the configured batch size and
// concatenates the results in input order.
func (g *Gemini) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if g == nil || g.models == nil {
		return nil, errors.New("gemini embedder is not initialized")
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.batchSize {
		end := min(start+g.batchSize, len(texts))

		batch, err := g.embedChunk(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

func (g *Gemini) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("text %d is empty", i)
		}
		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: text}},
		})
	}

	resp, err := g.models.EmbedContent(ctx, g.modelName, contents, &genai.EmbedContentConfig{TaskType: taskType})
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	metrics.EmbeddingTexts.WithLabelValues(ProviderGemini).Add(float64(len(texts)))

	if resp == nil || len(resp.Embeddings) != len(texts) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("gemini api returned %d embeddings for %d texts", got, len(texts))
	}

	vectors := make([][]float32, 0, len(texts))
	for i, embedding := range resp.Embeddings {
		if embedding == nil || len(embedding.Values) == 0 {
			return nil, fmt.Errorf("gemini api returned empty embedding for text %d", i)
		}
		vectors = append(vectors, embedding.Values)
	}

	g.logger.Debug("embedded batch", zap.Int("texts", len(texts)))

	return vectors, nil
}

func (g *Gemini) Provider() string { return ProviderGemini }

func (g *Gemini) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}

func (g *Gemini) Close() error { return nil }
