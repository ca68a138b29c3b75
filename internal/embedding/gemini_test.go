package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"
)

type fakeEmbedModels struct {
	mu     sync.Mutex
	calls  [][]string
	models []string
	config *genai.EmbedContentConfig
	err    error
	short  bool
}

// EmbedContent answers each text with a one-element vector holding its
// position across all calls, which makes ordering visible in assertions.
func (f *fakeEmbedModels) EmbedContent(_ context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	offset := 0
	for _, call := range f.calls {
		offset += len(call)
	}

	texts := make([]string, 0, len(contents))
	resp := &genai.EmbedContentResponse{}
	for i, content := range contents {
		texts = append(texts, content.Parts[0].Text)
		resp.Embeddings = append(resp.Embeddings, &genai.ContentEmbedding{Values: []float32{float32(offset + i)}})
	}
	if f.short {
		resp.Embeddings = resp.Embeddings[:len(resp.Embeddings)-1]
	}

	f.calls = append(f.calls, texts)
	f.models = append(f.models, model)
	f.config = config

	return resp, nil
}

func TestGeminiEmbedBatchSplitsAndKeepsOrder(t *testing.T) {
	t.Parallel()

	fake := &fakeEmbedModels{}
	g := newGemini(fake, "", 2, zaptest.NewLogger(t))

	vectors, err := g.EmbedBatch(context.Background(), []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, fake.calls)
	assert.Equal(t, [][]float32{{0}, {1}, {2}, {3}, {4}}, vectors)
	assert.Equal(t, []string{defaultGeminiModel, defaultGeminiModel, defaultGeminiModel}, fake.models)
	assert.Equal(t, taskType, fake.config.TaskType)
}

func TestGeminiEmbedSingleText(t *testing.T) {
	t.Parallel()

	fake := &fakeEmbedModels{}
	g := newGemini(fake, "custom-model", 0, nil)

	vector, err := g.Embed(context.Background(), "Java developer")
	require.NoError(t, err)
	assert.Equal(t, []float32{0}, vector)
	assert.Equal(t, []string{"custom-model"}, fake.models)
	assert.Equal(t, "custom-model", g.Model())
	assert.Equal(t, ProviderGemini, g.Provider())
	assert.Equal(t, defaultBatchSize, g.batchSize)
}

func TestGeminiEmbedErrors(t *testing.T) {
	t.Parallel()

	t.Run("api error", func(t *testing.T) {
		g := newGemini(&fakeEmbedModels{err: errors.New("quota exceeded")}, "", 10, nil)
		_, err := g.Embed(context.Background(), "query")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("count mismatch", func(t *testing.T) {
		g := newGemini(&fakeEmbedModels{short: true}, "", 10, nil)
		_, err := g.EmbedBatch(context.Background(), []string{"a", "b"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "returned 1 embeddings for 2 texts")
	})

	t.Run("empty text", func(t *testing.T) {
		fake := &fakeEmbedModels{}
		g := newGemini(fake, "", 10, nil)
		_, err := g.EmbedBatch(context.Background(), []string{"a", "  "})
		require.Error(t, err)
		assert.Empty(t, fake.calls)
	})

	t.Run("not initialized", func(t *testing.T) {
		var g *Gemini
		_, err := g.EmbedBatch(context.Background(), []string{"a"})
		require.Error(t, err)
	})
}

func TestNewGeminiRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := NewGemini(context.Background(), " ", "", 0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is required")
}
