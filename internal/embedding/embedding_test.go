package embedding

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/assessment-recommender/internal/catalog"
)

func TestAssessmentText(t *testing.T) {
	t.Parallel()

	a := &catalog.Assessment{
		Name:     "Java Programming Skills Test",
		TestType: catalog.TestTypeSkills,
		Duration: "40 minutes",
	}

	assert.Equal(t, "Java Programming Skills Test Skills assessment. Duration: 40 minutes", AssessmentText(a))

	texts := AssessmentTexts(&catalog.Assessments{Items: []*catalog.Assessment{
		a,
		{Name: "Team Fit", TestType: catalog.TestTypeGeneral, Duration: catalog.DurationNotSpecified},
	}})
	assert.Equal(t, []string{
		"Java Programming Skills Test Skills assessment. Duration: 40 minutes",
		"Team Fit General assessment. Duration: Not specified",
	}, texts)
	assert.Nil(t, AssessmentTexts(nil))
}

func TestNewSelectsProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "Hashing"
	cfg.Hashing.Dimensions = 16

	embedder, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, ProviderHashing, embedder.Provider())
	assert.Equal(t, "fnv-16", embedder.Model())
	assert.NoError(t, embedder.Close())

	cfg.Provider = "word2vec"
	_, err = New(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown embedding provider")
}

func TestNewGeminiNeedsKey(t *testing.T) {
	t.Setenv(envKey, "")
	t.Setenv(envKeyFile, "")

	_, err := New(context.Background(), DefaultConfig(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini api key is not configured (set GEMINI_API_KEY)")
}

func TestNewGeminiReadsKeyFileFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("test-key\n"), 0o600))

	t.Setenv(envKey, "")
	t.Setenv(envKeyFile, path)

	embedder, err := New(context.Background(), DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, embedder.Provider())
	assert.Equal(t, defaultGeminiModel, embedder.Model())
}
