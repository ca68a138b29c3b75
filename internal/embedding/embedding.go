// Package embedding turns text into vectors for similarity ranking.
package embedding

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/secrets"
)

const (
	ProviderGemini  = "gemini"
	ProviderHashing = "hashing"
)

// Embedder maps text to a fixed-length vector. EmbedBatch returns one vector
// per input, in input order, equal to calling Embed on each text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Provider() string
	Model() string
	Close() error
}

type GeminiConfig struct {
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	BatchSize  int    `mapstructure:"batch-size"`
}

type HashingConfig struct {
	Dimensions int `mapstructure:"dimensions"`
}

type Config struct {
	Provider string        `mapstructure:"provider"`
	Gemini   GeminiConfig  `mapstructure:"gemini"`
	Hashing  HashingConfig `mapstructure:"hashing"`
}

func DefaultConfig() Config {
	return Config{
		Provider: ProviderGemini,
		Gemini: GeminiConfig{
			Model:     defaultGeminiModel,
			BatchSize: defaultBatchSize,
		},
		Hashing: HashingConfig{
			Dimensions: defaultDimensions,
		},
	}
}

// New builds the process-wide embedder selected by cfg.Provider.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Embedder, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderGemini, "":
		keyFile := cfg.Gemini.APIKeyFile
		if keyFile == "" && cfg.Gemini.APIKey == "" {
			keyFile = os.Getenv(envKeyFile)
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			File:  keyFile,
			Value: cfg.Gemini.APIKey,
			Env:   envKey,
		})
		if err != nil {
			return nil, err
		}
		return NewGemini(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.BatchSize, logger)
	case ProviderHashing:
		return NewHashing(cfg.Hashing.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// AssessmentText is the document text embedded for an assessment. Changing it
// changes ranking.
func AssessmentText(a *catalog.Assessment) string {
	return fmt.Sprintf("%s %s assessment. Duration: %s", a.Name, a.TestType, a.Duration)
}

// AssessmentTexts renders AssessmentText for every record, keeping order.
func AssessmentTexts(assessments *catalog.Assessments) []string {
	if assessments == nil {
		return nil
	}
	texts := make([]string, 0, assessments.Len())
	for _, a := range assessments.Items {
		texts = append(texts, AssessmentText(a))
	}
	return texts
}
