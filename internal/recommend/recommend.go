// Package recommend runs the recommendation pipeline: it loads the catalog,
// embeds the query and the records, ranks, filters and truncates.
package recommend

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/apperror"
	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/embedding"
	"github.com/spigell/assessment-recommender/internal/filtering"
	"github.com/spigell/assessment-recommender/internal/logger"
	"github.com/spigell/assessment-recommender/internal/metrics"
	"github.com/spigell/assessment-recommender/internal/ranking"
	"github.com/spigell/assessment-recommender/internal/telemetry"
)

const queryPreviewLength = 80

// CatalogSource provides a fresh catalog snapshot per call.
type CatalogSource interface {
	Load(ctx context.Context) (*catalog.Assessments, error)
}

type Config struct {
	MinScore          float64 `mapstructure:"min-score"`
	DefaultMaxResults int     `mapstructure:"default-max-results"`
}

func DefaultConfig() Config {
	return Config{
		MinScore:          ranking.DefaultMinScore,
		DefaultMaxResults: DefaultMaxResults,
	}
}

// Result is the response payload of a successful recommendation.
type Result struct {
	Recommendations []*catalog.Assessment `json:"recommendations"`
}

// Service is safe for concurrent use; requests share only the embedder.
type Service struct {
	cfg      Config
	catalog  CatalogSource
	embedder embedding.Embedder
	logger   *zap.Logger
}

// Validate rejects settings every request would fail on.
func (c Config) Validate() error {
	for _, step := range filtering.Steps(c.MinScore, 0) {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return fmt.Errorf("recommend: %s: %w", step.Name(), err)
		}
	}
	return nil
}

func New(cfg Config, source CatalogSource, embedder embedding.Embedder, log *zap.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.DefaultMaxResults <= 0 {
		cfg.DefaultMaxResults = DefaultMaxResults
	}
	return &Service{
		cfg:      cfg,
		catalog:  source,
		embedder: embedder,
		logger:   logger.WithEmbedder(log, embedder.Provider(), embedder.Model()).Named("recommend"),
	}, nil
}

// NewQuery validates caller input with the service's default result count.
func (s *Service) NewQuery(text string, maxResults, maxDuration *int) (Query, error) {
	return NewQuery(text, maxResults, maxDuration, s.cfg.DefaultMaxResults)
}

// Describe reports the filter steps requests run through.
func (s *Service) Describe() []filtering.Status {
	return filtering.Describe(filtering.Steps(s.cfg.MinScore, 0))
}

// Recommend returns at most q.MaxResults assessments ordered by descending
// relevance. Failures are *apperror.Error values.
func (s *Service) Recommend(ctx context.Context, q Query) (result *Result, err error) {
	ctx, span := telemetry.Start(ctx, trace.WithAttributes(
		attribute.Int("query.max_results", q.MaxResults),
		attribute.Int("query.max_duration", q.MaxDuration),
	))
	defer func() {
		telemetry.RecordErrorAndStatus(span, err)
		span.End()
		s.observe(err)
	}()

	log := s.logger.With(
		zap.String("query_preview", logger.Preview(q.Text, queryPreviewLength)),
		zap.Int("max_results", q.MaxResults),
		zap.Int("max_duration", q.MaxDuration),
	)
	if id := RequestID(ctx); id != "" {
		log = logger.WithRequestID(log, id)
	}

	assessments, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, apperror.As(err)
	}

	queryVector, err := timed(metrics.StageEmbedQuery, func() ([]float32, error) {
		return s.embedder.Embed(ctx, q.Text)
	})
	if err != nil {
		return nil, apperror.QueryEmbedding(err)
	}

	vectors, err := timed(metrics.StageEmbedCatalog, func() ([][]float32, error) {
		return s.embedder.EmbedBatch(ctx, embedding.AssessmentTexts(assessments))
	})
	if err != nil {
		return nil, apperror.CatalogEmbedding(err)
	}

	ranked, err := timed(metrics.StageRank, func() (*ranking.Candidates, error) {
		return ranking.Rank(queryVector, assessments, vectors)
	})
	if err != nil {
		return nil, apperror.CatalogEmbedding(err)
	}

	filtered, err := timed(metrics.StageFilter, func() (*ranking.Candidates, error) {
		return filtering.Run(ctx, filtering.Deps{Logger: log}, filtering.Steps(s.cfg.MinScore, q.MaxDuration), ranked)
	})
	if err != nil {
		return nil, apperror.Internal(err)
	}

	if filtered.Len() == 0 {
		if q.HasDurationLimit() {
			return nil, apperror.NoDurationMatch(q.MaxDuration)
		}
		return nil, apperror.NoRelevantMatch()
	}

	filtered.Truncate(q.MaxResults)

	log.Info("recommendations ready",
		zap.Int("catalog_size", assessments.Len()),
		zap.Int("returned", filtered.Len()),
		zap.Strings("assessments", filtered.Names()),
	)

	return &Result{Recommendations: filtered.Assessments()}, nil
}

func (s *Service) observe(err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(apperror.KindOf(err))
	}
	metrics.RecommendationsTotal.WithLabelValues(outcome).Inc()
}

func timed[T any](stage string, fn func() (T, error)) (T, error) {
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}()
	return fn()
}

type requestIDKey struct{}

// WithRequestID stores the request correlation id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation id stored by WithRequestID.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
