// Package metrics holds the Prometheus collectors of the recommender.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline stages, used as the "stage" label.
const (
	StageFetch        = "fetch"
	StageEmbedQuery   = "embed_query"
	StageEmbedCatalog = "embed_catalog"
	StageRank         = "rank"
	StageFilter       = "filter"
)

var (
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommender_stage_duration_seconds",
			Help:    "Duration of recommendation pipeline stages in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		},
		[]string{"stage"},
	)

	CatalogFetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_catalog_fetch_attempts_total",
			Help: "Total number of catalog page fetch attempts",
		},
		[]string{"attempt"},
	)

	CatalogAssessments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommender_catalog_assessments",
			Help: "Number of assessments extracted from the last catalog fetch",
		},
	)

	EmbeddingTexts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_embedding_texts_total",
			Help: "Total number of texts sent to the embedding provider",
		},
		[]string{"provider"},
	)
)
