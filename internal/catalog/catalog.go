// Package catalog acquires the assessment catalog: it fetches the listing
// page and extracts assessment records from it.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/logger"
	"github.com/spigell/assessment-recommender/internal/metrics"
)

const DefaultURL = "https://www.shl.com/solutions/products/product-catalog/"

type Config struct {
	URL          string        `mapstructure:"url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Attempts     int           `mapstructure:"attempts"`
	RetryWaitMin time.Duration `mapstructure:"retry-wait-min"`
	RetryWaitMax time.Duration `mapstructure:"retry-wait-max"`
	UserAgent    string        `mapstructure:"user-agent"`
	Shapes       []Shape       `mapstructure:"-"`
}

func DefaultConfig() Config {
	return Config{
		URL:          DefaultURL,
		Timeout:      10 * time.Second,
		Attempts:     3,
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
		UserAgent:    defaultUserAgent,
		Shapes:       DefaultShapes(),
	}
}

func (c Config) Validate() error {
	if c.Attempts < 1 {
		return errors.New("catalog attempts must be at least 1")
	}
	if c.Timeout <= 0 {
		return errors.New("catalog timeout must be positive")
	}
	if c.RetryWaitMin < 0 || c.RetryWaitMax < c.RetryWaitMin {
		return fmt.Errorf("invalid catalog retry wait range %s..%s", c.RetryWaitMin, c.RetryWaitMax)
	}
	if len(c.Shapes) == 0 {
		return errors.New("catalog needs at least one page shape")
	}
	for _, shape := range c.Shapes {
		if err := shape.Validate(); err != nil {
			return err
		}
	}
	_, err := Origin(c.URL)
	return err
}

// Catalog loads a fresh snapshot of the assessment catalog on every call.
type Catalog struct {
	url       string
	fetcher   *Fetcher
	extractor *Extractor
	logger    *zap.Logger
}

func New(cfg Config, log *zap.Logger) (*Catalog, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log = logger.WithFields(log).Named("catalog")
	origin, _ := Origin(cfg.URL)

	fetcher := NewFetcher(log, cfg.Timeout, cfg.Attempts, cfg.RetryWaitMin, cfg.RetryWaitMax)
	if cfg.UserAgent != "" {
		fetcher.UserAgent = cfg.UserAgent
	}

	return &Catalog{
		url:       cfg.URL,
		fetcher:   fetcher,
		extractor: NewExtractor(origin, ShapeDetectors(cfg.Shapes), log),
		logger:    log,
	}, nil
}

// Load fetches the catalog page and extracts its records. Extraction runs
// once: a markup mismatch is never retried.
func (c *Catalog) Load(ctx context.Context) (*Assessments, error) {
	start := time.Now()
	page, err := c.fetcher.Fetch(ctx, c.url)
	metrics.StageDuration.WithLabelValues(metrics.StageFetch).Observe(time.Since(start).Seconds())
	if err != nil {
		c.logger.Warn("catalog fetch failed", zap.Error(err))
		return nil, err
	}

	assessments, err := c.extractor.Extract(bytes.NewReader(page))
	if err != nil {
		c.logger.Warn("catalog extraction failed", zap.Error(err))
		return nil, err
	}

	metrics.CatalogAssessments.Set(float64(assessments.Len()))
	c.logger.Info("catalog loaded",
		zap.Int("assessments", assessments.Len()),
		zap.Any("test_types", assessments.CountByTestType()),
	)

	return assessments, nil
}

// Origin returns the scheme://host part of rawURL, the base for relative links.
func Origin(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse catalog url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("catalog url %q must be absolute", rawURL)
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}
