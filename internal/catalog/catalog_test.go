package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spigell/assessment-recommender/internal/apperror"
)

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.URL = url
	cfg.Timeout = time.Second
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	return cfg
}

func TestLoadResolvesLinksAgainstCatalogOrigin(t *testing.T) {
	t.Parallel()

	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(cardsPage))
	}))
	defer server.Close()

	cfg := testConfig(server.URL + "/solutions/products/product-catalog/")
	cfg.UserAgent = "test-agent"

	catalog, err := New(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assessments, err := catalog.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, assessments.Len())
	assert.Equal(t, server.URL+"/products/java", assessments.Items[0].URL)
	assert.Equal(t, "https://www.shl.com/products/psi", assessments.Items[1].URL)
	assert.Equal(t, "test-agent", userAgent)
}

func TestLoadDoesNotRetryExtractionFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`<html><body><p>maintenance</p></body></html>`))
	}))
	defer server.Close()

	catalog, err := New(testConfig(server.URL), zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = catalog.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperror.KindExtractionFailed, apperror.KindOf(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestLoadUsesConfiguredShapes(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<ul><li class="tile"><h2>Tile</h2><a href="t">x</a></li></ul>`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Shapes = []Shape{{Label: "tiles", Tags: []string{"li"}, Classes: []string{"tile"}}}

	catalog, err := New(cfg, nil)
	require.NoError(t, err)

	assessments, err := catalog.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Tile"}, assessments.Names())
	assert.Equal(t, server.URL+"/t", assessments.Items[0].URL)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		err    string
	}{
		{"zero attempts", func(c *Config) { c.Attempts = 0 }, "attempts"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"inverted wait", func(c *Config) { c.RetryWaitMax = c.RetryWaitMin - 1 }, "retry wait"},
		{"no shapes", func(c *Config) { c.Shapes = nil }, "page shape"},
		{"relative url", func(c *Config) { c.URL = "/catalog" }, "must be absolute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}

func TestOrigin(t *testing.T) {
	t.Parallel()

	origin, err := Origin(DefaultURL)
	require.NoError(t, err)
	assert.Equal(t, "https://www.shl.com", origin)
}
