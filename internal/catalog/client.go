package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/apperror"
	"github.com/spigell/assessment-recommender/internal/metrics"
	"github.com/spigell/assessment-recommender/internal/telemetry"
)

const (
	// The catalog rejects requests that do not look like a browser.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	acceptHeader     = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	defaultMaxPageSize = 16 << 20
)

// Fetcher downloads the catalog page with a bounded number of attempts.
type Fetcher struct {
	client      *retryablehttp.Client
	logger      *zap.Logger
	maxPageSize int64
	UserAgent   string
}

// NewFetcher builds a fetcher that makes at most attempts requests, each one
// limited by timeout.
func NewFetcher(logger *zap.Logger, timeout time.Duration, attempts int, waitMin, waitMax time.Duration) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(
			transport,
			otelhttp.WithSpanNameFormatter(telemetry.SpanNameFormatter),
		),
	}
	client.RetryMax = attempts - 1
	client.RetryWaitMin = waitMin
	client.RetryWaitMax = waitMax
	client.CheckRetry = retryFailedAttempts
	client.Backoff = boundedBackoff
	client.ErrorHandler = giveUp
	client.Logger = &leveledLogger{logger: logger}
	client.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		metrics.CatalogFetchAttempts.WithLabelValues(strconv.Itoa(attempt + 1)).Inc()
		if attempt > 0 {
			logger.Info("retrying catalog fetch", zap.String("url", req.URL.String()), zap.Int("attempt", attempt+1))
		}
	}

	return &Fetcher{
		client:      client,
		logger:      logger,
		maxPageSize: defaultMaxPageSize,
		UserAgent:   defaultUserAgent,
	}
}

// Fetch returns the body of the page at url. Exhausted attempts are reported
// as apperror.KindServiceUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, url string) (body []byte, err error) {
	ctx, span := telemetry.Start(ctx)
	defer func() {
		telemetry.RecordErrorAndStatus(span, err)
		span.End()
	}()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	f.setHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyFetchError(err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, f.maxPageSize+1))
	if err != nil {
		return nil, classifyFetchError(err)
	}
	if int64(len(body)) > f.maxPageSize {
		return nil, apperror.Unavailable(fmt.Errorf("catalog page exceeds %d bytes", f.maxPageSize))
	}

	f.logger.Debug("catalog page fetched", zap.String("url", url), zap.Int("bytes", len(body)))

	return body, nil
}

func (f *Fetcher) setHeaders(req *retryablehttp.Request) {
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", acceptHeader)
}

// retryFailedAttempts treats every transport error and every non-2xx status
// as a failed attempt. A done context stops the loop.
func retryFailedAttempts(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return true, nil
	}
	return false, nil
}

// boundedBackoff honours Retry-After but never waits outside [waitMin, waitMax].
func boundedBackoff(waitMin, waitMax time.Duration, attempt int, resp *http.Response) time.Duration {
	wait := retryablehttp.DefaultBackoff(waitMin, waitMax, attempt, resp)
	return max(waitMin, min(wait, waitMax))
}

func giveUp(resp *http.Response, err error, attempts int) (*http.Response, error) {
	if resp != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		if err == nil {
			err = fmt.Errorf("unexpected status %s", resp.Status)
		}
	}
	if err == nil {
		err = errors.New("no response")
	}
	return nil, fmt.Errorf("giving up after %d attempt(s): %w", attempts, err)
}

func classifyFetchError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperror.Timeout(err)
	}
	return apperror.Unavailable(err)
}

// leveledLogger routes retryablehttp logs into zap. Request failures are
// expected while retrying, so they are logged as warnings.
type leveledLogger struct {
	logger *zap.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Warnw(msg, keysAndValues...)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Warnw(msg, keysAndValues...)
}
