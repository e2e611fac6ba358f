package syncer

import (
	"context"
	"fmt"

	"github.com/fieldops/fieldmirror/internal/logging"
	"github.com/fieldops/fieldmirror/internal/metrics"
	"github.com/fieldops/fieldmirror/internal/providers"
)

// fetchPageWithRetry fetches one page, retrying transient and rate-limited
// failures through the limiter's backoff up to maxRetries attempts.
// AuthExpired and Fatal errors surface immediately.
func fetchPageWithRetry(
	ctx context.Context,
	provider providers.DataProvider,
	limiter *RateLimiter,
	reg *metrics.MetricsRegistry,
	maxRetries int,
	resource string,
	filters map[string]any,
	page int,
) (*providers.PageResult, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		result, err := provider.FetchPage(ctx, resource, filters, page)
		if err == nil {
			limiter.OnSuccess()
			if reg != nil {
				reg.FetchPagesTotal.WithLabelValues(resource, "ok").Inc()
				reg.RateLimiterDelay.WithLabelValues(resource).Set(limiter.CurrentDelay().Seconds())
			}
			return result, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !providers.IsRetryable(err) {
			if reg != nil {
				reg.FetchPagesTotal.WithLabelValues(resource, providers.Classify(err).String()).Inc()
			}
			return nil, err
		}

		limiter.OnError()
		if reg != nil {
			reg.FetchRetriesTotal.WithLabelValues(resource).Inc()
			reg.RateLimiterDelay.WithLabelValues(resource).Set(limiter.CurrentDelay().Seconds())
		}
		logging.Warn("Retrying page fetch",
			"resource", resource,
			"page", page,
			"attempt", attempt+1,
			"max_retries", maxRetries,
			"error", err.Error(),
		)
	}

	if reg != nil {
		reg.FetchPagesTotal.WithLabelValues(resource, "retries_exhausted").Inc()
	}
	return nil, fmt.Errorf("fetch %s page %d: retries exhausted: %w", resource, page, lastErr)
}
