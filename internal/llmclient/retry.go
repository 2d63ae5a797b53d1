package llmclient

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/config"
)

// newBackOff is the retry schedule shared by the engine clients. Tests
// replace it with a fast, bounded policy.
var newBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute
	b.MaxInterval = 30 * time.Second
	return b
}

// retry runs op until it succeeds, returns a backoff.Permanent error, or the
// schedule or context runs out.
func retry(ctx context.Context, op backoff.Operation) error {
	return backoff.Retry(op, backoff.WithContext(newBackOff(), ctx))
}

// temperature prefers the request's value and falls back to the model default.
func temperature(req schemas.GenerationRequest, cfg config.LLMModelConfig) float64 {
	if req.Options.Temperature != 0 {
		return req.Options.Temperature
	}
	return float64(cfg.Temperature)
}

// retryableStatus reports whether an HTTP status is worth retrying.
func retryableStatus(code int) bool {
	return code == 408 || code == 429 || code >= 500
}
