package llmclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/config"
)

// Engine is one configured backing model.
type Engine struct {
	Name    string
	Client  schemas.LLMClient
	Pricing *config.PricingConfig
}

// Router implements schemas.Oracle over a primary engine and an optional
// backup used when the caller allows fallback.
type Router struct {
	logger  *zap.Logger
	primary Engine
	backup  *Engine
	limiter *rate.Limiter
}

var _ schemas.Oracle = (*Router)(nil)

// NewRouter creates a router. requestsPerMinute <= 0 disables throttling.
func NewRouter(logger *zap.Logger, primary Engine, backup *Engine, requestsPerMinute float64) (*Router, error) {
	if primary.Client == nil {
		return nil, fmt.Errorf("a primary engine must be provided")
	}
	if backup != nil && backup.Client == nil {
		backup = nil
	}

	r := &Router{
		logger:  logger.Named("llm_router"),
		primary: primary,
		backup:  backup,
	}
	if requestsPerMinute > 0 {
		r.limiter = rate.NewLimiter(rate.Every(time.Duration(float64(time.Minute)/requestsPerMinute)), 1)
	}
	return r, nil
}

// Send asks the primary engine and, when allowed, the backup after a failure.
func (r *Router) Send(ctx context.Context, req schemas.GenerationRequest, channel string, allowFallback bool) (string, schemas.Cost, error) {
	text, cost, err := r.call(ctx, r.primary, req, channel)
	if err == nil {
		return text, cost, nil
	}
	if !allowFallback || r.backup == nil || errors.Is(err, context.Canceled) {
		return "", schemas.UnknownCost(), err
	}

	r.logger.Warn("Primary engine failed, falling back.",
		zap.String("channel", channel),
		zap.String("primary", r.primary.Name),
		zap.String("backup", r.backup.Name),
		zap.Error(err))

	text, cost, backupErr := r.call(ctx, *r.backup, req, channel)
	if backupErr != nil {
		return "", schemas.UnknownCost(), fmt.Errorf("%v; fallback: %w", err, backupErr)
	}
	return text, cost, nil
}

func (r *Router) call(ctx context.Context, e Engine, req schemas.GenerationRequest, channel string) (string, schemas.Cost, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", schemas.UnknownCost(), fmt.Errorf("rate limiter: %w", err)
		}
	}

	r.logger.Debug("Routing LLM request", zap.String("channel", channel), zap.String("engine", e.Name))
	gen, err := e.Client.Generate(ctx, req)
	if err != nil {
		return "", schemas.UnknownCost(), fmt.Errorf("engine %s: %w", e.Name, err)
	}
	return gen.Text, Price(e.Pricing, gen), nil
}

// Close releases both engines.
func (r *Router) Close() error {
	errs := []error{r.primary.Client.Close()}
	if r.backup != nil {
		errs = append(errs, r.backup.Client.Close())
	}
	return errors.Join(errs...)
}
