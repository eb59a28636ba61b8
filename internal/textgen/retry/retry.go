package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"geolabel/internal/domain"
)

// Config controls how many times a failed request is repeated.
type Config struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// Retryable filters errors worth repeating. Nil retries every error.
	Retryable func(error) bool
}

// Generator repeats failed requests of the wrapped generator with exponential backoff.
// Retrying is a caller decision: the labeling pipeline never wraps generators itself.
type Generator struct {
	next domain.Generator
	cfg  Config
	log  *slog.Logger
}

// Wrap returns next unchanged when cfg.MaxRetries is zero.
func Wrap(next domain.Generator, cfg Config, log *slog.Logger) domain.Generator {
	if cfg.MaxRetries == 0 {
		return next
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 500 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Generator{next: next, cfg: cfg, log: log}
}

func (g *Generator) Name() string { return g.next.Name() }

func (g *Generator) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResponse, error) {
	var resp domain.GenerateResponse
	op := func() error {
		r, err := g.next.Generate(ctx, req)
		if err != nil {
			if g.cfg.Retryable != nil && !g.cfg.Retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = r
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = g.cfg.InitialInterval
	policy.MaxInterval = g.cfg.MaxInterval
	policy.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		g.log.Warn("retrying label request", "generator", g.next.Name(), "wait", wait, "err", err)
	}
	err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(policy, g.cfg.MaxRetries), ctx), notify)
	if err != nil {
		return domain.GenerateResponse{}, err
	}
	return resp, nil
}
