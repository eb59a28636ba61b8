package labeler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"geolabel/internal/domain"
)

// SystemInstruction is sent with every label request.
const SystemInstruction = "You are a helpful assistant that creates concise labels for word clusters. " +
	"Given a list of related words, output a single short label (1-3 words) that " +
	"best summarizes or categorizes the group. Output only the label, nothing else."

// Config bounds the requests a Labeler issues.
type Config struct {
	TokenSample       int
	MaxOutputTokens   int
	Temperature       float64
	Workers           int
	RequestsPerSecond float64
	RequestTimeout    time.Duration
}

// DefaultConfig returns the label request defaults.
func DefaultConfig() Config {
	return Config{
		TokenSample:     50,
		MaxOutputTokens: 20,
		Temperature:     0.3,
		Workers:         4,
		RequestTimeout:  30 * time.Second,
	}
}

// Labeler turns each cluster's tokens into a short label through a Generator.
type Labeler struct {
	gen     domain.Generator
	cfg     Config
	limiter *rate.Limiter
	log     *slog.Logger
}

// New creates a Labeler. Non-positive TokenSample, MaxOutputTokens, Workers and
// RequestTimeout take their DefaultConfig values. Temperature is used as given,
// zero included, and a zero RequestsPerSecond disables throttling.
func New(gen domain.Generator, cfg Config, log *slog.Logger) *Labeler {
	def := DefaultConfig()
	if cfg.TokenSample <= 0 {
		cfg.TokenSample = def.TokenSample
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = def.MaxOutputTokens
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	l := &Labeler{gen: gen, cfg: cfg, log: log}
	if cfg.RequestsPerSecond > 0 {
		l.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return l
}

// FallbackLabel is used for clusters that carry no tokens.
func FallbackLabel(id int) string {
	return fmt.Sprintf("Cluster %d", id)
}

// Sample returns the tokens sent for a cluster: the first TokenSample of them.
func (l *Labeler) Sample(tokens []string) []string {
	if len(tokens) > l.cfg.TokenSample {
		return tokens[:l.cfg.TokenSample]
	}
	return tokens
}

// LabelCluster labels one cluster. It makes no external call when the cluster
// has no tokens. Failures are returned as *domain.LabelError.
func (l *Labeler) LabelCluster(ctx context.Context, c domain.Cluster) (domain.LabeledCluster, error) {
	if len(c.Tokens) == 0 {
		return domain.LabeledCluster{Cluster: c, Label: FallbackLabel(c.ID)}, nil
	}
	sample := l.Sample(c.Tokens)
	fail := func(err error) (domain.LabeledCluster, error) {
		return domain.LabeledCluster{}, &domain.LabelError{ClusterID: c.ID, Tokens: sample, Err: err}
	}

	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return fail(err)
		}
	}
	rctx, cancel := context.WithTimeout(ctx, l.cfg.RequestTimeout)
	defer cancel()

	resp, err := l.gen.Generate(rctx, domain.GenerateRequest{
		SystemInstruction: SystemInstruction,
		Tokens:            sample,
		MaxOutputTokens:   l.cfg.MaxOutputTokens,
		Temperature:       l.cfg.Temperature,
	})
	if err != nil {
		return fail(fmt.Errorf("%s: %w", l.gen.Name(), err))
	}
	label := strings.TrimSpace(resp.Text)
	if label == "" {
		return fail(fmt.Errorf("%s: empty completion", l.gen.Name()))
	}
	return domain.LabeledCluster{Cluster: c, Label: label}, nil
}

// Label labels every cluster, keeping the input order. Requests run on a bounded
// pool. If any cluster fails, every failure is returned joined and no labels are.
func (l *Labeler) Label(ctx context.Context, clusters []domain.Cluster) ([]domain.LabeledCluster, error) {
	out := make([]domain.LabeledCluster, len(clusters))
	errs := make([]error, len(clusters))

	g := new(errgroup.Group)
	g.SetLimit(l.cfg.Workers)
	for i, c := range clusters {
		if ctx.Err() != nil {
			errs[i] = &domain.LabelError{ClusterID: c.ID, Tokens: l.Sample(c.Tokens), Err: ctx.Err()}
			continue
		}
		g.Go(func() error {
			l.log.Info("generating label",
				"progress", fmt.Sprintf("%d/%d", i+1, len(clusters)),
				"cluster", c.ID, "tokens", len(c.Tokens))
			lc, err := l.LabelCluster(ctx, c)
			if err != nil {
				l.log.Error("label failed", "cluster", c.ID, "err", err)
				errs[i] = err
				return nil
			}
			l.log.Debug("label generated", "cluster", c.ID, "label", lc.Label)
			out[i] = lc
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}
