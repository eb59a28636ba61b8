package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"geolabel/internal/cluster"
	"geolabel/internal/config"
	"geolabel/internal/domain"
	"geolabel/internal/labeler"
	"geolabel/internal/pointsource"
	"geolabel/internal/pointsource/csv"
	"geolabel/internal/pointsource/parquet"
	"geolabel/internal/pointsource/sqlite"
	"geolabel/internal/sink/file"
	"geolabel/internal/sink/s3"
	"geolabel/internal/textgen/frequency"
	"geolabel/internal/textgen/openai"
	"geolabel/internal/textgen/retry"
)

func buildGenerator(cfg *config.AppConfig, logger *slog.Logger) (domain.Generator, error) {
	var gen domain.Generator
	var retryable func(error) bool
	switch cfg.Labeler.Type {
	case "frequency":
		gen = frequency.NewGenerator()
	case "openai":
		oc := cfg.Labeler.OpenAI
		key := os.Getenv(oc.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("%w: environment variable %s is not set", domain.ErrConfig, oc.APIKeyEnv)
		}
		client, err := openai.NewClient(openai.Config{BaseURL: oc.BaseURL, APIKey: key, Model: oc.Model})
		if err != nil {
			return nil, err
		}
		gen = client
		retryable = openai.IsRetryable
	default:
		return nil, fmt.Errorf("%w: unknown labeler: %s", domain.ErrConfig, cfg.Labeler.Type)
	}
	return retry.Wrap(gen, retry.Config{
		MaxRetries: uint64(cfg.Labeler.MaxRetries),
		Retryable:  retryable,
	}, logger), nil
}

func buildLabeler(cfg *config.AppConfig, gen domain.Generator, logger *slog.Logger) *labeler.Labeler {
	lc := cfg.Labeler
	return labeler.New(gen, labeler.Config{
		TokenSample:       lc.TokenSample,
		MaxOutputTokens:   lc.MaxOutputTokens,
		Temperature:       *lc.Temperature,
		Workers:           lc.Workers,
		RequestsPerSecond: lc.RequestsPerSecond,
		RequestTimeout:    time.Duration(lc.TimeoutSecs) * time.Second,
	}, logger)
}

func searchParams(cfg *config.AppConfig) cluster.SearchParams {
	return cluster.SearchParams{
		TargetClusters: cfg.Clustering.TargetClusters,
		MinSamples:     cfg.Clustering.MinSamples,
		EpsMin:         cfg.Clustering.EpsMin,
		EpsMax:         cfg.Clustering.EpsMax,
	}
}

// buildSource returns the configured point source and a release func for it.
func buildSource(ctx context.Context, cfg *config.AppConfig) (domain.PointSource, func(), error) {
	cols := pointsource.Columns{
		X:     cfg.Input.Columns.X,
		Y:     cfg.Input.Columns.Y,
		Token: cfg.Input.Columns.Token,
	}
	switch cfg.Input.Type {
	case "csv":
		return csv.NewSource(cfg.Input.Path, cols), func() {}, nil
	case "parquet":
		return parquet.NewSource(cfg.Input.Path, cols), func() {}, nil
	case "sqlite":
		if _, err := os.Stat(cfg.Input.Path); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrInput, err)
		}
		db, err := sqlite.Open(ctx, cfg.Input.Path)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewSource(db, cfg.Input.Table, cols), func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown input: %s", domain.ErrConfig, cfg.Input.Type)
	}
}

func buildSink(cfg *config.AppConfig) (domain.Sink, error) {
	switch cfg.Output.Type {
	case "file":
		return file.NewSink(cfg.Output.Path), nil
	case "s3":
		sc := cfg.Output.S3
		client, err := s3.NewClient(s3.Config{
			Bucket:    sc.Bucket,
			Key:       sc.Key,
			Region:    sc.Region,
			Endpoint:  sc.Endpoint,
			AccessKey: os.Getenv(sc.AccessKeyEnv),
			SecretKey: os.Getenv(sc.SecretKeyEnv),
		})
		if err != nil {
			return nil, err
		}
		return s3.NewSink(client, sc.Bucket, sc.Key), nil
	default:
		return nil, fmt.Errorf("%w: unknown output: %s", domain.ErrConfig, cfg.Output.Type)
	}
}

func describeSink(cfg *config.AppConfig) string {
	if cfg.Output.Type == "s3" && cfg.Output.S3 != nil {
		return "s3://" + cfg.Output.S3.Bucket + "/" + cfg.Output.S3.Key
	}
	return cfg.Output.Path
}
