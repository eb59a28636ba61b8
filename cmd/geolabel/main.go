package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"geolabel/internal/config"
	"geolabel/internal/domain"
	"geolabel/internal/service"
	"geolabel/internal/tui"
)

type options struct {
	configPath string
	input      string
	output     string
	interact   bool
	verbose    bool
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to YAML config file (optional; uses ./geolabel.yaml or ~/.config/geolabel/config.yaml if not provided)")
	flag.StringVar(&opts.input, "input", "", "Input CSV or SQLite file (overrides input.path)")
	flag.StringVar(&opts.output, "output", "", "Output GeoJSON path (overrides output.path; .zst compresses)")
	flag.BoolVar(&opts.interact, "tui", false, "Browse the labeled clusters after the run")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.Parse()
	if args := flag.Args(); len(args) > 1 {
		fmt.Println("Usage: geolabel [--config=geolabel.yaml] [--output=label.geojson] [points.csv]")
		os.Exit(exitUsage)
	} else if len(args) == 1 && opts.input == "" {
		opts.input = args[0]
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With("run", uuid.NewString())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, opts, logger)
	stop()
	if err != nil {
		log.Printf("geolabel: %v", err)
		os.Exit(exitCode(err))
	}
}

const (
	exitOther    = 1
	exitUsage    = 2
	exitConfig   = 2
	exitInput    = 3
	exitExternal = 4
)

func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrConfig):
		return exitConfig
	case errors.Is(err, domain.ErrInput):
		return exitInput
	case errors.Is(err, domain.ErrExternalService):
		return exitExternal
	default:
		return exitOther
	}
}

func loadConfig(opts options) (*config.AppConfig, error) {
	var cfg *config.AppConfig
	var err error
	if opts.configPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(opts.configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.input != "" {
		cfg.Input.Path = opts.input
	}
	if opts.output != "" {
		cfg.Output.Type = "file"
		cfg.Output.Path = opts.output
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, opts options, logger *slog.Logger) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	// Everything that can fail on configuration is assembled before input is read.
	gen, err := buildGenerator(cfg, logger)
	if err != nil {
		return err
	}
	sink, err := buildSink(cfg)
	if err != nil {
		return err
	}
	src, closeSource, err := buildSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	points, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load points: %w", err)
	}

	pipeline := service.NewPipeline(searchParams(cfg), buildLabeler(cfg, gen, logger), logger)
	res, err := pipeline.Run(ctx, points)
	if err != nil {
		return err
	}
	if err := sink.Write(ctx, res.Collection); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("done", "points", res.Report.Points, "clusters", res.Report.Clusters,
		"noise", res.Report.Noise, "eps", res.Report.Eps, "output", describeSink(cfg))

	if opts.interact {
		m := tui.New(res.Clusters, summarize(res.Report))
		if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
			return err
		}
	}
	return nil
}

func summarize(r service.Report) string {
	return fmt.Sprintf("%d points, eps=%.4f after %d iterations, %d clusters, %d noise",
		r.Points, r.Eps, r.Iterations, r.Clusters, r.Noise)
}
