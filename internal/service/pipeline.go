package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/paulmach/orb/geojson"

	"geolabel/internal/cluster"
	"geolabel/internal/domain"
	"geolabel/internal/normalize"
	"geolabel/internal/output"
)

// ClusterLabeler is the labeling stage used by the pipeline.
type ClusterLabeler interface {
	Label(ctx context.Context, clusters []domain.Cluster) ([]domain.LabeledCluster, error)
}

// Report summarizes a run.
type Report struct {
	Points     int
	Eps        float64
	Iterations int
	Clusters   int
	Noise      int
}

// Result is the complete output of a run.
type Result struct {
	Collection *geojson.FeatureCollection
	Clusters   []domain.LabeledCluster
	Report     Report
}

// Pipeline clusters a point set and labels the clusters.
type Pipeline struct {
	search  cluster.SearchParams
	labeler ClusterLabeler
	log     *slog.Logger
}

// NewPipeline wires a pipeline from its search parameters and labeling stage.
func NewPipeline(search cluster.SearchParams, labeler ClusterLabeler, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{search: search, labeler: labeler, log: log}
}

// Run executes the whole job. All local work, including input checks, finishes
// before the first external call. A labeling failure returns no result at all.
// A point set where every point is noise yields an empty collection.
func (p *Pipeline) Run(ctx context.Context, points domain.PointSet) (*Result, error) {
	if err := validate(points); err != nil {
		return nil, err
	}
	report := Report{Points: len(points)}
	p.log.Info("clustering", "points", len(points), "target", p.search.TargetClusters)

	norm := normalize.ZScore(points)
	found := cluster.SearchEps(norm.Points, p.search)
	p.log.Info("eps selected", "eps", found.Eps, "clusters", found.Clusters, "iterations", found.Iterations)

	labels := cluster.DBSCAN(norm.Points, found.Eps, p.search.MinSamples)
	clusters, err := cluster.Aggregate(points, labels)
	if err != nil {
		return nil, err
	}
	report.Eps = found.Eps
	report.Iterations = found.Iterations
	report.Clusters = len(clusters)
	report.Noise = labels.NoiseCount()
	p.log.Info("clusters found", "clusters", report.Clusters, "noise", report.Noise)

	var labeled []domain.LabeledCluster
	if len(clusters) > 0 {
		labeled, err = p.labeler.Label(ctx, clusters)
		if err != nil {
			return nil, fmt.Errorf("label clusters: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Result{Collection: output.Build(labeled), Clusters: labeled, Report: report}, nil
}

func validate(points domain.PointSet) error {
	if len(points) == 0 {
		return fmt.Errorf("%w: no points", domain.ErrInput)
	}
	for i, pt := range points {
		if !finite(pt.X) || !finite(pt.Y) {
			return fmt.Errorf("%w: row %d has a non-finite coordinate", domain.ErrInput, i)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
