package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Noise marks a point that belongs to no cluster.
const Noise = -1

// Point is a single row of the input table. Its identity is its row position.
// An empty Token means the row carries no token.
type Point struct {
	X     float64
	Y     float64
	Token string
}

// PointSet is an ordered sequence of 2-D points.
type PointSet []Point

// NormalizedPointSet is a PointSet rescaled to zero mean and unit variance per axis.
// Points keep the order of the source set. Mean and Std hold the parameters used.
type NormalizedPointSet struct {
	Points []orb.Point
	Mean   [2]float64
	Std    [2]float64
}

// Assignment maps every point (by position) to a cluster id or Noise.
type Assignment []int

// Clusters returns the number of distinct non-noise cluster ids.
func (a Assignment) Clusters() int {
	seen := make(map[int]struct{})
	for _, id := range a {
		if id != Noise {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}

// NoiseCount returns how many points are unassigned.
func (a Assignment) NoiseCount() int {
	n := 0
	for _, id := range a {
		if id == Noise {
			n++
		}
	}
	return n
}

// Cluster is a group of points with its centroid in original coordinates.
type Cluster struct {
	ID       int
	Centroid orb.Point
	Count    int
	Tokens   []string
}

// LabeledCluster is a Cluster with its human-readable label.
type LabeledCluster struct {
	Cluster
	Label string
}

// GenerateRequest is one text-generation call used to label a cluster.
type GenerateRequest struct {
	SystemInstruction string
	Tokens            []string
	MaxOutputTokens   int
	Temperature       float64
}

// UserContent renders the token sample as the user message of the request.
func (r GenerateRequest) UserContent() string {
	return fmt.Sprintf("Create a short label for this group of words:\n%s", strings.Join(r.Tokens, ", "))
}

// GenerateResponse is the raw completion returned by a Generator.
type GenerateResponse struct {
	Text string
}

// Generator is an external text-generation capability.
// Failures must surface as errors, never as default text.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}

// PointSource loads the input point table.
type PointSource interface {
	Load(ctx context.Context) (PointSet, error)
}

// Sink persists a finished feature collection.
// Implementations must never leave a partially written artifact behind.
type Sink interface {
	Write(ctx context.Context, fc *geojson.FeatureCollection) error
}
