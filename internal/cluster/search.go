package cluster

import (
	"math"

	"github.com/paulmach/orb"
)

// SearchIterations caps the eps binary search. The search does not run to convergence.
const SearchIterations = 20

// SearchParams configures SearchEps.
type SearchParams struct {
	TargetClusters int
	MinSamples     int
	EpsMin         float64
	EpsMax         float64
}

// DefaultSearchParams returns the search defaults: 40 clusters, 5 samples, eps in [0.01, 2.0].
func DefaultSearchParams() SearchParams {
	return SearchParams{TargetClusters: 40, MinSamples: 5, EpsMin: 0.01, EpsMax: 2.0}
}

// SearchResult is the best eps seen and the cluster count it produced.
type SearchResult struct {
	Eps        float64
	Clusters   int
	Iterations int
}

// SearchEps binary-searches eps so that DBSCAN yields about TargetClusters clusters.
// Only a strictly closer count replaces the best candidate. Fewer clusters than
// wanted moves the upper bound down, more moves the lower bound up, an exact hit stops.
func SearchEps(points []orb.Point, p SearchParams) SearchResult {
	lo, hi := p.EpsMin, p.EpsMax
	best := SearchResult{Eps: clamp(0.5, lo, hi)}
	bestDiff := math.MaxInt

	for it := 1; it <= SearchIterations; it++ {
		eps := (lo + hi) / 2
		n := DBSCAN(points, eps, p.MinSamples).Clusters()
		best.Iterations = it

		diff := n - p.TargetClusters
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			bestDiff = diff
			best.Eps = eps
			best.Clusters = n
		}

		switch {
		case n < p.TargetClusters:
			hi = eps
		case n > p.TargetClusters:
			lo = eps
		default:
			return best
		}
	}
	return best
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
