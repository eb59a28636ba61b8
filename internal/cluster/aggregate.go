package cluster

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/stat"

	"geolabel/internal/domain"
)

// Aggregate groups the original points by assigned cluster, dropping noise.
// Centroids are means of the original coordinates. Tokens keep input order and
// empty tokens are skipped. Clusters come back in ascending id order.
func Aggregate(points domain.PointSet, labels domain.Assignment) ([]domain.Cluster, error) {
	if len(points) != len(labels) {
		return nil, fmt.Errorf("%w: %d points but %d assignments", domain.ErrInput, len(points), len(labels))
	}

	type group struct {
		xs, ys []float64
		tokens []string
	}
	groups := make(map[int]*group)
	for i, id := range labels {
		if id == domain.Noise {
			continue
		}
		g, ok := groups[id]
		if !ok {
			g = &group{}
			groups[id] = g
		}
		p := points[i]
		g.xs = append(g.xs, p.X)
		g.ys = append(g.ys, p.Y)
		if p.Token != "" {
			g.tokens = append(g.tokens, p.Token)
		}
	}

	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	clusters := make([]domain.Cluster, 0, len(ids))
	for _, id := range ids {
		g := groups[id]
		clusters = append(clusters, domain.Cluster{
			ID:       id,
			Centroid: orb.Point{stat.Mean(g.xs, nil), stat.Mean(g.ys, nil)},
			Count:    len(g.xs),
			Tokens:   g.tokens,
		})
	}
	return clusters, nil
}
