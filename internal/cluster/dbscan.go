package cluster

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"

	"geolabel/internal/domain"
)

// indexed is a quadtree entry remembering the row it came from.
type indexed struct {
	p   orb.Point
	row int
}

func (i indexed) Point() orb.Point { return i.p }

// neighborIndex answers eps-radius queries over a fixed point set.
type neighborIndex struct {
	points []orb.Point
	tree   *quadtree.Quadtree
	buf    []orb.Pointer
}

func newNeighborIndex(points []orb.Point) *neighborIndex {
	bound := orb.MultiPoint(points).Bound()
	tree := quadtree.New(bound)
	for i, p := range points {
		// p is always inside bound, Add cannot fail.
		_ = tree.Add(indexed{p: p, row: i})
	}
	return &neighborIndex{points: points, tree: tree}
}

// within returns the rows at distance <= eps from row i, itself included, in ascending order.
func (n *neighborIndex) within(i int, eps float64, dst []int) []int {
	p := n.points[i]
	box := orb.Bound{Min: orb.Point{p[0] - eps, p[1] - eps}, Max: orb.Point{p[0] + eps, p[1] + eps}}
	n.buf = n.tree.InBound(n.buf[:0], box)
	dst = dst[:0]
	eps2 := eps * eps
	for _, c := range n.buf {
		e := c.(indexed)
		if planar.DistanceSquared(p, e.p) <= eps2 {
			dst = append(dst, e.row)
		}
	}
	sort.Ints(dst)
	return dst
}

// DBSCAN assigns each point to a cluster id or domain.Noise.
//
// A point is core when at least minSamples points, itself included, lie within
// eps. Clusters are grown breadth-first from core points in input order and are
// numbered from 0 in that order; a border point joins the first cluster that
// reaches it. The result depends only on the inputs.
func DBSCAN(points []orb.Point, eps float64, minSamples int) domain.Assignment {
	labels := make(domain.Assignment, len(points))
	if len(points) == 0 {
		return labels
	}
	idx := newNeighborIndex(points)

	core := make([]bool, len(points))
	var nb []int
	for i := range points {
		nb = idx.within(i, eps, nb)
		core[i] = len(nb) >= minSamples
		labels[i] = domain.Noise
	}

	next := 0
	var queue []int
	for i := range points {
		if !core[i] || labels[i] != domain.Noise {
			continue
		}
		id := next
		next++
		labels[i] = id
		queue = append(queue[:0], i)
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			nb = idx.within(cur, eps, nb)
			for _, j := range nb {
				if labels[j] != domain.Noise {
					continue
				}
				labels[j] = id
				if core[j] {
					queue = append(queue, j)
				}
			}
		}
	}
	return labels
}
