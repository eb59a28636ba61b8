package normalize

import (
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/stat"

	"geolabel/internal/domain"
)

// ZScore rescales each axis to zero mean and unit variance using the
// population standard deviation. An axis with no spread maps to 0.
func ZScore(points domain.PointSet) domain.NormalizedPointSet {
	out := domain.NormalizedPointSet{Points: make([]orb.Point, len(points))}
	if len(points) == 0 {
		return out
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	for axis, vals := range [2][]float64{xs, ys} {
		mean, std := stat.PopMeanStdDev(vals, nil)
		if degenerate(mean, std) {
			std = 0
		}
		out.Mean[axis] = mean
		out.Std[axis] = std
		for i, v := range vals {
			if std == 0 {
				out.Points[i][axis] = 0
				continue
			}
			out.Points[i][axis] = (v - mean) / std
		}
	}
	return out
}

// degenerate treats a deviation at rounding-noise level as zero, so a column of
// identical values does not blow up into arbitrary +-1 values.
func degenerate(mean, std float64) bool {
	const machineEps = 2.220446049250313e-16
	return std == 0 || math.IsNaN(std) || std < 10*machineEps*math.Max(1, math.Abs(mean))
}
