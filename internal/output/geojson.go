package output

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"

	"github.com/paulmach/orb/geojson"

	"geolabel/internal/domain"
)

// Feature property keys read by the map renderer.
const (
	PropLabel   = "cluster_label"
	PropCluster = "cluster"
	PropCount   = "count"
)

// Build returns one Point feature per cluster, largest clusters first.
// Clusters with equal counts keep their input order.
func Build(clusters []domain.LabeledCluster) *geojson.FeatureCollection {
	sorted := make([]domain.LabeledCluster, len(clusters))
	copy(sorted, clusters)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })

	fc := geojson.NewFeatureCollection()
	for _, c := range sorted {
		f := geojson.NewFeature(c.Centroid)
		f.Properties[PropLabel] = c.Label
		f.Properties[PropCluster] = c.ID
		f.Properties[PropCount] = c.Count
		fc.Append(f)
	}
	return fc
}

// Encode writes fc as JSON indented by two spaces. Non-ASCII text is written unescaped.
func Encode(w io.Writer, fc *geojson.FeatureCollection) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(fc)
}

// Marshal is Encode into a byte slice.
func Marshal(fc *geojson.FeatureCollection) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, fc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
