package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(orb.Point{1, 2})
	f.Properties["cluster_label"] = "Pets"
	f.Properties["cluster"] = 0
	f.Properties["count"] = 5
	return fc.Append(f)
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "label.geojson")

	require.NoError(t, NewSink(path).Write(context.Background(), collection()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, got.Features, 1)
	assert.Equal(t, "Pets", got.Features[0].Properties.MustString("cluster_label"))

	entries, err := os.ReadDir(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "label.geojson.zst")

	require.NoError(t, NewSink(path).Write(context.Background(), collection()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	data, err := dec.DecodeAll(raw, nil)
	require.NoError(t, err)
	got, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	assert.Len(t, got.Features, 1)
}

func TestWriteCancelledLeavesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "label.geojson")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, NewSink(path).Write(ctx, collection()), context.Canceled)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
