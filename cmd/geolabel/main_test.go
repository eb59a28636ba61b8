package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geolabel/internal/domain"
)

func writePoints(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("x,y,token\n")
	blob := func(cx, cy float64, tokens ...string) {
		for i := range 50 {
			fmt.Fprintf(&b, "%g,%g,%s\n", cx+float64(i%10)*0.1, cy+float64(i/10)*0.1, tokens[i%len(tokens)])
		}
	}
	blob(0, 0, "cat", "dog")
	blob(100, 50, "car", "bus")
	path := filepath.Join(dir, "points.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "geolabel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOffline(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "label.geojson")
	opts := options{
		configPath: writeConfig(t, dir, "clustering:\n  target_clusters: 2\nlabeler:\n  type: frequency\n"),
		input:      writePoints(t, dir),
		output:     out,
	}

	require.NoError(t, run(context.Background(), opts, quietLogger()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	labels := []string{
		fc.Features[0].Properties.MustString("cluster_label"),
		fc.Features[1].Properties.MustString("cluster_label"),
	}
	assert.ElementsMatch(t, []string{"Cat Dog", "Car Bus"}, labels)
}

type placeRow struct {
	X     float64 `parquet:"x"`
	Y     float64 `parquet:"y"`
	Token string  `parquet:"token,optional"`
}

func TestRunOfflineParquet(t *testing.T) {
	dir := t.TempDir()
	var rows []placeRow
	for i := range 50 {
		rows = append(rows, placeRow{X: float64(i%10) * 0.1, Y: float64(i/10) * 0.1, Token: []string{"cat", "dog"}[i%2]})
	}
	for i := range 50 {
		rows = append(rows, placeRow{X: 100 + float64(i%10)*0.1, Y: 50 + float64(i/10)*0.1, Token: []string{"car", "bus"}[i%2]})
	}
	input := filepath.Join(dir, "output.parquet")
	f, err := os.Create(input)
	require.NoError(t, err)
	w := parquet.NewGenericWriter[placeRow](f)
	_, err = w.Write(rows)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	out := filepath.Join(dir, "label.geojson")
	opts := options{
		configPath: writeConfig(t, dir, "input:\n  type: parquet\nclustering:\n  target_clusters: 2\nlabeler:\n  type: frequency\n"),
		input:      input,
		output:     out,
	}

	require.NoError(t, run(context.Background(), opts, quietLogger()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	assert.Len(t, fc.Features, 2)
}

func TestRunMissingAPIKeyIsConfigError(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GEOLABEL_TEST_KEY", "")
	out := filepath.Join(dir, "label.geojson")
	opts := options{
		configPath: writeConfig(t, dir, "labeler:\n  type: openai\n  openai:\n    api_key_env: GEOLABEL_TEST_KEY\n"),
		input:      filepath.Join(dir, "does-not-exist.csv"),
		output:     out,
	}

	err := run(context.Background(), opts, quietLogger())
	require.ErrorIs(t, err, domain.ErrConfig, "credentials are checked before input is read")
	assert.Equal(t, exitConfig, exitCode(err))
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunMissingInputIsInputError(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		configPath: writeConfig(t, dir, "labeler:\n  type: frequency\n"),
		input:      filepath.Join(dir, "does-not-exist.csv"),
		output:     filepath.Join(dir, "label.geojson"),
	}

	err := run(context.Background(), opts, quietLogger())
	require.ErrorIs(t, err, domain.ErrInput)
	assert.Equal(t, exitInput, exitCode(err))
}

func TestRunMissingConfigFileIsConfigError(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "label.geojson")
	opts := options{
		configPath: filepath.Join(dir, "geolabl.yaml"),
		input:      writePoints(t, dir),
		output:     out,
	}

	err := run(context.Background(), opts, quietLogger())
	require.ErrorIs(t, err, domain.ErrConfig)
	assert.Equal(t, exitConfig, exitCode(err))
	assert.NoFileExists(t, out)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitConfig, exitCode(fmt.Errorf("wrap: %w", domain.ErrConfig)))
	assert.Equal(t, exitInput, exitCode(domain.ErrInput))
	assert.Equal(t, exitExternal, exitCode(&domain.LabelError{ClusterID: 1, Err: domain.ErrExternalService}))
	assert.Equal(t, exitOther, exitCode(io.ErrUnexpectedEOF))
}
