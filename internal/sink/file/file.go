package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/paulmach/orb/geojson"

	"geolabel/internal/output"
)

// Sink writes the collection to a local file. A ".zst" suffix compresses it.
// The file appears atomically: it is written next to the target and renamed.
type Sink struct {
	path string
}

// NewSink creates a file sink for path.
func NewSink(path string) *Sink {
	return &Sink{path: path}
}

// Path returns the destination path.
func (s *Sink) Path() string { return s.path }

func (s *Sink) Write(ctx context.Context, fc *geojson.FeatureCollection) error {
	data, err := output.Marshal(fc)
	if err != nil {
		return err
	}
	if strings.HasSuffix(s.path, ".zst") {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return err
		}
		data = enc.EncodeAll(data, nil)
		_ = enc.Close()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
