package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"geolabel/internal/domain"
	"geolabel/internal/pointsource"
)

// Source reads points from a CSV file with a header row.
type Source struct {
	path    string
	columns pointsource.Columns
}

// NewSource creates a CSV point source for path.
func NewSource(path string, columns pointsource.Columns) *Source {
	return &Source{path: path, columns: columns}
}

// Load reads the whole file.
func (s *Source) Load(ctx context.Context) (domain.PointSet, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", domain.ErrInput, err)
		}
		return nil, err
	}
	defer f.Close()
	return Read(ctx, f, s.columns)
}

// Read parses CSV records from r. Rows may have more columns than the ones used.
func Read(ctx context.Context, r io.Reader, columns pointsource.Columns) (domain.PointSet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty csv", domain.ErrInput)
		}
		return nil, fmt.Errorf("%w: read header: %v", domain.ErrInput, err)
	}
	layout, err := columns.Resolve(header)
	if err != nil {
		return nil, err
	}

	var points domain.PointSet
	for row := 1; ; row++ {
		if row%4096 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInput, err)
		}
		if layout.X >= len(rec) || layout.Y >= len(rec) {
			return nil, fmt.Errorf("%w: row %d has %d fields", domain.ErrInput, row, len(rec))
		}
		var p domain.Point
		if p.X, err = pointsource.ParseFloat(rec[layout.X], row, columns.X); err != nil {
			return nil, err
		}
		if p.Y, err = pointsource.ParseFloat(rec[layout.Y], row, columns.Y); err != nil {
			return nil, err
		}
		if layout.Token >= 0 && layout.Token < len(rec) {
			p.Token = rec[layout.Token]
		}
		points = append(points, p)
	}
	return points, nil
}
